package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// RefreshResult is the structured outcome of one script invocation. Failure
// messages are kept short so external process internals never reach the
// caller.
type RefreshResult struct {
	Category string
	OK       bool
	Duration time.Duration
	Error    string
}

// RefreshServiceOptions groups dependencies for RefreshService.
type RefreshServiceOptions struct {
	// Scripts maps a dataset category to the script regenerating it.
	// Paths are resolved relative to ScriptsDir unless absolute.
	Scripts    map[string]string
	ScriptsDir string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// RefreshService triggers the external dataset regeneration scripts. The
// scripts' content is opaque to the server; only exit status and timing are
// observed.
type RefreshService struct {
	scripts    map[string]string
	scriptsDir string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewRefreshService constructs a new RefreshService.
func NewRefreshService(opts RefreshServiceOptions) (*RefreshService, error) {
	if len(opts.Scripts) == 0 {
		return nil, errors.New("at least one refresh script is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RefreshService{
		scripts:    opts.Scripts,
		scriptsDir: opts.ScriptsDir,
		timeout:    timeout,
		logger:     logger.With("component", "refresh_service"),
	}, nil
}

// Categories returns the known dataset categories in stable order.
func (s *RefreshService) Categories() []string {
	cats := make([]string, 0, len(s.scripts))
	for c := range s.scripts {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ErrUnknownCategory is returned when the requested category has no script.
var ErrUnknownCategory = errors.New("unknown dataset category")

// Refresh regenerates the datasets for the given category, or all categories
// when category is empty. Scripts run concurrently, each under its own
// timeout; a failing script never aborts its siblings.
func (s *RefreshService) Refresh(ctx context.Context, category string) ([]RefreshResult, error) {
	category = strings.ToLower(strings.TrimSpace(category))

	var cats []string
	if category == "" || category == "all" {
		cats = s.Categories()
	} else {
		if _, ok := s.scripts[category]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		cats = []string{category}
	}

	var mu sync.Mutex
	results := make([]RefreshResult, 0, len(cats))

	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range cats {
		g.Go(func() error {
			res := s.runScript(gctx, cat)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; a script failure is data, not a flow error.
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Category < results[j].Category })
	return results, nil
}

// runScript executes one regeneration script with a bounded timeout and maps
// the outcome to a RefreshResult.
func (s *RefreshService) runScript(ctx context.Context, category string) RefreshResult {
	script := s.scripts[category]
	if !filepath.IsAbs(script) {
		script = filepath.Join(s.scriptsDir, script)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, script)
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		reason := shortReason(runCtx, err)
		s.logger.WarnContext(ctx, "dataset refresh failed",
			"category", category,
			"duration", elapsed,
			"reason", reason)
		return RefreshResult{Category: category, OK: false, Duration: elapsed, Error: reason}
	}

	s.logger.InfoContext(ctx, "dataset refreshed", "category", category, "duration", elapsed)
	return RefreshResult{Category: category, OK: true, Duration: elapsed}
}

// shortReason reduces a script failure to a short message without exposing
// the process's stderr or paths.
func shortReason(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timed out"
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("exited with status %d", exitErr.ExitCode())
	}
	return "failed to start"
}
