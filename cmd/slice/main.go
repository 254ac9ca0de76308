package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/slicehq/slice/config"
	"github.com/slicehq/slice/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	auth, err := bootstrap.BuildAuthService(ctx, &cfg.Auth, cfg.IsDev, logger)
	if err != nil {
		return err
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config: &cfg,
		Auth:   auth,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	// Sweepers stop along with the server lifecycle.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Sessions are also evicted lazily on access, so an hourly sweep is
	// enough to keep abandoned entries from accumulating.
	auth.StartSweepers(runCtx, cfg.Auth.StateSweepInterval, time.Hour)

	server := bootstrap.StartHTTPServer(cfg.HTTP.Addr, services.Handler, logger)

	return bootstrap.RunWithShutdown(runCtx, server, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting slice dashboard server",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"web_root", cfg.Assets.WebRoot,
		"allow_list_size", len(cfg.Auth.AllowedEmails),
		"dev", cfg.IsDev)
}
