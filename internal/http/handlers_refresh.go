package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/slicehq/slice/internal/service"
)

// RefreshService is the part of the refresh service the HTTP layer depends on.
type RefreshService interface {
	Categories() []string
	Refresh(ctx context.Context, category string) ([]service.RefreshResult, error)
}

// RefreshHandlers triggers dataset regeneration on behalf of the dashboard.
type RefreshHandlers struct {
	svc    RefreshService
	logger *slog.Logger
}

// NewRefreshHandlers creates handlers for the dataset refresh endpoint.
func NewRefreshHandlers(svc RefreshService, logger *slog.Logger) *RefreshHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshHandlers{
		svc:    svc,
		logger: logger.With("component", "refresh_handlers"),
	}
}

type refreshResultPayload struct {
	Category   string `json:"category"`
	OK         bool   `json:"ok"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Refresh runs the regeneration scripts for one category, or all categories
// when none is given, and reports a per-category outcome.
//
//	GET  /api/refresh?category=market
//	POST /api/refresh?category=news
func (h *RefreshHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	results, err := h.svc.Refresh(r.Context(), category)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCategory) {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "unknown_category",
				Err:     err,
			})
			return
		}
		h.logger.Error("refresh failed", "category", category, "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal",
			Err:     errors.New("refresh failed"),
		})
		return
	}

	allOK := true
	payload := make([]refreshResultPayload, 0, len(results))
	for _, res := range results {
		if !res.OK {
			allOK = false
		}
		payload = append(payload, refreshResultPayload{
			Category:   res.Category,
			OK:         res.OK,
			DurationMS: res.Duration.Milliseconds(),
			Error:      res.Error,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":      allOK,
		"results": payload,
	})
}
