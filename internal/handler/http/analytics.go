package http

import (
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/internal/service"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AnalyticsHandler serves per-link analytics summaries.
type AnalyticsHandler struct {
	shortener *service.ShortenerService
	log       *zap.Logger
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(shortener *service.ShortenerService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		shortener: shortener,
		log:       log,
	}
}

// GetAnalytics handles GET /api/analytics/{shortCode}.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := strings.TrimPrefix(r.URL.Path, "/api/analytics/")
	if code == "" || strings.Contains(code, "/") {
		writeError(w, "Short code is required", http.StatusBadRequest)
		return
	}

	summary, err := h.shortener.Summarize(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			writeError(w, "Short URL not found", http.StatusNotFound)
		default:
			h.log.Error("failed to summarize analytics",
				zap.String("short_code", code), zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, summary, http.StatusOK)
}
