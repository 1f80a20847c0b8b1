package http

import (
	"Shortly-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LinksHandler serves the single-URL shorten endpoint.
type LinksHandler struct {
	shortener *service.ShortenerService
	log       *zap.Logger
}

// NewLinksHandler creates the shorten handler.
func NewLinksHandler(shortener *service.ShortenerService, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		shortener: shortener,
		log:       log,
	}
}

// ShortenRequest is the shorten request body.
type ShortenRequest struct {
	URL         string `json:"url"`
	CustomAlias string `json:"customAlias,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

// Shorten handles POST /api/shorten.
func (h *LinksHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid shorten request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		writeError(w, "URL is required", http.StatusBadRequest)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeError(w, "Invalid expiresAt format. Use RFC3339 format", http.StatusBadRequest)
			return
		}
		expiresAt = &parsed
	}

	result, err := h.shortener.Shorten(r.Context(), service.ShortenRequest{
		URL:         req.URL,
		CustomAlias: req.CustomAlias,
		ExpiresAt:   expiresAt,
		BaseURL:     requestBaseURL(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			writeError(w, "Invalid URL format", http.StatusBadRequest)
		case errors.Is(err, service.ErrAliasTaken):
			writeError(w, "Custom alias already exists", http.StatusConflict)
		default:
			h.log.Error("failed to shorten URL", zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.log.Info("shortened URL",
		zap.String("short_code", result.ShortCode),
		zap.Bool("demo_mode", result.DemoMode))
	writeJSON(w, result, http.StatusOK)
}
