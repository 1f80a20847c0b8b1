package http

import (
	"Shortly-Backend/internal/analytics"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/internal/service"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RedirectHandler resolves short codes and issues redirects.
type RedirectHandler struct {
	shortener *service.ShortenerService
	log       *zap.Logger
}

// NewRedirectHandler creates the redirect handler.
func NewRedirectHandler(shortener *service.ShortenerService, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		shortener: shortener,
		log:       log,
	}
}

// HandleRedirect handles GET /{shortCode}. It is registered on the root
// pattern, so everything the mux did not match elsewhere lands here.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := strings.Trim(r.URL.Path, "/")
	if code == "" || code == "favicon.ico" || strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, "Short URL not found", http.StatusNotFound)
		return
	}

	reqCtx := analytics.RequestContext{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		Time:      time.Now(),
	}

	originalURL, err := h.shortener.Resolve(r.Context(), code, reqCtx)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			writeError(w, "Short URL not found", http.StatusNotFound)
		case errors.Is(err, service.ErrLinkExpired):
			writeError(w, "This link has expired", http.StatusGone)
		case errors.Is(err, repository.ErrUnavailable):
			writeJSON(w, map[string]interface{}{
				"demoMode": true,
				"message":  "Demo mode - Redirects require database connection",
			}, http.StatusServiceUnavailable)
		default:
			h.log.Error("failed to resolve short code",
				zap.String("short_code", code), zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.log.Debug("redirecting",
		zap.String("short_code", code),
		zap.String("original_url", originalURL))
	http.Redirect(w, r, originalURL, http.StatusFound)
}
