package http

import (
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/internal/service"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Server wires the HTTP handlers for the shortener API.
type Server struct {
	linksHandler     *LinksHandler
	bulkHandler      *BulkHandler
	analyticsHandler *AnalyticsHandler
	redirectHandler  *RedirectHandler
	exportHandler    *ExportHandler
	qrHandler        *QRHandler
	healthHandler    *HealthHandler
	log              *zap.Logger
}

// NewServer creates the HTTP server handlers around the shortener service.
func NewServer(
	shortener *service.ShortenerService,
	storage repository.Storage,
	stats StatsSource,
	log *zap.Logger,
) *Server {
	return &Server{
		linksHandler:     NewLinksHandler(shortener, log),
		bulkHandler:      NewBulkHandler(shortener, log),
		analyticsHandler: NewAnalyticsHandler(shortener, log),
		redirectHandler:  NewRedirectHandler(shortener, log),
		exportHandler:    NewExportHandler(shortener, log),
		qrHandler:        NewQRHandler(log),
		healthHandler:    NewHealthHandler(storage, stats, log),
		log:              log,
	}
}

// SetupRoutes configures the request mux.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)
	mux.HandleFunc("/metrics", s.healthHandler.Metrics)

	// API endpoints
	mux.HandleFunc("/api/shorten", withCORS(s.linksHandler.Shorten))
	mux.HandleFunc("/api/bulk-shorten", withCORS(s.bulkHandler.BulkShorten))
	mux.HandleFunc("/api/bulk-upload", withCORS(s.bulkHandler.BulkUpload))
	mux.HandleFunc("/api/analytics/", withCORS(s.analyticsHandler.GetAnalytics))
	mux.HandleFunc("/api/qr", withCORS(s.qrHandler.Generate))
	mux.HandleFunc("/api/export-urls", withCORS(s.exportHandler.ExportCSV))

	// Redirect endpoint - must be last, it matches everything
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

// withCORS adds permissive CORS headers and answers preflight requests.
func withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		handler(w, r)
	}
}

// requestBaseURL reconstructs the externally visible base URL of a request,
// honoring reverse-proxy headers.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// clientIP extracts the client IP, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For may carry a comma-separated chain.
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Shared response helpers.

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
