package http

import (
	"Shortly-Backend/internal/repository"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// StatsSource exposes runtime counters from the analytics pipeline.
type StatsSource interface {
	Stats() map[string]interface{}
}

// HealthHandler serves liveness, readiness and basic runtime metrics.
type HealthHandler struct {
	storage repository.Storage
	stats   StatsSource
	started time.Time
	log     *zap.Logger
}

// NewHealthHandler creates the health handler. stats may be nil.
func NewHealthHandler(storage repository.Storage, stats StatsSource, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		stats:   stats,
		started: time.Now(),
		log:     log,
	}
}

// Health handles GET /health. The process is alive; the store state is
// reported but does not fail the check, demo mode still serves traffic.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if err := h.storage.Ping(r.Context()); err != nil {
		database = "unavailable"
	}

	writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"database":  database,
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// Ready handles GET /ready and fails while the store is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Ping(r.Context()); err != nil {
		h.log.Debug("readiness check failed", zap.Error(err))
		writeJSON(w, map[string]interface{}{
			"status": "not ready",
			"reason": "database unavailable",
		}, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]interface{}{"status": "ready"}, http.StatusOK)
}

// Metrics handles GET /metrics with process and pipeline counters.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	metrics := map[string]interface{}{
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc":     mem.HeapAlloc,
		"heap_objects":   mem.HeapObjects,
		"gc_cycles":      mem.NumGC,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if h.stats != nil {
		metrics["analytics"] = h.stats.Stats()
	}

	writeJSON(w, metrics, http.StatusOK)
}
