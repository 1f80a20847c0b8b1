package http

import (
	"Shortly-Backend/internal/service"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ExportHandler serves the CSV export endpoint.
type ExportHandler struct {
	shortener *service.ShortenerService
	log       *zap.Logger
}

// NewExportHandler creates the export handler.
func NewExportHandler(shortener *service.ShortenerService, log *zap.Logger) *ExportHandler {
	return &ExportHandler{
		shortener: shortener,
		log:       log,
	}
}

// ExportRequest is the export request body. Either previously returned batch
// results or a plain list of short codes.
type ExportRequest struct {
	Results    []service.BatchItem `json:"results,omitempty"`
	ShortCodes []string            `json:"shortCodes,omitempty"`
}

// ExportCSV handles POST /api/export-urls and streams a CSV attachment.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid export request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	rows, err := h.shortener.ExportRows(r.Context(), req.Results, req.ShortCodes, requestBaseURL(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoExportData):
			writeError(w, "No URLs to export", http.StatusBadRequest)
		default:
			h.log.Error("failed to build export", zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	filename := fmt.Sprintf("shortly_export_%d.csv", time.Now().Unix())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"Original URL", "Short URL", "Short Code", "Creation Date", "Click Count"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.OriginalURL,
			row.ShortURL,
			row.ShortCode,
			row.CreationDate,
			strconv.FormatInt(row.ClickCount, 10),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.log.Error("failed to write CSV", zap.Error(err))
	}

	h.log.Info("exported URLs", zap.Int("rows", len(rows)))
}
