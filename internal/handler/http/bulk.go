package http

import (
	"Shortly-Backend/internal/service"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// maxUploadBytes caps bulk upload files at 2 MB.
const maxUploadBytes = 2 << 20

// BulkHandler serves batch shortening, both direct submission and file upload.
type BulkHandler struct {
	shortener *service.ShortenerService
	log       *zap.Logger
}

// NewBulkHandler creates the bulk handler.
func NewBulkHandler(shortener *service.ShortenerService, log *zap.Logger) *BulkHandler {
	return &BulkHandler{
		shortener: shortener,
		log:       log,
	}
}

// BulkShortenRequest is the bulk-shorten request body.
type BulkShortenRequest struct {
	URLs []struct {
		URL string `json:"url"`
	} `json:"urls"`
}

// BulkShorten handles POST /api/bulk-shorten.
func (h *BulkHandler) BulkShorten(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BulkShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid bulk shorten request", zap.Error(err))
		writeError(w, "URLs array is required", http.StatusBadRequest)
		return
	}

	urls := make([]string, len(req.URLs))
	for i, item := range req.URLs {
		urls[i] = strings.TrimSpace(item.URL)
	}

	h.process(w, r, urls)
}

// BulkUpload handles POST /api/bulk-upload: a multipart CSV or TXT file of
// URLs, one per line (first CSV column).
func (h *BulkHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mime := header.Header.Get("Content-Type")
	isCSV := strings.Contains(mime, "csv") || strings.EqualFold(filepath.Ext(header.Filename), ".csv")
	isTxt := strings.Contains(mime, "plain") || strings.Contains(mime, "text") ||
		strings.EqualFold(filepath.Ext(header.Filename), ".txt") ||
		strings.EqualFold(filepath.Ext(header.Filename), ".log")

	if !isCSV && !isTxt {
		writeError(w, "Unsupported file type. Please upload CSV or TXT.", http.StatusBadRequest)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("failed to read uploaded file", zap.Error(err))
		writeError(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	var rawURLs []string
	if isCSV {
		rawURLs, err = parseCSVColumn(content)
		if err != nil {
			h.log.Warn("CSV parse failed, falling back to line split", zap.Error(err))
			rawURLs = parseLines(content, true)
		}
	} else {
		rawURLs = parseLines(content, false)
	}

	// Normalize scheme-less lines, drop what still fails validation, and
	// cap at the batch limit before handing off to the pipeline.
	var urls []string
	for _, raw := range rawURLs {
		url := service.NormalizeURL(raw)
		if !service.ValidateURL(url) {
			continue
		}
		urls = append(urls, url)
		if len(urls) == service.MaxBatchSize {
			break
		}
	}

	if len(urls) == 0 {
		writeError(w, "No valid URLs found in file", http.StatusBadRequest)
		return
	}

	h.log.Info("processing bulk upload",
		zap.String("filename", header.Filename),
		zap.Int("lines", len(rawURLs)),
		zap.Int("valid_urls", len(urls)))

	h.process(w, r, urls)
}

// process runs the batch pipeline and maps its failures to HTTP statuses.
func (h *BulkHandler) process(w http.ResponseWriter, r *http.Request, urls []string) {
	result, err := h.shortener.ProcessBatch(r.Context(), urls, requestBaseURL(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBatch):
			writeError(w, "URLs array is required", http.StatusBadRequest)
		case errors.Is(err, service.ErrBatchTooLarge):
			writeError(w, fmt.Sprintf("Maximum %d URLs allowed per batch", service.MaxBatchSize), http.StatusBadRequest)
		default:
			h.log.Error("failed to process batch", zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// parseCSVColumn extracts the first column of every CSV record.
func parseCSVColumn(content []byte) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		if url := strings.TrimSpace(record[0]); url != "" {
			urls = append(urls, url)
		}
	}
	return urls, nil
}

// parseLines splits plain text into trimmed non-empty lines; splitComma also
// takes only the first comma-separated field, the fallback for broken CSVs.
func parseLines(content []byte, splitComma bool) []string {
	var urls []string
	for _, line := range strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n") {
		if splitComma {
			line = strings.SplitN(line, ",", 2)[0]
		}
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}
