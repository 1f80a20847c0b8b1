package http

import (
	"fmt"
	"image/color"
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1000
)

// QRHandler renders QR code images for arbitrary data, typically short URLs.
type QRHandler struct {
	log *zap.Logger
}

// NewQRHandler creates the QR code handler.
func NewQRHandler(log *zap.Logger) *QRHandler {
	return &QRHandler{log: log}
}

// Generate handles GET /api/qr?data=...&size=...&color=...&bg=...&margin=...
// and responds with a PNG.
func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := r.URL.Query().Get("data")
	if data == "" {
		writeError(w, "Data parameter is required", http.StatusBadRequest)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxQRSize {
			writeError(w, fmt.Sprintf("Size must be between 1 and %d", maxQRSize), http.StatusBadRequest)
			return
		}
		size = parsed
	}

	fg := parseHexColor(r.URL.Query().Get("color"), color.Black)
	bg := parseHexColor(r.URL.Query().Get("bg"), color.White)

	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		h.log.Error("failed to build QR code", zap.Error(err))
		writeError(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	qr.ForegroundColor = fg
	qr.BackgroundColor = bg
	if r.URL.Query().Get("margin") == "0" {
		qr.DisableBorder = true
	}

	png, err := qr.PNG(size)
	if err != nil {
		h.log.Error("failed to render QR code", zap.Error(err))
		writeError(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// parseHexColor parses "RRGGBB" or "#RRGGBB"; anything else yields fallback.
func parseHexColor(raw string, fallback color.Color) color.Color {
	if len(raw) > 0 && raw[0] == '#' {
		raw = raw[1:]
	}
	if len(raw) != 6 {
		return fallback
	}

	value, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 0xff,
	}
}
