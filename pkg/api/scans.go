package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/menukit/pkg/usage"
)

const (
	minQRSize = 64
	maxQRSize = 1024
)

func (h *handlers) meterQR(w http.ResponseWriter, r *http.Request) {
	res, err := h.Meter.MeterQR(r.Context(), chi.URLParam(r, "qrID"))
	h.writeMeter(w, r, res, err)
}

func (h *handlers) meterPartner(w http.ResponseWriter, r *http.Request) {
	res, err := h.Meter.Meter(r.Context(), chi.URLParam(r, "partnerID"))
	h.writeMeter(w, r, res, err)
}

// writeMeter answers 200 for both accepted and limit-reached scans.
func (h *handlers) writeMeter(w http.ResponseWriter, r *http.Request, res usage.Result, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) qrImage(w http.ResponseWriter, r *http.Request) {
	qrID := chi.URLParam(r, "qrID")

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			h.fail(w, r, ErrInvalidSize)
			return
		}
		size = n
	}

	if h.QRCodes != nil {
		if _, err := h.QRCodes.ResolvePartner(r.Context(), qrID); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	img, err := h.QR.PNG(qrID, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
