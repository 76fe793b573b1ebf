package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alanhabib/elmify-backend-sub000/core/stream"
	"github.com/alanhabib/elmify-backend-sub000/logger"
	"github.com/alanhabib/elmify-backend-sub000/storage"
)

// StreamHandler serves bounded byte ranges of audio objects. Seeking and
// resumable playback both arrive here as Range requests; responses never
// exceed one chunk, and players fetch the rest with follow-up ranges.
type StreamHandler struct {
	proxy *stream.Proxy
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(proxy *stream.Proxy) *StreamHandler {
	return &StreamHandler{proxy: proxy}
}

// ServeHTTP implements the http.Handler interface.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		http.Error(w, "Missing object key", http.StatusBadRequest)
		return
	}

	rangeHeader := r.Header.Get("Range")

	result, err := h.proxy.Resolve(r.Context(), key, rangeHeader)
	if err != nil {
		h.writeStreamError(w, key, rangeHeader, err)
		return
	}
	defer result.Body.Close()

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	// Audio objects are write-once, so responses can be cached for a year.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", result.End-result.Start+1))

	if result.Partial {
		w.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", result.Start, result.End, result.Size))
		w.WriteHeader(http.StatusPartialContent)
	}

	if _, err := io.Copy(w, result.Body); err != nil {
		// Client disconnects land here; nothing to recover.
		logger.Debug("stream copy interrupted",
			logger.String("key", key),
			logger.ErrorField(err))
	}
}

// writeStreamError maps proxy errors onto the range-family status codes.
func (h *StreamHandler) writeStreamError(w http.ResponseWriter, key, rangeHeader string, err error) {
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		http.Error(w, "Object not found", http.StatusNotFound)
	case errors.Is(err, stream.ErrRangeNotSatisfiable):
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	case errors.Is(err, stream.ErrInvalidRange):
		http.Error(w, "Invalid range header", http.StatusBadRequest)
	case errors.Is(err, storage.ErrStoreUnavailable):
		logger.Error("upstream store failure",
			logger.String("key", key),
			logger.String("range", rangeHeader),
			logger.ErrorField(err))
		http.Error(w, "Upstream storage unavailable", http.StatusBadGateway)
	default:
		logger.Error("stream resolution failed",
			logger.String("key", key),
			logger.String("range", rangeHeader),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
