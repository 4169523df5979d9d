package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

type blobOpener interface {
	Open(ctx context.Context, bucket, path string) (io.ReadCloser, domain.BlobInfo, error)
}

// StorageHandler serves public blob downloads for uploaded brand files.
type StorageHandler struct {
	blobs blobOpener
	log   *slog.Logger
}

// NewStorageHandler creates a StorageHandler.
func NewStorageHandler(blobs blobOpener, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{blobs: blobs, log: logger.With("handler", "storage")}
}

// Download handles GET /storage/{bucket}/*.
func (h *StorageHandler) Download(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	path := chi.URLParam(r, "*")

	body, info, err := h.blobs.Open(r.Context(), bucket, path)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "open blob",
			slog.String("bucket", bucket),
			slog.String("path", path),
			slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if info.CacheControl > 0 {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(info.CacheControl))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.WarnContext(r.Context(), "stream blob", slog.String("error", err.Error()))
	}
}
