package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"onefine/internal/model"
	"onefine/internal/service"
	"onefine/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// UploadField is the multipart form field carrying the image.
const UploadField = "image"

// multipartMemory is the part of a multipart body kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// UploadHandler handles image uploads and serves stored images.
type UploadHandler struct {
	service  service.ImageService
	maxBytes int64
	logger   zerolog.Logger
}

// NewUploadHandler creates a new upload handler. maxBytes caps the request body.
func NewUploadHandler(service service.ImageService, maxBytes int64, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With().Str("handler", "upload").Logger(),
	}
}

// Upload handles POST /api/upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, model.ErrCodeValidation, "Upload exceeds size limit", h.logger)
			return
		}
		writeDomainError(w, model.ErrNoFileProvided, h.logger)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	resp, err := h.service.Upload(r.Context(), file, header.Filename)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Serve handles GET /uploads/{filename}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !upload.ValidName(name) {
		writeError(w, http.StatusNotFound, model.ErrCodeNotFound, "File not found", h.logger)
		return
	}

	rc, err := h.service.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			writeError(w, http.StatusNotFound, model.ErrCodeNotFound, "File not found", h.logger)
			return
		}
		writeDomainError(w, err, h.logger)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn().Err(err).Str("name", name).Msg("failed to stream upload")
	}
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
