package handler

import (
	"errors"
	"net/http"

	"aroma-shop/internal/model"
	"aroma-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// multipartOverhead allows for form boundaries and the folder field on top of the file.
const multipartOverhead = 1 << 20

// MediaHandler handles image uploads for the catalogue.
type MediaHandler struct {
	service  service.MediaService
	maxBytes int64
	logger   zerolog.Logger
}

// NewMediaHandler creates a new media handler accepting files up to maxBytes.
func NewMediaHandler(service service.MediaService, maxBytes int64, logger zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With().Str("handler", "media").Logger(),
	}
}

// Upload handles POST /media/images (multipart "file" and optional "folder").
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, r, model.ErrPayloadTooLarge.Wrap(err), h.logger)
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, r, model.ErrValidation.WithMessage("file is required"), h.logger)
		default:
			writeError(w, r, model.ErrValidation.WithMessage("request must be multipart/form-data").Wrap(err), h.logger)
		}
		return
	}
	defer file.Close()

	image, err := h.service.Upload(r.Context(), r.FormValue("folder"), file)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, image)
}

// Delete handles DELETE /media/images/{public_id...}.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "*")); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
