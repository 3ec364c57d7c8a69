package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"aroma-shop/internal/media"
	"aroma-shop/internal/metrics"
	"aroma-shop/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultMediaFolder = "uploads"

var (
	imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/avif"}

	keySegment = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// mediaService implements MediaService.
type mediaService struct {
	store    media.Store
	maxBytes int64
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewMediaService creates a media service that accepts images up to maxBytes.
func NewMediaService(store media.Store, maxBytes int64, m *metrics.Metrics, logger zerolog.Logger) MediaService {
	return &mediaService{
		store:    store,
		maxBytes: maxBytes,
		metrics:  m,
		logger:   logger.With().Str("service", "media").Logger(),
	}
}

// Upload sniffs the content type, rejects anything that is not a raster image, and stores
// the file under <folder>/<uuid>.<ext>. The returned public id is that key.
func (s *mediaService) Upload(ctx context.Context, folder string, file io.Reader) (_ *model.Image, err error) {
	defer func() { s.metrics.Media("upload", err) }()

	if folder == "" {
		folder = defaultMediaFolder
	}
	folder, ok := cleanKey(folder)
	if !ok {
		return nil, model.ErrValidation.WithMessage("folder must be a relative path of letters, digits, '.', '_' or '-'")
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, model.ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return nil, model.ErrValidation.WithMessage("file is empty")
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), imageTypes...) {
		s.logger.Warn().Str("detected", mtype.String()).Msg("rejected non-image upload")
		return nil, model.ErrUnsupportedMedia.WithMessage(fmt.Sprintf("Only image uploads are accepted, got %s", mtype.String()))
	}

	publicID := folder + "/" + uuid.NewString() + mtype.Extension()
	url, err := s.store.Put(ctx, publicID, mtype.String(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.logger.Error().Err(err).Str("public_id", publicID).Msg("failed to store image")
		return nil, model.ErrStorageUnavailable.Wrap(err)
	}

	s.logger.Info().
		Str("public_id", publicID).
		Str("content_type", mtype.String()).
		Int("size", len(data)).
		Msg("image uploaded")

	return &model.Image{
		PublicID: publicID,
		URL:      url,
		Format:   strings.TrimPrefix(mtype.Extension(), "."),
	}, nil
}

// Delete removes a previously uploaded image.
func (s *mediaService) Delete(ctx context.Context, publicID string) (err error) {
	defer func() { s.metrics.Media("delete", err) }()

	key, ok := cleanKey(publicID)
	if !ok {
		return model.ErrImageNotFound
	}

	if err := s.store.Delete(ctx, key); err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return model.ErrImageNotFound
		}
		s.logger.Error().Err(err).Str("public_id", key).Msg("failed to delete image")
		return model.ErrStorageUnavailable.Wrap(err)
	}

	s.logger.Info().Str("public_id", key).Msg("image deleted")
	return nil
}

// cleanKey trims surrounding slashes and rejects empty, dot-only or unusual segments.
func cleanKey(key string) (string, bool) {
	key = strings.Trim(key, "/")
	if key == "" {
		return "", false
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "." || segment == ".." || !keySegment.MatchString(segment) {
			return "", false
		}
	}
	return key, true
}
