package media

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

// fallbackStore writes to S3 when it is enabled and reachable, and to the local
// directory otherwise.
type fallbackStore struct {
	s3Store    Store
	localStore Store
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then falls back to the local
// file system. If s3Store is nil, only the local store is used.
func NewFallbackStore(s3Store, localStore Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:    s3Store,
		localStore: localStore,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "fallback-media-store").Logger(),
	}
}

func (s *fallbackStore) useS3() bool {
	return s.s3Enabled && s.s3Store != nil
}

// Put needs a seekable body to retry locally after a failed S3 upload.
func (s *fallbackStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if s.useS3() {
		url, err := s.s3Store.Put(ctx, key, contentType, body, size)
		if err == nil {
			return url, nil
		}

		seeker, ok := body.(io.Seeker)
		if !ok {
			return "", err
		}
		if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
			return "", errors.Join(err, seekErr)
		}

		s.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("failed to store in S3, falling back to local file system")
	}

	return s.localStore.Put(ctx, key, contentType, body, size)
}

// Delete removes the object from S3 and from the local directory, since earlier uploads
// may have fallen back to either.
func (s *fallbackStore) Delete(ctx context.Context, key string) error {
	if !s.useS3() {
		return s.localStore.Delete(ctx, key)
	}

	s3Err := s.s3Store.Delete(ctx, key)
	localErr := s.localStore.Delete(ctx, key)

	switch {
	case s3Err == nil || localErr == nil:
		if s3Err != nil && !errors.Is(s3Err, ErrNotFound) {
			s.logger.Warn().Err(s3Err).Str("key", key).Msg("S3 delete failed, removed local copy")
		}
		return nil
	case errors.Is(s3Err, ErrNotFound) && errors.Is(localErr, ErrNotFound):
		return ErrNotFound
	case errors.Is(s3Err, ErrNotFound):
		return localErr
	default:
		return s3Err
	}
}
