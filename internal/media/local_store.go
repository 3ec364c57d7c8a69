package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// localStore implements Store on a directory.
type localStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewLocalStore creates a store rooted at dir. URLs are baseURL joined with the key.
func NewLocalStore(dir, baseURL string, logger zerolog.Logger) Store {
	return &localStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "local-media-store").Logger(),
	}
}

func (s *localStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

func (s *localStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create media directory")
		return "", fmt.Errorf("failed to create media directory for %s: %w", key, err)
	}

	file, err := os.Create(path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create media file")
		return "", fmt.Errorf("failed to create media file %s: %w", key, err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write media file %s: %w", key, err)
	}

	s.logger.Info().Str("file", path).Int64("size", written).Msg("image stored on local file system")
	return s.baseURL + "/" + key, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	path := s.path(key)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		s.logger.Error().Err(err).Str("file", path).Msg("failed to delete media file")
		return fmt.Errorf("failed to delete media file %s: %w", key, err)
	}

	s.logger.Info().Str("file", path).Msg("image deleted from local file system")
	return nil
}
