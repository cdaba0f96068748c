package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// diskStore implements Store on a local directory.
type diskStore struct {
	dir    string
	logger zerolog.Logger
}

// NewDiskStore creates a store rooted at dir. The directory is created on first save.
func NewDiskStore(dir string, logger zerolog.Logger) Store {
	return &diskStore{
		dir:    dir,
		logger: logger.With().Str("component", "disk-store").Logger(),
	}
}

// Save writes the file exclusively; an existing name is never overwritten.
func (s *diskStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if !ValidName(name) {
		return 0, fmt.Errorf("invalid upload name %q", name)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create upload directory")
		return 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.dir, name)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%w: %s", ErrExists, name)
		}
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create upload file")
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	written, err := io.Copy(file, contextReader{ctx: ctx, r: r})
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write upload file")
		return 0, fmt.Errorf("failed to write upload file: %w", err)
	}

	s.logger.Info().
		Str("file", path).
		Int64("bytes", written).
		Msg("upload stored on disk")

	return written, nil
}

// Open returns the stored file.
func (s *diskStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}

	file, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open upload file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat upload file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, ErrNotFound
	}

	return file, nil
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
