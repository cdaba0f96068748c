package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"onefine/internal/metrics"
	"onefine/internal/model"
	"onefine/internal/upload"

	"github.com/rs/zerolog"
)

// imageService implements ImageService over an upload.Store.
type imageService struct {
	store   upload.Store
	metrics metrics.Recorder
	now     func() time.Time
	logger  zerolog.Logger
}

// NewImageService creates a new image service.
func NewImageService(store upload.Store, recorder metrics.Recorder, logger zerolog.Logger) ImageService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &imageService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
		logger:  logger.With().Str("service", "image").Logger(),
	}
}

// Upload stores r under "<millis>-<sanitized name>". Content is not inspected.
func (s *imageService) Upload(ctx context.Context, r io.Reader, originalName string) (*model.UploadResponse, error) {
	if r == nil {
		return nil, model.ErrNoFileProvided
	}

	name := upload.StoredName(s.now(), originalName)

	written, err := s.store.Save(ctx, name, r)
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to store upload")
		return nil, model.StorageError(err)
	}

	s.metrics.RecordUpload(written)
	s.logger.Info().
		Str("name", name).
		Str("original_name", originalName).
		Int64("bytes", written).
		Msg("image uploaded")

	return &model.UploadResponse{URL: upload.URLFor(name)}, nil
}

// Open returns a stored image.
func (s *imageService) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := s.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			return nil, upload.ErrNotFound
		}
		s.logger.Error().Err(err).Str("name", name).Msg("failed to open upload")
		return nil, fmt.Errorf("failed to open upload: %w", model.StorageError(err))
	}
	return rc, nil
}
