package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client S3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Store creates an S3-backed store using the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-store").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 store initialised")

	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewS3StoreWithClient creates a store over an existing client.
func NewS3StoreWithClient(client S3API, bucket, prefix string, logger zerolog.Logger) Store {
	return &s3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Save uploads r under prefix+name. S3 needs the content length up front, so
// a seekable reader is sized in place and anything else is buffered.
func (s *s3Store) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if !ValidName(name) {
		return 0, fmt.Errorf("invalid upload name %q", name)
	}

	body, size, err := sizedBody(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload body: %w", err)
	}

	key := s.prefix + name
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return 0, fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Int64("bytes", size).
		Msg("upload stored in S3")

	return size, nil
}

// sizedBody returns a seekable body and the number of bytes left in it.
func sizedBody(r io.Reader) (io.ReadSeeker, int64, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := rs.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return rs, end - cur, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

// Open fetches prefix+name from the bucket.
func (s *s3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}

	key := s.prefix + name
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	return result.Body, nil
}

// fallbackStore tries S3 first, then the local disk.
type fallbackStore struct {
	primary   Store
	secondary Store
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that writes to primary and falls back to
// secondary when primary fails. Reads try both in the same order.
// If primary is nil only secondary is used.
func NewFallbackStore(primary, secondary Store, logger zerolog.Logger) Store {
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

// Save writes to the primary store. When it fails the body is rewound, or
// buffered up front when it cannot seek, and handed to the secondary.
func (s *fallbackStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if s.primary == nil {
		return s.secondary.Save(ctx, name, r)
	}

	body, _, err := sizedBody(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload body: %w", err)
	}
	start, err := body.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload body: %w", err)
	}

	n, err := s.primary.Save(ctx, name, body)
	if err == nil {
		return n, nil
	}

	s.logger.Warn().
		Err(err).
		Str("name", name).
		Msg("primary store failed, falling back to local disk")

	if _, seekErr := body.Seek(start, io.SeekStart); seekErr != nil {
		return 0, fmt.Errorf("failed to rewind upload body: %w", seekErr)
	}

	return s.secondary.Save(ctx, name, body)
}

// Open tries the primary store, then the secondary.
func (s *fallbackStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.primary != nil {
		rc, err := s.primary.Open(ctx, name)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().
				Err(err).
				Str("name", name).
				Msg("primary store read failed, trying local disk")
		}
	}

	return s.secondary.Open(ctx, name)
}
