package service

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"onefine/internal/model"
	"onefine/internal/upload"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of upload.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	args := m.Called(ctx, name, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func TestImageService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores under generated name", func(t *testing.T) {
		store := upload.NewDiskStore(t.TempDir(), zerolog.Nop())
		recorder := &spyRecorder{}
		svc := NewImageService(store, recorder, zerolog.Nop())

		resp, err := svc.Upload(ctx, strings.NewReader("png-bytes"), "my photo!.png")
		require.NoError(t, err)

		assert.Regexp(t, regexp.MustCompile(`^/uploads/\d+-my_photo_\.png$`), resp.URL)
		assert.Equal(t, []int64{9}, recorder.uploads)

		rc, err := svc.Open(ctx, strings.TrimPrefix(resp.URL, upload.URLPrefix))
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "png-bytes", string(data))
	})

	t.Run("Accepts dotted file names", func(t *testing.T) {
		store := upload.NewDiskStore(t.TempDir(), zerolog.Nop())
		svc := NewImageService(store, nil, zerolog.Nop())

		for _, original := range []string{"photo..png", "...", ".."} {
			resp, err := svc.Upload(ctx, strings.NewReader("img"), original)
			require.NoError(t, err, original)
			assert.Regexp(t, regexp.MustCompile(`^/uploads/\d+-`+regexp.QuoteMeta(original)+`$`), resp.URL)

			rc, err := svc.Open(ctx, strings.TrimPrefix(resp.URL, upload.URLPrefix))
			require.NoError(t, err, original)
			rc.Close()
		}
	})

	t.Run("Uses the injected clock", func(t *testing.T) {
		store := new(MockStore)
		svc := NewImageService(store, nil, zerolog.Nop()).(*imageService)
		svc.now = func() time.Time { return time.UnixMilli(42) }

		store.On("Save", ctx, "42-a.png", mock.Anything).Return(int64(1), nil)

		resp, err := svc.Upload(ctx, strings.NewReader("x"), "a.png")
		require.NoError(t, err)
		assert.Equal(t, "/uploads/42-a.png", resp.URL)
		store.AssertExpectations(t)
	})

	t.Run("No file", func(t *testing.T) {
		svc := NewImageService(new(MockStore), nil, zerolog.Nop())

		resp, err := svc.Upload(ctx, nil, "a.png")
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, model.ErrNoFileProvided)
	})

	t.Run("Store failure", func(t *testing.T) {
		store := new(MockStore)
		store.On("Save", ctx, mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))
		svc := NewImageService(store, nil, zerolog.Nop())

		_, err := svc.Upload(ctx, strings.NewReader("x"), "a.png")
		assert.ErrorIs(t, err, model.ErrStorageUnavailable)
	})
}

func TestImageService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		store := new(MockStore)
		store.On("Open", ctx, "x.png").Return(nil, upload.ErrNotFound)
		svc := NewImageService(store, nil, zerolog.Nop())

		_, err := svc.Open(ctx, "x.png")
		assert.ErrorIs(t, err, upload.ErrNotFound)
	})

	t.Run("Backend failure", func(t *testing.T) {
		store := new(MockStore)
		store.On("Open", ctx, "x.png").Return(nil, errors.New("boom"))
		svc := NewImageService(store, nil, zerolog.Nop())

		_, err := svc.Open(ctx, "x.png")
		assert.ErrorIs(t, err, model.ErrStorageUnavailable)
	})
}
