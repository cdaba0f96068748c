package service

import (
	"context"
	"testing"
	"time"

	"onefine/internal/auth"
	"onefine/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(recorder *spyRecorder) AuthService {
	return NewAuthService(
		auth.NewStaticPassword("onefine"),
		auth.NewTokenManager("test-secret", 8*time.Hour),
		recorder,
		zerolog.Nop(),
	)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Correct password issues a verifiable token", func(t *testing.T) {
		recorder := &spyRecorder{}
		svc := newTestAuthService(recorder)

		resp, err := svc.Login(ctx, "onefine")
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.NotEmpty(t, resp.Token)
		assert.WithinDuration(t, time.Now().Add(8*time.Hour), resp.ExpiresAt, time.Minute)

		claims, err := svc.Verify(ctx, resp.Token)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, claims.Role)
		assert.Equal(t, []bool{true}, recorder.logins)
	})

	t.Run("Wrong password issues nothing", func(t *testing.T) {
		recorder := &spyRecorder{}
		svc := newTestAuthService(recorder)

		resp, err := svc.Login(ctx, "wrong")
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, model.ErrUnauthorised)
		assert.Equal(t, "Incorrect password", err.Error())
		assert.Equal(t, []bool{false}, recorder.logins)
	})

	t.Run("Empty password rejected", func(t *testing.T) {
		svc := newTestAuthService(&spyRecorder{})

		_, err := svc.Login(ctx, "")
		assert.ErrorIs(t, err, model.ErrUnauthorised)
	})
}

func TestAuthService_Verify(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(&spyRecorder{})

	foreign, _, err := auth.NewTokenManager("another-secret", time.Hour).Issue(auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Missing token", token: ""},
		{name: "Malformed token", token: "abc"},
		{name: "Different secret", token: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Verify(ctx, tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, model.ErrUnauthorised)
		})
	}
}
