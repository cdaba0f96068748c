package service

import (
	"context"
	"errors"
	"fmt"

	"onefine/internal/auth"
	"onefine/internal/metrics"
	"onefine/internal/model"

	"github.com/rs/zerolog"
)

// authService implements AuthService with one admin role.
type authService struct {
	verifier auth.CredentialVerifier
	tokens   *auth.TokenManager
	metrics  metrics.Recorder
	logger   zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(verifier auth.CredentialVerifier, tokens *auth.TokenManager, recorder metrics.Recorder, logger zerolog.Logger) AuthService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &authService{
		verifier: verifier,
		tokens:   tokens,
		metrics:  recorder,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// Login issues an admin token when the password matches.
func (s *authService) Login(ctx context.Context, password string) (*model.TokenResponse, error) {
	if err := s.verifier.Verify(ctx, password); err != nil {
		s.metrics.RecordLogin(false)
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error().Err(err).Msg("credential check failed")
		}
		s.logger.Warn().Msg("admin login rejected")
		return nil, model.ErrIncorrectPassword
	}

	token, expiresAt, err := s.tokens.Issue(auth.RoleAdmin)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordLogin(true)
	s.logger.Info().Time("expires_at", expiresAt).Msg("admin login succeeded")

	return &model.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Verify checks a session token.
func (s *authService) Verify(_ context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, model.ErrUnauthorised
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("token rejected")
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}
