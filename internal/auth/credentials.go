// Package auth holds the admin credential check and the session token codec.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifier checks an admin password. Implementations decide where
// the secret lives; callers only see match or ErrInvalidCredentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, password string) error
}

// StaticPassword matches against a single shared password.
type StaticPassword struct {
	password []byte
}

// NewStaticPassword creates a verifier for one shared secret.
func NewStaticPassword(password string) *StaticPassword {
	return &StaticPassword{password: []byte(password)}
}

// Verify compares in constant time. An empty password never matches.
func (s *StaticPassword) Verify(_ context.Context, password string) error {
	if password == "" || len(s.password) == 0 {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), s.password) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// BcryptPassword matches against a bcrypt hash of the shared password.
type BcryptPassword struct {
	hash []byte
}

// NewBcryptPassword creates a verifier for a bcrypt hash.
func NewBcryptPassword(hash string) *BcryptPassword {
	return &BcryptPassword{hash: []byte(hash)}
}

// Verify checks the password against the stored hash.
func (b *BcryptPassword) Verify(_ context.Context, password string) error {
	if password == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(b.hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// NewVerifier picks the bcrypt verifier when a hash is configured and falls
// back to the plain shared password otherwise.
func NewVerifier(password, hash string) CredentialVerifier {
	if hash != "" {
		return NewBcryptPassword(hash)
	}
	return NewStaticPassword(password)
}
