package model

import "time"

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadResponse carries the URL of a stored image.
type UploadResponse struct {
	URL string `json:"url"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
