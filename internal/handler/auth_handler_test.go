package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onefine/internal/auth"
	"onefine/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, password string) (*model.TokenResponse, error) {
	args := m.Called(ctx, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

func TestAuthHandler_Login(t *testing.T) {
	logger := zerolog.Nop()
	expiresAt := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		body           string
		password       string
		mockReturn     *model.TokenResponse
		mockError      error
		expectService  bool
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Correct password",
			body:           `{"password":"secret"}`,
			password:       "secret",
			mockReturn:     &model.TokenResponse{Token: "jwt-token", ExpiresAt: expiresAt},
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Incorrect password",
			body:           `{"password":"wrong"}`,
			password:       "wrong",
			mockError:      model.ErrIncorrectPassword,
			expectService:  true,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Incorrect password",
		},
		{
			name:           "Missing password field",
			body:           `{}`,
			password:       "",
			mockError:      model.ErrIncorrectPassword,
			expectService:  true,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Incorrect password",
		},
		{
			name:           "Invalid JSON",
			body:           `{"password":`,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Incorrect password",
		},
		{
			name:           "Empty body",
			body:           ``,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Incorrect password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			if tt.expectService {
				if tt.mockError != nil {
					mockService.On("Login", mock.Anything, tt.password).Return(nil, tt.mockError)
				} else {
					mockService.On("Login", mock.Anything, tt.password).Return(tt.mockReturn, nil)
				}
			}

			handler := NewAuthHandler(mockService, logger)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w).Error)
			} else {
				var got model.TokenResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, "jwt-token", got.Token)
				assert.True(t, expiresAt.Equal(got.ExpiresAt))
			}

			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
			}
		})
	}
}
