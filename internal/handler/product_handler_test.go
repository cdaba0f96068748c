package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onefine/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, input model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductService) SeedDefaults(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// withURLParam attaches a chi route parameter to req.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestProductHandler_List(t *testing.T) {
	logger := zerolog.Nop()

	testProducts := []model.Product{
		{ID: "p-2", Name: "Gift Set", Price: "Rs. 12,500", Rating: 5, CreatedAt: time.Now()},
		{ID: "p-1", Name: "Bottle", Price: "Rs. 4,950", Rating: 4, CreatedAt: time.Now().Add(-time.Hour)},
	}

	tests := []struct {
		name           string
		mockReturn     []model.Product
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			mockReturn:     testProducts,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Empty store encodes an empty array",
			mockReturn:     nil,
			expectedStatus: http.StatusOK,
			expectedBody:   "[]\n",
		},
		{
			name:           "Storage failure",
			mockError:      model.StorageError(errors.New("connection refused")),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			if tt.mockError != nil {
				mockService.On("List", mock.Anything).Return(nil, tt.mockError)
			} else if tt.mockReturn == nil {
				mockService.On("List", mock.Anything).Return(nil, nil)
			} else {
				mockService.On("List", mock.Anything).Return(tt.mockReturn, nil)
			}

			handler := NewProductHandler(mockService, logger)
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			w := httptest.NewRecorder()

			handler.List(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			switch {
			case tt.expectedBody != "":
				assert.Equal(t, tt.expectedBody, w.Body.String())
			case tt.mockError != nil:
				assert.Equal(t, model.ErrCodeStorageUnavailable, decodeError(t, w).Code)
			default:
				var got []model.Product
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Len(t, got, len(tt.mockReturn))
				assert.Equal(t, "p-2", got[0].ID)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	created := &model.Product{ID: "p-1", Name: "Bottle", Price: "Rs. 4,950", Rating: 5}

	tests := []struct {
		name           string
		body           string
		expectedInput  *model.ProductInput
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           `{"name":"Bottle","price":"Rs. 4,950"}`,
			expectedInput:  &model.ProductInput{Name: "Bottle", Price: "Rs. 4,950"},
			mockReturn:     created,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Rating and image passed through",
			body:           `{"name":"Bottle","price":"Rs. 4,950","rating":3,"image":"/uploads/1-a.png"}`,
			expectedInput:  &model.ProductInput{Name: "Bottle", Price: "Rs. 4,950", Rating: intPtr(3), Image: "/uploads/1-a.png"},
			mockReturn:     created,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Validation error",
			body:           `{"name":"","price":"Rs. 1"}`,
			expectedInput:  &model.ProductInput{Name: "", Price: "Rs. 1"},
			mockError:      model.NewValidationError("name is required"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
		},
		{
			name:           "Invalid JSON",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Unexpected error is opaque",
			body:           `{"name":"Bottle","price":"Rs. 1"}`,
			expectedInput:  &model.ProductInput{Name: "Bottle", Price: "Rs. 1"},
			mockError:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			if tt.expectedInput != nil {
				if tt.mockError != nil {
					mockService.On("Create", mock.Anything, *tt.expectedInput).Return(nil, tt.mockError)
				} else {
					mockService.On("Create", mock.Anything, *tt.expectedInput).Return(tt.mockReturn, nil)
				}
			}

			handler := NewProductHandler(mockService, logger)
			req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			} else {
				var got model.Product
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, "p-1", got.ID)
			}

			if tt.expectedInput != nil {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_Update(t *testing.T) {
	logger := zerolog.Nop()

	updated := &model.Product{ID: "p-1", Name: "Bottle", Price: "Rs. 5,000", Rating: 5}

	tests := []struct {
		name           string
		id             string
		body           string
		expectedPatch  *model.ProductPatch
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Only present fields are sent",
			id:             "p-1",
			body:           `{"price":"Rs. 5,000"}`,
			expectedPatch:  &model.ProductPatch{Price: strPtr("Rs. 5,000")},
			mockReturn:     updated,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Rating present",
			id:             "p-1",
			body:           `{"rating":7}`,
			expectedPatch:  &model.ProductPatch{Rating: intPtr(7)},
			mockReturn:     updated,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found",
			id:             "missing",
			body:           `{"name":"X"}`,
			expectedPatch:  &model.ProductPatch{Name: strPtr("X")},
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Product not found",
		},
		{
			name:           "Blank name rejected",
			id:             "p-1",
			body:           `{"name":"   "}`,
			expectedPatch:  &model.ProductPatch{Name: strPtr("   ")},
			mockError:      model.NewValidationError("name must not be empty"),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "name must not be empty",
		},
		{
			name:           "Invalid JSON",
			id:             "p-1",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			if tt.expectedPatch != nil {
				if tt.mockError != nil {
					mockService.On("Update", mock.Anything, tt.id, *tt.expectedPatch).Return(nil, tt.mockError)
				} else {
					mockService.On("Update", mock.Anything, tt.id, *tt.expectedPatch).Return(tt.mockReturn, nil)
				}
			}

			handler := NewProductHandler(mockService, logger)
			req := httptest.NewRequest(http.MethodPut, "/api/products/"+tt.id, bytes.NewBufferString(tt.body))
			req = withURLParam(req, "id", tt.id)
			w := httptest.NewRecorder()

			handler.Update(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w).Error)
			} else {
				var got model.Product
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, updated.Price, got.Price)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Delete(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		id             string
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			id:             "p-1",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"Deleted"}`,
		},
		{
			name:           "Not found",
			id:             "p-404",
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Product not found","code":"NOT_FOUND"}`,
		},
		{
			name:           "Storage failure",
			id:             "p-1",
			mockError:      model.StorageError(errors.New("timeout")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Storage unavailable","code":"STORAGE_UNAVAILABLE"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			mockService.On("Delete", mock.Anything, tt.id).Return(tt.mockError)

			handler := NewProductHandler(mockService, logger)
			req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/"+tt.id, nil), "id", tt.id)
			w := httptest.NewRecorder()

			handler.Delete(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
