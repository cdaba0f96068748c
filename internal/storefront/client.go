// Package storefront is the client side of the catalogue: a typed HTTP client
// for the API and a local product view kept in step with it.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"onefine/internal/model"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// Client talks to the catalogue API. Mutating calls take the session token
// explicitly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "storefront-client").Logger()
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProducts fetches the full catalogue.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", "", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// Login exchanges the admin password for a session token.
func (c *Client) Login(ctx context.Context, password string) (*model.TokenResponse, error) {
	var resp model.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", model.LoginRequest{Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateProduct adds a product.
func (c *Client) CreateProduct(ctx context.Context, token string, input model.ProductInput) (*model.Product, error) {
	var product model.Product
	if err := c.doJSON(ctx, http.MethodPost, "/api/products", token, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies a partial update; nil patch fields are not sent.
func (c *Client) UpdateProduct(ctx context.Context, token, id string, patch model.ProductPatch) (*model.Product, error) {
	var product model.Product
	if err := c.doJSON(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), token, patch, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	var resp model.MessageResponse
	return c.doJSON(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), token, nil, &resp)
}

// UploadImage sends r as the multipart "image" field and returns the stored
// image URL as reported by the server.
func (c *Client) UploadImage(ctx context.Context, token, filename string, r io.Reader) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", token, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp model.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// ResolveURL turns a server-relative image URL into an absolute one.
func (c *Client) ResolveURL(imageURL string) string {
	if strings.HasPrefix(imageURL, "/") {
		return c.baseURL + imageURL
	}
	return imageURL
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("request failed")
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody model.ErrorResponse
		if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
			if json.Unmarshal(raw, &errBody) == nil {
				apiErr.Code = errBody.Code
				apiErr.Message = errBody.Error
			}
		}
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("error", apiErr.Message).
			Msg("api error")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
