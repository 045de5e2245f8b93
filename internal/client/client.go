// Package client talks to the inventory HTTP API and keeps a locally
// reconciled copy of the product list for interactive front-ends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"inventory-service/internal/domain"
	"inventory-service/internal/inventory"
)

// RemoteError is a request the server answered with a failure.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("client: server returned %d: %s", e.StatusCode, e.Message)
}

// Client is a typed client for /api/v1. It keeps the session cookie.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API served at baseURL. A nil httpClient gets
// a default one with a cookie jar.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}, nil
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("client: failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out. Failed mutation
// results and error bodies become *RemoteError.
func (c *Client) do(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("client: failed to read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return remoteError(res.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

func remoteError(code int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			message = payload.Message
		case payload.Error != "":
			message = payload.Error
		}
	}
	if message == "" {
		message = http.StatusText(code)
	}
	return &RemoteError{StatusCode: code, Message: message}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// mutate sends a mutation and turns an unsuccessful result into an error.
func (c *Client) mutate(ctx context.Context, method, path string, payload any) (domain.Result, error) {
	var result domain.Result
	if err := c.sendJSON(ctx, method, path, payload, &result); err != nil {
		return result, err
	}
	if !result.Success {
		return result, &RemoteError{StatusCode: http.StatusOK, Message: result.Message}
	}
	return result, nil
}

// --- Session ---

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	payload := map[string]string{"email": email, "password": password}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/v1/auth/sign-in", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.mutate(ctx, http.MethodPost, "/api/v1/auth/sign-out", nil)
	return err
}

func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/api/v1/auth/profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Reads ---

func (c *Client) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	var products []*domain.Product
	if err := c.getJSON(ctx, "/api/v1/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.getJSON(ctx, "/api/v1/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) ListImages(ctx context.Context) ([]string, error) {
	var urls []string
	if err := c.getJSON(ctx, "/api/v1/images", &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// --- Mutations ---

// AddProduct posts the add-product form and returns the created product.
func (c *Client) AddProduct(ctx context.Context, in inventory.AddProductInput) (*domain.Product, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"title":       in.Title,
		"category_id": strconv.FormatInt(in.CategoryID, 10),
	}
	if existing, ok := in.Image.(domain.ExistingImage); ok && existing.URL != "" {
		fields["image_url"] = existing.URL
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("client: failed to write form: %w", err)
		}
	}
	if upload, ok := in.Image.(domain.UploadedImage); ok && upload.Content != nil {
		part, err := mw.CreateFormFile("image", upload.Filename)
		if err != nil {
			return nil, fmt.Errorf("client: failed to write form: %w", err)
		}
		if _, err := io.Copy(part, upload.Content); err != nil {
			return nil, fmt.Errorf("client: failed to read image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: failed to write form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/products", &body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var result domain.Result
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &RemoteError{StatusCode: http.StatusOK, Message: result.Message}
	}
	return result.Product, nil
}

func (c *Client) ToggleFlag(ctx context.Context, id int64, kind domain.ToggleKind, current bool) error {
	payload := map[string]any{"kind": kind, "current": current}
	_, err := c.mutate(ctx, http.MethodPost, "/api/v1/products/"+strconv.FormatInt(id, 10)+"/toggle", payload)
	return err
}

func (c *Client) ClearCart(ctx context.Context, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	_, err := c.mutate(ctx, http.MethodPost, "/api/v1/cart/clear", map[string]any{"ids": ids})
	return err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	_, err := c.mutate(ctx, http.MethodDelete, "/api/v1/products/"+strconv.FormatInt(id, 10), nil)
	return err
}
