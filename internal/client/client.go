package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/homely/homely/internal/model"
)

var ErrNoToken = errors.New("bearer token is required")

// APIError is returned for any non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the Homely REST backend.
type Client struct {
	http *resty.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	return &Client{http: rc}
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// check converts transport failures and error statuses into errors.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}

// Login authenticates with email, password and role.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var out model.AuthResponse
	resp, err := c.request(ctx, "").SetBody(creds).SetResult(&out).Post("/api/auth/login")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns the same shape as Login.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResponse, error) {
	var out model.AuthResponse
	resp, err := c.request(ctx, "").SetBody(reg).SetResult(&out).Post("/api/auth/register")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser resolves the user behind token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.CurrentUser, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out model.CurrentUser
	resp, err := c.request(ctx, token).SetResult(&out).Get("/api/auth/me")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.request(ctx, token).Post("/api/auth/logout")
	return check(resp, err)
}

// Cart returns the cart API bound to token.
func (c *Client) Cart(token string) *CartAPI {
	return &CartAPI{client: c, token: token}
}
