// Package api is a small HTTP client for the tracker API used by the CLI.
// Calls are never retried; every call takes a context.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("server unavailable")
)

// Error is a non-2xx response. It unwraps to one of the sentinel errors
// above when the status has one.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= 500:
		return ErrUnavailable
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout). cmd/tracker uses
// it to apply TRACKER_TIMEOUT.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client rooted at baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type userEnvelope struct {
	User *domain.User `json:"user"`
}

type loginEnvelope struct {
	Token string `json:"token"`
}

// Register creates an account. A taken email yields ErrConflict.
func (c *Client) Register(ctx context.Context, email, password, username string) (*domain.User, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/auth/register", "", credentials{Email: email, Password: password, Username: username}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", credentials{Email: email, Password: password}, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("api: login response carried no token")
	}
	return out.Token, nil
}

// Me returns the account behind token.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("api: me response carried no user")
	}
	return out.User, nil
}

func (c *Client) Projects(ctx context.Context, token string) ([]domain.Project, error) {
	var out []domain.Project
	if err := c.do(ctx, http.MethodGet, "/projects", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Tasks(ctx context.Context, token string) ([]domain.Task, error) {
	var out []domain.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope)
		return &Error{Status: resp.StatusCode, Message: envelope.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}
