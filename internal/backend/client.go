// Package backend is the REST client for the storefront backend. Every
// endpoint answers with a {success, data, error} envelope; transport
// failures, non-success envelopes and undecodable bodies all come back as
// coded errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

const (
	defaultTimeout          = 10 * time.Second
	responseBodyLimit int64 = 4 << 20
	errorBodyLimit    int64 = 1024
	requestIDHeader         = "X-Request-ID"
)

var errBaseURLRequired = errors.New("backend base url is required")

// TokenSource supplies the bearer credential for authenticated calls.
type TokenSource interface {
	Credential(ctx context.Context) (string, bool, error)
}

// Client talks to the storefront backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithTokenSource attaches the credential store used for the Authorization
// header.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// call performs one request and decodes the envelope's data into T.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T
	if c == nil {
		return zero, pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(ctx, req); err != nil {
		return zero, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response")
	}

	var envelope types.BackendEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return zero, statusError(resp.StatusCode, "", raw)
		}
		return zero, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decode envelope")
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Success {
		message := ""
		if envelope.Error != nil {
			message = envelope.Error.Message
		}
		return zero, statusError(resp.StatusCode, message, raw)
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return zero, nil
	}
	var data T
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return zero, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decode data")
	}
	return data, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, found, err := c.tokens.Credential(ctx)
	if err != nil {
		return err
	}
	if found {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// statusError maps a failed response onto the error taxonomy. The backend's
// own message is kept as the error message.
func statusError(status int, message string, raw []byte) error {
	message = strings.TrimSpace(message)
	if message == "" {
		body := raw
		if int64(len(body)) > errorBodyLimit {
			body = body[:errorBodyLimit]
		}
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	if status < http.StatusBadRequest {
		// 2xx with success=false
		return pkgerrors.New(pkgerrors.CodeDependency, message).WithDetails(map[string]any{"status": status})
	}

	code := pkgerrors.CodeDependency
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"status": status})
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
