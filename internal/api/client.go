// Package api implements the HTTP client for the remote contacts service.
//
// All endpoints speak JSON. Authenticated endpoints require a bearer token,
// which is held as an explicit field on the client rather than ambient
// process-wide state; session operations set and clear it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"phonebook/internal/errs"
	"phonebook/internal/model"
)

// DefaultBaseURL is the hosted backend the client talks to unless configured otherwise.
const DefaultBaseURL = "https://connections-api.goit.global"

// Client issues requests against the contacts API.
// It is safe for concurrent use.
type Client struct {
	base string
	http *http.Client

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom timeouts).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New constructs a Client for the given base URL. An empty base selects
// DefaultBaseURL.
func New(base string, opts ...Option) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken attaches the bearer token to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer token from subsequent requests.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// Token returns the currently attached bearer token ("" if none).
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Signup registers a new user. POST /users/signup.
func (c *Client) Signup(ctx context.Context, name, email, password string) (model.AuthPayload, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out model.AuthPayload
	if err := c.do(ctx, http.MethodPost, "/users/signup", body, &out); err != nil {
		return model.AuthPayload{}, err
	}
	return out, nil
}

// LogIn authenticates an existing user. POST /users/login.
func (c *Client) LogIn(ctx context.Context, email, password string) (model.AuthPayload, error) {
	body := map[string]string{"email": email, "password": password}
	var out model.AuthPayload
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &out); err != nil {
		return model.AuthPayload{}, err
	}
	return out, nil
}

// LogOut invalidates the current token server-side. POST /users/logout.
func (c *Client) LogOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/users/logout", nil, nil)
}

// Current returns the identity behind the attached token. GET /users/current.
func (c *Client) Current(ctx context.Context) (model.Identity, error) {
	var out model.Identity
	if err := c.do(ctx, http.MethodGet, "/users/current", nil, &out); err != nil {
		return model.Identity{}, err
	}
	return out, nil
}

// ListContacts returns the user's contacts in server order. GET /contacts.
func (c *Client) ListContacts(ctx context.Context) ([]model.Contact, error) {
	var out []model.Contact
	if err := c.do(ctx, http.MethodGet, "/contacts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddContact creates a contact and returns it with its server-assigned id.
// POST /contacts.
func (c *Client) AddContact(ctx context.Context, name, number string) (model.Contact, error) {
	body := map[string]string{"name": name, "number": number}
	var out model.Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", body, &out); err != nil {
		return model.Contact{}, err
	}
	return out, nil
}

// DeleteContact removes a contact by id. DELETE /contacts/:id.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/contacts/"+url.PathEscape(id), nil, nil)
}

// do runs one request/response cycle. A nil out discards the response body.
// Connectivity failures wrap errs.ErrTransport; non-2xx statuses become
// *errs.ServerError carrying the server's message when one can be parsed.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errs.ServerError{Status: resp.StatusCode, Message: serverMessage(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverMessage extracts a human-readable message from an error body.
// The backend is not consistent about the shape, so several fields are
// tried; a malformed or empty body yields "".
func serverMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	var body struct {
		Message string            `json:"message"`
		Error   string            `json:"error"`
		Errors  map[string]string `json:"errors"`
	}
	if json.Unmarshal(b, &body) != nil {
		return ""
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "":
		return body.Error
	case len(body.Errors) > 0:
		parts := make([]string, 0, len(body.Errors))
		for _, v := range body.Errors {
			parts = append(parts, v)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
