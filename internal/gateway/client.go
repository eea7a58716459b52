package gateway

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

	"github.com/aki/kmux/internal/logger"
)

// Client talks to a kernel gateway over its REST API.
// It holds no session state; every call is a single request.
type Client struct {
	settings ServerSettings
	http     *http.Client
	log      logger.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. Password-authenticated
// servers use this to carry the login cookie jar.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger for the client
func WithLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a gateway client for the given server settings
func NewClient(settings ServerSettings, opts ...ClientOption) *Client {
	c := &Client{
		settings: settings,
		http:     &http.Client{},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiURL joins the base URL with an API path
func (c *Client) apiURL(parts ...string) string {
	base := strings.TrimRight(c.settings.BaseURL, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return base + "/api/" + strings.Join(parts, "/")
}

// do sends a request with auth and cache headers applied and decodes
// the JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h := c.settings.tokenHeader(); h != "" {
		req.Header.Set("Authorization", h)
	}
	req.Header.Set("Cache-Control", string(c.settings.Cache))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{Op: op, URL: rawURL, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}
	return nil
}

// ListKernels returns the kernels currently running on the gateway
func (c *Client) ListKernels(ctx context.Context) ([]KernelModel, error) {
	var kernels []KernelModel
	if err := c.do(ctx, "list kernels", http.MethodGet, c.apiURL("kernels"), nil, &kernels); err != nil {
		return nil, err
	}
	return kernels, nil
}

// GetKernel returns the model for a single running kernel
func (c *Client) GetKernel(ctx context.Context, id string) (*KernelModel, error) {
	var kernel KernelModel
	err := c.do(ctx, "get kernel", http.MethodGet, c.apiURL("kernels", id), nil, &kernel)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return nil, ErrKernelNotFound{ID: id}
		}
		return nil, err
	}
	return &kernel, nil
}

// StartSessionOptions defines options for creating a session on the gateway
type StartSessionOptions struct {
	Name       string // Human-readable session name
	Path       string // Notebook path reported to the gateway
	Type       string // Session type (default: notebook)
	KernelName string // Kernel spec name to launch (ignored when KernelID set)
	KernelID   string // Existing kernel to attach instead of launching one
}

// sessionRequest is the wire shape of POST /api/sessions
type sessionRequest struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Type   string `json:"type"`
	Kernel struct {
		Name string `json:"name,omitempty"`
		ID   string `json:"id,omitempty"`
	} `json:"kernel"`
}

// StartSession creates a session on the gateway, launching a kernel of
// the requested spec or attaching to an existing kernel by ID.
func (c *Client) StartSession(ctx context.Context, opts StartSessionOptions) (*SessionModel, error) {
	req := sessionRequest{
		Name: opts.Name,
		Path: opts.Path,
		Type: opts.Type,
	}
	if req.Type == "" {
		req.Type = "notebook"
	}
	if opts.KernelID != "" {
		req.Kernel.ID = opts.KernelID
	} else {
		req.Kernel.Name = opts.KernelName
	}

	var session SessionModel
	if err := c.do(ctx, "start session", http.MethodPost, c.apiURL("sessions"), req, &session); err != nil {
		return nil, err
	}
	c.log.Debug("session started", "session_id", session.ID, "kernel_id", session.Kernel.ID)
	return &session, nil
}

// DeleteSession removes a session from the gateway. The backing kernel
// is shut down by the gateway unless other sessions share it.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, "delete session", http.MethodDelete, c.apiURL("sessions", id), nil, nil)
}

// ShutdownKernel stops a running kernel on the gateway
func (c *Client) ShutdownKernel(ctx context.Context, id string) error {
	err := c.do(ctx, "shutdown kernel", http.MethodDelete, c.apiURL("kernels", id), nil, nil)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return ErrKernelNotFound{ID: id}
		}
		return err
	}
	return nil
}
