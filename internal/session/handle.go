// Package session manages sessions against remote kernel gateways:
// starting them, listing running kernels and available kernel specs,
// and keeping local records of sessions kmux started.
package session

import (
	"context"
	"net/http"

	"github.com/aki/kmux/internal/gateway"
	"github.com/aki/kmux/internal/logger"
)

// ConnectionInfo identifies a kernel gateway. It is supplied by the
// caller and never mutated here.
type ConnectionInfo struct {
	// BaseURL is the HTTP endpoint of the gateway
	BaseURL string
	// Token is the auth token; empty for password-protected or open servers
	Token string
}

// Handle wraps a live connection to one kernel session. It owns the
// gateway session and its channel transport until released. A Handle
// handed out by Adapter.StartSession is always connected; a Handle
// that failed to connect has already been released.
type Handle struct {
	settings gateway.ServerSettings
	spec     *gateway.KernelSpec
	client   *gateway.Client
	// cookies holds the authenticated session cookies for password-based
	// servers; they must also ride along on the channel dial.
	cookies http.CookieJar
	log     logger.Logger

	// allowShutdown permits shutting down the remote kernel on release
	allowShutdown bool
	// reuseKernelID attaches to this kernel instead of launching one
	reuseKernelID string

	session   *gateway.SessionModel
	channels  *gateway.ChannelConn
	connected bool
}

// newHandle builds an unconnected handle bound to the given settings
// and optional kernel spec.
func newHandle(settings gateway.ServerSettings, spec *gateway.KernelSpec, httpClient *http.Client, allowShutdown bool, reuseKernelID string, log logger.Logger) *Handle {
	opts := []gateway.ClientOption{gateway.WithLogger(log)}
	var cookies http.CookieJar
	if httpClient != nil {
		opts = append(opts, gateway.WithHTTPClient(httpClient))
		cookies = httpClient.Jar
	}
	return &Handle{
		settings:      settings,
		spec:          spec,
		client:        gateway.NewClient(settings, opts...),
		cookies:       cookies,
		log:           log,
		allowShutdown: allowShutdown,
		reuseKernelID: reuseKernelID,
	}
}

// IsConnected reports whether the handle holds a live session
func (h *Handle) IsConnected() bool {
	return h.connected
}

// Session returns the gateway session model, or nil before Connect
func (h *Handle) Session() *gateway.SessionModel {
	return h.session
}

// connect establishes the gateway session and its channel transport.
// On any failure the partially-acquired resources are NOT yet released;
// the caller is responsible for calling release.
func (h *Handle) connect(ctx context.Context) error {
	opts := gateway.StartSessionOptions{
		Name: "kmux",
		Path: "kmux.ipynb",
	}
	if h.reuseKernelID != "" {
		opts.KernelID = h.reuseKernelID
	} else if h.spec != nil {
		opts.KernelName = h.spec.Name
	}

	session, err := h.client.StartSession(ctx, opts)
	if err != nil {
		return err
	}
	h.session = session

	channels, err := gateway.ConnectChannels(ctx, h.settings, session.Kernel.ID, session.ID, h.cookies)
	if err != nil {
		return err
	}
	h.channels = channels
	h.connected = true

	h.log.Debug("session handle connected",
		"session_id", session.ID, "kernel_id", session.Kernel.ID)
	return nil
}

// Release tears down whatever the handle acquired: the channel
// transport, the gateway session, and, when permitted and no kernel is
// being reused, the kernel itself. Safe to call on a handle that never
// connected, and idempotent.
func (h *Handle) Release(ctx context.Context) {
	if h.channels != nil {
		if err := h.channels.Close(); err != nil {
			h.log.Debug("failed to close channel transport", "error", err)
		}
		h.channels = nil
	}

	if h.session != nil {
		if err := h.client.DeleteSession(ctx, h.session.ID); err != nil {
			h.log.Debug("failed to delete gateway session", "error", err)
		}
		if h.allowShutdown && h.reuseKernelID == "" && h.session.Kernel.ID != "" {
			if err := h.client.ShutdownKernel(ctx, h.session.Kernel.ID); err != nil {
				h.log.Debug("failed to shut down kernel", "error", err)
			}
		}
		h.session = nil
	}

	h.connected = false
}

// Detach closes the local channel transport but leaves the gateway
// session and its kernel running. Used when the session should outlive
// this process. The handle is not connected afterwards.
func (h *Handle) Detach() *gateway.SessionModel {
	if h.channels != nil {
		if err := h.channels.Close(); err != nil {
			h.log.Debug("failed to close channel transport", "error", err)
		}
		h.channels = nil
	}
	session := h.session
	h.session = nil
	h.connected = false
	return session
}
