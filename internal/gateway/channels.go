package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/websocket"
)

// ChannelConn is a live WebSocket connection to a kernel's channels
// endpoint. Closing it releases the transport.
type ChannelConn struct {
	conn *websocket.Conn
}

// ConnectChannels opens the WebSocket channel transport for a kernel.
// The session ID identifies this client to the kernel's message router.
// jar, when non-nil, supplies the authenticated session cookies for the
// handshake; password-protected gateways reject the dial without them.
func ConnectChannels(ctx context.Context, settings ServerSettings, kernelID, sessionID string, jar http.CookieJar) (*ChannelConn, error) {
	wsURL := fmt.Sprintf("%s/api/kernels/%s/channels?session_id=%s",
		settings.WSURL, url.PathEscape(kernelID), url.QueryEscape(sessionID))

	origin := settings.BaseURL
	if origin == "" {
		origin = "http://localhost"
	}

	cfg, err := websocket.NewConfig(wsURL, origin)
	if err != nil {
		return nil, fmt.Errorf("connect channels: invalid websocket URL: %w", err)
	}
	if h := settings.tokenHeader(); h != "" {
		cfg.Header.Set("Authorization", h)
	}
	if jar != nil {
		if base, err := url.Parse(settings.BaseURL); err == nil {
			if cookies := jar.Cookies(base); len(cookies) > 0 {
				pairs := make([]string, 0, len(cookies))
				for _, c := range cookies {
					pairs = append(pairs, c.Name+"="+c.Value)
				}
				cfg.Header.Set("Cookie", strings.Join(pairs, "; "))
			}
		}
	}

	type dialResult struct {
		conn *websocket.Conn
		err  error
	}
	// websocket.DialConfig has no context support; dial in a goroutine
	// and close the connection if the context wins.
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := websocket.DialConfig(cfg)
		ch <- dialResult{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, fmt.Errorf("connect channels: %w", ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("connect channels: %w", res.err)
		}
		return &ChannelConn{conn: res.conn}, nil
	}
}

// Send writes a JSON message to the channel
func (c *ChannelConn) Send(v any) error {
	return websocket.JSON.Send(c.conn, v)
}

// Receive reads a JSON message from the channel
func (c *ChannelConn) Receive(v any) error {
	return websocket.JSON.Receive(c.conn, v)
}

// Close shuts down the WebSocket connection
func (c *ChannelConn) Close() error {
	return c.conn.Close()
}
