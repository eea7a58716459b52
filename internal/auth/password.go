// Package auth resolves credentials for password-protected kernel
// gateways. Token-authenticated servers need none of this; the token
// rides along in the Authorization header instead.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/aki/kmux/internal/logger"
)

// xsrfCookie is the cross-site request forgery cookie the notebook
// server issues on the login page and expects back in the form post.
const xsrfCookie = "_xsrf"

// PasswordLogin performs the notebook server login dance: fetch the
// login page for the XSRF cookie, then post the password form. The
// returned HTTP client carries the resulting session cookies.
type PasswordLogin struct {
	password string
	log      logger.Logger
}

// NewPasswordLogin creates a password-connect collaborator
func NewPasswordLogin(password string, log logger.Logger) *PasswordLogin {
	if log == nil {
		log = logger.Nop()
	}
	return &PasswordLogin{password: password, log: log}
}

// Connect logs in to the server at baseURL and returns an HTTP client
// whose cookie jar holds the authenticated session.
func (p *PasswordLogin) Connect(ctx context.Context, baseURL string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar}

	loginURL := strings.TrimRight(baseURL, "/") + "/login"

	xsrf, err := p.fetchXSRF(ctx, client, loginURL)
	if err != nil {
		return nil, err
	}

	if err := p.postPassword(ctx, client, loginURL, xsrf); err != nil {
		return nil, err
	}

	p.log.Debug("password login succeeded", "url", baseURL)
	return client, nil
}

// fetchXSRF loads the login page and extracts the XSRF cookie
func (p *PasswordLogin) fetchXSRF(ctx context.Context, client *http.Client, loginURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch login page: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", ErrLoginUnavailable{BaseURL: loginURL}
	}

	for _, c := range resp.Cookies() {
		if c.Name == xsrfCookie {
			return c.Value, nil
		}
	}
	// Older servers skip the XSRF cookie; the form post goes out bare.
	return "", nil
}

// postPassword submits the login form and verifies a session cookie
// came back.
func (p *PasswordLogin) postPassword(ctx context.Context, client *http.Client, loginURL, xsrf string) error {
	form := url.Values{}
	form.Set("password", p.password)
	if xsrf != "" {
		form.Set(xsrfCookie, xsrf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create login form request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post login form: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ErrPasswordRejected{BaseURL: loginURL}
	}

	// A successful login sets a session cookie beyond the XSRF one.
	u, err := url.Parse(loginURL)
	if err != nil {
		return fmt.Errorf("failed to parse login URL: %w", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name != xsrfCookie {
			return nil
		}
	}
	return ErrPasswordRejected{BaseURL: loginURL}
}
