// Package gateway implements the client side of a Jupyter-compatible
// kernel gateway: running-kernel enumeration, kernel spec discovery,
// session creation, and the WebSocket channel transport.
package gateway

// CachePolicy controls response caching for gateway requests
type CachePolicy string

// CredentialsPolicy controls when credentials accompany gateway requests
type CredentialsPolicy string

const (
	// CacheNoStore disables caching of gateway responses
	CacheNoStore CachePolicy = "no-store"
	// CredentialsSameOrigin sends credentials only to the gateway origin
	CredentialsSameOrigin CredentialsPolicy = "same-origin"
)

// ServerSettings is the resolved set of transport parameters needed to
// reach a kernel gateway. It is derived per call and never persisted.
type ServerSettings struct {
	// BaseURL is the HTTP endpoint of the gateway, e.g. "http://host:8888"
	BaseURL string
	// PageURL is the notebook page URL; kmux has no page, so it stays empty
	PageURL string
	// WSURL is the WebSocket endpoint derived from BaseURL
	WSURL string
	// Token is the gateway auth token; empty for unauthenticated servers
	Token string
	// Cache is the response cache policy
	Cache CachePolicy
	// Credentials is the credential propagation policy
	Credentials CredentialsPolicy
}

// tokenHeader returns the Authorization header value for the settings,
// or an empty string when no token is configured.
func (s ServerSettings) tokenHeader() string {
	if s.Token == "" {
		return ""
	}
	return "token " + s.Token
}
