package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aki/kmux/internal/logger"
)

// SpecManager fetches and caches kernel specifications from a gateway.
// It is a transient collaborator: create it, refresh, read the specs,
// then dispose. Dispose must be called exactly once.
type SpecManager struct {
	settings    ServerSettings
	http        *http.Client
	log         logger.Logger
	specs       []KernelSpec
	defaultName string
	disposed    bool
}

// NewSpecManager creates a spec manager with its own HTTP client so
// that disposal can release the connections it opened.
func NewSpecManager(settings ServerSettings, log logger.Logger) *SpecManager {
	if log == nil {
		log = logger.Nop()
	}
	return &SpecManager{
		settings: settings,
		http:     &http.Client{},
		log:      log,
	}
}

// RefreshSpecs fetches the kernel spec list from the gateway, replacing
// any previously cached specs.
func (m *SpecManager) RefreshSpecs(ctx context.Context) error {
	if m.disposed {
		return ErrSpecManagerDisposed{}
	}

	rawURL := m.settings.BaseURL + "/api/kernelspecs"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("refresh specs: failed to create request: %w", err)
	}
	if h := m.settings.tokenHeader(); h != "" {
		req.Header.Set("Authorization", h)
	}
	req.Header.Set("Cache-Control", string(m.settings.Cache))

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("refresh specs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{Op: "refresh specs", URL: rawURL, StatusCode: resp.StatusCode}
	}

	defaultName, specs, err := parseKernelSpecs(resp.Body)
	if err != nil {
		return fmt.Errorf("refresh specs: %w", err)
	}

	m.defaultName = defaultName
	m.specs = specs
	m.log.Debug("kernel specs refreshed", "count", len(specs), "default", defaultName)
	return nil
}

// Specs returns the cached kernel specs in the order the gateway listed them
func (m *SpecManager) Specs() []KernelSpec {
	return m.specs
}

// DefaultSpecName returns the gateway's default kernel spec name
func (m *SpecManager) DefaultSpecName() string {
	return m.defaultName
}

// Dispose releases the manager's HTTP resources. The manager cannot be
// used afterwards.
func (m *SpecManager) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.specs = nil
	m.http.CloseIdleConnections()
}

// parseKernelSpecs decodes a GET /api/kernelspecs response. The
// kernelspecs object is walked token by token so that the returned
// slice preserves the gateway's key order, which encoding a map would
// lose.
func parseKernelSpecs(r io.Reader) (string, []KernelSpec, error) {
	var envelope struct {
		Default     string          `json:"default"`
		Kernelspecs json.RawMessage `json:"kernelspecs"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return "", nil, fmt.Errorf("failed to decode kernelspecs response: %w", err)
	}
	if len(envelope.Kernelspecs) == 0 {
		return envelope.Default, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Kernelspecs))
	tok, err := dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read kernelspecs object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", nil, fmt.Errorf("kernelspecs is not an object")
	}

	var specs []KernelSpec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", nil, fmt.Errorf("failed to read kernelspec key: %w", err)
		}
		key, _ := keyTok.(string)

		var entry specEntry
		if err := dec.Decode(&entry); err != nil {
			return "", nil, fmt.Errorf("failed to decode kernelspec %q: %w", key, err)
		}
		specs = append(specs, entry.toKernelSpec(key))
	}
	return envelope.Default, specs, nil
}
