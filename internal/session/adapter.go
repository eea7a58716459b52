package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/aki/kmux/internal/config"
	"github.com/aki/kmux/internal/gateway"
	"github.com/aki/kmux/internal/logger"
)

// PasswordConnector resolves credentials for password-protected
// gateways. Implemented by auth.PasswordLogin.
type PasswordConnector interface {
	// Connect logs in to the server and returns an HTTP client
	// carrying the authenticated session cookies.
	Connect(ctx context.Context, baseURL string) (*http.Client, error)
}

// Adapter is the session-lifecycle front door: it starts kernel
// sessions, lists running kernels, and enumerates kernel specs against
// a remote gateway. It keeps no state between calls; every operation
// works on its own transient client.
type Adapter struct {
	datascience config.DataScience
	password    PasswordConnector
	log         logger.Logger
}

// NewAdapter creates an adapter. password may be nil when every target
// gateway uses token or open auth.
func NewAdapter(datascience config.DataScience, password PasswordConnector, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{
		datascience: datascience,
		password:    password,
		log:         log,
	}
}

// StartSession starts a kernel session on the gateway described by
// info, launching a kernel of the given spec unless the configuration
// pins a kernel ID to reuse. The returned handle is connected. If the
// connect attempt fails or ctx is cancelled, every partially-acquired
// resource is released before the error is returned.
func (a *Adapter) StartSession(ctx context.Context, info ConnectionInfo, spec *gateway.KernelSpec) (*Handle, error) {
	settings := a.deriveServerSettings(info)

	var httpClient *http.Client
	if a.password != nil && info.Token == "" {
		client, err := a.password.Connect(ctx, info.BaseURL)
		if err != nil {
			return nil, &ErrConnectionFailed{BaseURL: info.BaseURL, Err: err}
		}
		httpClient = client
	}

	handle := newHandle(settings, spec, httpClient,
		a.datascience.AllowKernelShutdown, a.datascience.PreferredKernelID, a.log)

	// Whatever happens below, a handle that did not end up connected
	// must not escape with resources still held. Release uses a
	// non-cancellable context so cleanup survives ctx cancellation.
	defer func() {
		if !handle.IsConnected() {
			handle.Release(context.WithoutCancel(ctx))
		}
	}()

	if err := handle.connect(ctx); err != nil {
		return nil, &ErrConnectionFailed{BaseURL: info.BaseURL, Err: err}
	}
	return handle, nil
}

// ListActiveKernels returns the kernels currently running on the
// gateway. Errors from the gateway client propagate unchanged.
func (a *Adapter) ListActiveKernels(ctx context.Context, info ConnectionInfo) ([]gateway.KernelModel, error) {
	settings := a.deriveServerSettings(info)
	client := gateway.NewClient(settings, gateway.WithLogger(a.log))
	return client.ListKernels(ctx)
}

// ListActiveKernelSpecs returns the kernel specs the gateway offers, in
// the order the gateway lists them. Enumeration is best-effort: any
// failure yields an empty result, never an error.
func (a *Adapter) ListActiveKernelSpecs(ctx context.Context, info ConnectionInfo) []gateway.KernelSpec {
	specs, _ := a.ListActiveKernelSpecsWithDefault(ctx, info)
	return specs
}

// ListActiveKernelSpecsWithDefault is ListActiveKernelSpecs plus the
// gateway's default spec name, empty on failure. The transient spec
// manager is disposed on every path.
func (a *Adapter) ListActiveKernelSpecsWithDefault(ctx context.Context, info ConnectionInfo) ([]gateway.KernelSpec, string) {
	settings := a.deriveServerSettings(info)
	manager := gateway.NewSpecManager(settings, a.log)
	defer manager.Dispose()

	if err := manager.RefreshSpecs(ctx); err != nil {
		a.log.Debug("kernel spec enumeration failed", "url", info.BaseURL, "error", err)
		return nil, ""
	}
	return manager.Specs(), manager.DefaultSpecName()
}

// deriveServerSettings maps connection info to the transport settings
// the gateway client needs.
func (a *Adapter) deriveServerSettings(info ConnectionInfo) gateway.ServerSettings {
	return gateway.ServerSettings{
		BaseURL: info.BaseURL,
		PageURL: "",
		// The scheme rewrite replaces only the first "http" in the
		// string: "http://" becomes "ws://" and "https://" becomes
		// "wss://" by the same substitution. A base URL that does not
		// start with an http scheme gets its first "http" occurrence
		// rewritten wherever it appears.
		WSURL:       strings.Replace(info.BaseURL, "http", "ws", 1),
		Token:       info.Token,
		Cache:       gateway.CacheNoStore,
		Credentials: gateway.CredentialsSameOrigin,
	}
}
