package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/net/websocket"

	"github.com/aki/kmux/internal/config"
	"github.com/aki/kmux/internal/gateway"
)

func TestDeriveServerSettings(t *testing.T) {
	adapter := NewAdapter(config.DataScience{}, nil, nil)

	tests := []struct {
		name    string
		baseURL string
		token   string
		wantWS  string
	}{
		{
			name:    "http scheme",
			baseURL: "http://host:8888",
			wantWS:  "ws://host:8888",
		},
		{
			name:    "https scheme becomes wss by the same substitution",
			baseURL: "https://host:8888",
			wantWS:  "wss://host:8888",
		},
		{
			name:    "token carried through",
			baseURL: "http://host:8888",
			token:   "secret",
			wantWS:  "ws://host:8888",
		},
		{
			// The substitution targets the first "http" occurrence,
			// wherever it is.
			name:    "no scheme, http in hostname",
			baseURL: "myhttpserver:8888",
			wantWS:  "mywsserver:8888",
		},
		{
			name:    "http in path is untouched when scheme matches first",
			baseURL: "http://host:8888/http-proxy",
			wantWS:  "ws://host:8888/http-proxy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := adapter.deriveServerSettings(ConnectionInfo{BaseURL: tt.baseURL, Token: tt.token})

			if settings.WSURL != tt.wantWS {
				t.Errorf("WSURL = %q, want %q", settings.WSURL, tt.wantWS)
			}
			if settings.BaseURL != tt.baseURL {
				t.Errorf("BaseURL = %q, want %q", settings.BaseURL, tt.baseURL)
			}
			if settings.Token != tt.token {
				t.Errorf("Token = %q, want %q", settings.Token, tt.token)
			}
			if settings.PageURL != "" {
				t.Errorf("PageURL = %q, want empty", settings.PageURL)
			}
			if settings.Cache != gateway.CacheNoStore {
				t.Errorf("Cache = %q, want %q", settings.Cache, gateway.CacheNoStore)
			}
			if settings.Credentials != gateway.CredentialsSameOrigin {
				t.Errorf("Credentials = %q, want %q", settings.Credentials, gateway.CredentialsSameOrigin)
			}
		})
	}
}

func TestListActiveKernels_ForwardsResult(t *testing.T) {
	want := []gateway.KernelModel{
		{ID: "k1", Name: "python3", ExecutionState: "idle"},
		{ID: "k2", Name: "ir", ExecutionState: "busy"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kernels" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	adapter := NewAdapter(config.DataScience{}, nil, nil)
	kernels, err := adapter.ListActiveKernels(context.Background(), ConnectionInfo{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("ListActiveKernels failed: %v", err)
	}

	if len(kernels) != len(want) {
		t.Fatalf("got %d kernels, want %d", len(kernels), len(want))
	}
	for i := range want {
		if kernels[i].ID != want[i].ID || kernels[i].Name != want[i].Name {
			t.Errorf("kernel %d = %+v, want %+v", i, kernels[i], want[i])
		}
	}
}

func TestListActiveKernels_PropagatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := NewAdapter(config.DataScience{}, nil, nil)
	_, err := adapter.ListActiveKernels(context.Background(), ConnectionInfo{BaseURL: srv.URL})
	if err == nil {
		t.Fatal("expected error from failing gateway")
	}

	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) {
		t.Errorf("expected RequestError, got %T: %v", err, err)
	}
}

func TestListActiveKernelSpecs_Order(t *testing.T) {
	// Key order in the response body must be reflected in the result.
	body := `{
		"default": "python3",
		"kernelspecs": {
			"python3": {"name": "python3", "spec": {"display_name": "Python 3", "language": "python", "argv": ["python", "-m", "ipykernel"]}},
			"ir": {"name": "ir", "spec": {"display_name": "R", "language": "R", "argv": ["R", "--slave"]}}
		}
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kernelspecs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	adapter := NewAdapter(config.DataScience{}, nil, nil)
	specs := adapter.ListActiveKernelSpecs(context.Background(), ConnectionInfo{BaseURL: srv.URL})

	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[0].Name != "python3" || specs[1].Name != "ir" {
		t.Errorf("spec order = [%s, %s], want [python3, ir]", specs[0].Name, specs[1].Name)
	}
	if specs[0].DisplayName != "Python 3" || specs[0].Language != "python" {
		t.Errorf("spec mapping wrong: %+v", specs[0])
	}
	if len(specs[0].Argv) != 3 {
		t.Errorf("argv = %v, want 3 entries", specs[0].Argv)
	}
}

func TestListActiveKernelSpecs_EmptyOnError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			adapter := NewAdapter(config.DataScience{}, nil, nil)
			specs := adapter.ListActiveKernelSpecs(context.Background(), ConnectionInfo{BaseURL: srv.URL})
			if len(specs) != 0 {
				t.Errorf("got %d specs, want 0", len(specs))
			}
		})
	}
}

func TestListActiveKernelSpecsWithDefault(t *testing.T) {
	body := `{
		"default": "ir",
		"kernelspecs": {
			"python3": {"name": "python3", "spec": {"display_name": "Python 3", "language": "python"}},
			"ir": {"name": "ir", "spec": {"display_name": "R", "language": "R"}}
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	adapter := NewAdapter(config.DataScience{}, nil, nil)
	specs, defaultName := adapter.ListActiveKernelSpecsWithDefault(context.Background(), ConnectionInfo{BaseURL: srv.URL})

	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if defaultName != "ir" {
		t.Errorf("default = %q, want ir", defaultName)
	}
}

func TestListActiveKernelSpecs_UnreachableGateway(t *testing.T) {
	adapter := NewAdapter(config.DataScience{}, nil, nil)
	specs := adapter.ListActiveKernelSpecs(context.Background(), ConnectionInfo{BaseURL: "http://127.0.0.1:1"})
	if len(specs) != 0 {
		t.Errorf("got %d specs, want 0", len(specs))
	}
}

// gatewayStub serves enough of the kernel gateway API to connect a
// session, and counts teardown calls.
type gatewayStub struct {
	mux             *http.ServeMux
	sessionDeletes  atomic.Int32
	kernelShutdowns atomic.Int32
	failChannels    bool
}

func newGatewayStub(t *testing.T) (*gatewayStub, *httptest.Server) {
	t.Helper()
	stub := &gatewayStub{mux: http.NewServeMux()}

	stub.mux.HandleFunc("POST /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gateway.SessionModel{
			ID:     "sess-1",
			Kernel: gateway.KernelModel{ID: "kern-1", Name: "python3"},
		})
	})
	stub.mux.HandleFunc("DELETE /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		stub.sessionDeletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	stub.mux.HandleFunc("DELETE /api/kernels/{id}", func(w http.ResponseWriter, r *http.Request) {
		stub.kernelShutdowns.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	stub.mux.HandleFunc("GET /api/kernels/{id}/channels", func(w http.ResponseWriter, r *http.Request) {
		if stub.failChannels {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		websocket.Handler(func(conn *websocket.Conn) {
			// Hold the connection open until the client closes it.
			var buf [1]byte
			conn.Read(buf[:])
		}).ServeHTTP(w, r)
	})

	srv := httptest.NewServer(stub.mux)
	t.Cleanup(srv.Close)
	return stub, srv
}

func TestStartSession_Connects(t *testing.T) {
	stub, srv := newGatewayStub(t)

	adapter := NewAdapter(config.DataScience{AllowKernelShutdown: true}, nil, nil)
	spec := &gateway.KernelSpec{Name: "python3"}

	handle, err := adapter.StartSession(context.Background(), ConnectionInfo{BaseURL: srv.URL}, spec)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if !handle.IsConnected() {
		t.Fatal("returned handle is not connected")
	}
	if got := handle.Session().ID; got != "sess-1" {
		t.Errorf("session ID = %q, want sess-1", got)
	}

	handle.Release(context.Background())
	if handle.IsConnected() {
		t.Error("handle still connected after Release")
	}
	if n := stub.sessionDeletes.Load(); n != 1 {
		t.Errorf("session deletes = %d, want 1", n)
	}
	if n := stub.kernelShutdowns.Load(); n != 1 {
		t.Errorf("kernel shutdowns = %d, want 1", n)
	}
}

func TestStartSession_ReleasesOnChannelFailure(t *testing.T) {
	stub, srv := newGatewayStub(t)
	stub.failChannels = true

	adapter := NewAdapter(config.DataScience{}, nil, nil)
	handle, err := adapter.StartSession(context.Background(), ConnectionInfo{BaseURL: srv.URL}, nil)
	if err == nil {
		t.Fatal("expected error when channel connect fails")
	}
	if handle != nil {
		t.Fatal("expected no handle on failure")
	}

	var connErr *ErrConnectionFailed
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ErrConnectionFailed, got %T: %v", err, err)
	}

	// The gateway session was created before the channel connect
	// failed; cleanup must have deleted it.
	if n := stub.sessionDeletes.Load(); n != 1 {
		t.Errorf("session deletes = %d, want 1", n)
	}
}

func TestStartSession_CancelledBeforeConnect(t *testing.T) {
	stub, srv := newGatewayStub(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := NewAdapter(config.DataScience{}, nil, nil)
	_, err := adapter.StartSession(ctx, ConnectionInfo{BaseURL: srv.URL}, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}

	var connErr *ErrConnectionFailed
	if !errors.As(err, &connErr) {
		t.Errorf("expected ErrConnectionFailed, got %T", err)
	}

	// Nothing was acquired, so nothing should have been torn down.
	if n := stub.sessionDeletes.Load(); n != 0 {
		t.Errorf("session deletes = %d, want 0", n)
	}
}

func TestStartSession_ReusesConfiguredKernel(t *testing.T) {
	var gotKernelID string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kernel struct {
				Name string `json:"name"`
				ID   string `json:"id"`
			} `json:"kernel"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotKernelID = req.Kernel.ID
		json.NewEncoder(w).Encode(gateway.SessionModel{
			ID:     "sess-1",
			Kernel: gateway.KernelModel{ID: req.Kernel.ID, Name: "python3"},
		})
	})
	mux.HandleFunc("GET /api/kernels/{id}/channels", func(w http.ResponseWriter, r *http.Request) {
		websocket.Handler(func(conn *websocket.Conn) {
			var buf [1]byte
			conn.Read(buf[:])
		}).ServeHTTP(w, r)
	})
	mux.HandleFunc("DELETE /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewAdapter(config.DataScience{PreferredKernelID: "pinned-kernel"}, nil, nil)
	handle, err := adapter.StartSession(context.Background(), ConnectionInfo{BaseURL: srv.URL},
		&gateway.KernelSpec{Name: "python3"})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	defer handle.Release(context.Background())

	if gotKernelID != "pinned-kernel" {
		t.Errorf("kernel ID sent = %q, want pinned-kernel", gotKernelID)
	}
}

func TestStartSession_CookiesReachChannels(t *testing.T) {
	// A password-authenticated gateway gates both the REST API and the
	// channels handshake on the login session cookie.
	requireCookie := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err != nil || c.Value != "authed" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gateway.SessionModel{
			ID:     "sess-1",
			Kernel: gateway.KernelModel{ID: "kern-1", Name: "python3"},
		})
	}))
	mux.HandleFunc("GET /api/kernels/{id}/channels", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		websocket.Handler(func(conn *websocket.Conn) {
			var buf [1]byte
			conn.Read(buf[:])
		}).ServeHTTP(w, r)
	}))
	mux.HandleFunc("DELETE /api/sessions/{id}", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewAdapter(config.DataScience{}, cookieConnector{}, nil)
	handle, err := adapter.StartSession(context.Background(), ConnectionInfo{BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if !handle.IsConnected() {
		t.Fatal("returned handle is not connected")
	}
	handle.Release(context.Background())
}

// cookieConnector stands in for a password login that already holds an
// authenticated session cookie.
type cookieConnector struct{}

func (cookieConnector) Connect(ctx context.Context, baseURL string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "authed"}})
	return &http.Client{Jar: jar}, nil
}

func TestStartSession_PasswordConnectorFailure(t *testing.T) {
	adapter := NewAdapter(config.DataScience{}, failingConnector{}, nil)
	_, err := adapter.StartSession(context.Background(), ConnectionInfo{BaseURL: "http://host:8888"}, nil)
	if err == nil {
		t.Fatal("expected error when password connect fails")
	}
	var connErr *ErrConnectionFailed
	if !errors.As(err, &connErr) {
		t.Errorf("expected ErrConnectionFailed, got %T", err)
	}
	if !strings.Contains(err.Error(), "http://host:8888") {
		t.Errorf("error should name the gateway: %v", err)
	}
}

type failingConnector struct{}

func (failingConnector) Connect(ctx context.Context, baseURL string) (*http.Client, error) {
	return nil, errors.New("login refused")
}
