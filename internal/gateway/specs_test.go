package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const specsBody = `{
	"default": "julia-1.10",
	"kernelspecs": {
		"zsh": {"name": "zsh", "spec": {"display_name": "Z shell", "language": "bash", "argv": ["zsh-kernel"]}},
		"julia-1.10": {"name": "julia-1.10", "spec": {"display_name": "Julia 1.10", "language": "julia", "argv": ["julia", "-i"]}},
		"python3": {"name": "python3", "spec": {"display_name": "Python 3", "language": "python", "argv": ["python", "-m", "ipykernel"], "env": {"PYTHONUNBUFFERED": "1"}}}
	}
}`

func TestSpecManager_RefreshSpecs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kernelspecs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "token secret" {
			t.Errorf("Authorization = %q, want %q", got, "token secret")
		}
		w.Write([]byte(specsBody))
	}))
	defer srv.Close()

	manager := NewSpecManager(testSettings(srv.URL, "secret"), nil)
	defer manager.Dispose()

	if err := manager.RefreshSpecs(context.Background()); err != nil {
		t.Fatalf("RefreshSpecs failed: %v", err)
	}

	if got := manager.DefaultSpecName(); got != "julia-1.10" {
		t.Errorf("DefaultSpecName = %q, want julia-1.10", got)
	}

	specs := manager.Specs()
	wantOrder := []string{"zsh", "julia-1.10", "python3"}
	if len(specs) != len(wantOrder) {
		t.Fatalf("got %d specs, want %d", len(specs), len(wantOrder))
	}
	for i, want := range wantOrder {
		if specs[i].Name != want {
			t.Errorf("specs[%d].Name = %q, want %q", i, specs[i].Name, want)
		}
	}

	if specs[2].Language != "python" || specs[2].DisplayName != "Python 3" {
		t.Errorf("python3 spec = %+v", specs[2])
	}
	if specs[2].Env["PYTHONUNBUFFERED"] != "1" {
		t.Errorf("python3 env = %v", specs[2].Env)
	}
}

func TestSpecManager_RefreshAfterDispose(t *testing.T) {
	manager := NewSpecManager(testSettings("http://127.0.0.1:1", ""), nil)
	manager.Dispose()

	err := manager.RefreshSpecs(context.Background())
	var disposed ErrSpecManagerDisposed
	if !errors.As(err, &disposed) {
		t.Fatalf("expected ErrSpecManagerDisposed, got %T: %v", err, err)
	}
}

func TestSpecManager_DisposeIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(specsBody))
	}))
	defer srv.Close()

	manager := NewSpecManager(testSettings(srv.URL, ""), nil)
	if err := manager.RefreshSpecs(context.Background()); err != nil {
		t.Fatalf("RefreshSpecs failed: %v", err)
	}

	manager.Dispose()
	manager.Dispose()

	if specs := manager.Specs(); specs != nil {
		t.Errorf("specs survive disposal: %v", specs)
	}
}

func TestSpecManager_RefreshErrorOnStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	manager := NewSpecManager(testSettings(srv.URL, ""), nil)
	defer manager.Dispose()

	err := manager.RefreshSpecs(context.Background())
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T: %v", err, err)
	}
	if reqErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", reqErr.StatusCode)
	}
}

func TestParseKernelSpecs(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantDefault string
		wantNames   []string
		wantErr     bool
	}{
		{
			name:        "empty kernelspecs",
			body:        `{"default": "python3", "kernelspecs": {}}`,
			wantDefault: "python3",
		},
		{
			name:        "missing kernelspecs",
			body:        `{"default": "python3"}`,
			wantDefault: "python3",
		},
		{
			name:      "key wins over embedded name",
			body:      `{"kernelspecs": {"renamed": {"name": "original", "spec": {"display_name": "R"}}}}`,
			wantNames: []string{"renamed"},
		},
		{
			name:    "kernelspecs not an object",
			body:    `{"kernelspecs": [1, 2]}`,
			wantErr: true,
		},
		{
			name:    "malformed body",
			body:    `{"default":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, specs, err := parseKernelSpecs(strings.NewReader(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseKernelSpecs failed: %v", err)
			}
			if def != tt.wantDefault {
				t.Errorf("default = %q, want %q", def, tt.wantDefault)
			}
			if len(specs) != len(tt.wantNames) {
				t.Fatalf("got %d specs, want %d", len(specs), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if specs[i].Name != want {
					t.Errorf("specs[%d].Name = %q, want %q", i, specs[i].Name, want)
				}
			}
		})
	}
}
