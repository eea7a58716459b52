package gateway

import "time"

// KernelModel describes a kernel running on the gateway, as reported
// by GET /api/kernels.
type KernelModel struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	LastActivity   time.Time `json:"last_activity,omitempty"`
	ExecutionState string    `json:"execution_state,omitempty"`
	Connections    int       `json:"connections,omitempty"`
}

// KernelSpec describes how to launch one kind of kernel: its registered
// name, the human-readable display name, the implementation language,
// and the argument vector used to start the kernel process.
type KernelSpec struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Language    string            `json:"language"`
	Argv        []string          `json:"argv"`
	Env         map[string]string `json:"env,omitempty"`
}

// SessionModel describes a session on the gateway, as returned by
// POST /api/sessions.
type SessionModel struct {
	ID     string      `json:"id"`
	Path   string      `json:"path"`
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Kernel KernelModel `json:"kernel"`
}

// specEntry is the raw wire shape of one entry in the kernelspecs map
type specEntry struct {
	Name string `json:"name"`
	Spec struct {
		DisplayName string            `json:"display_name"`
		Language    string            `json:"language"`
		Argv        []string          `json:"argv"`
		Env         map[string]string `json:"env"`
	} `json:"spec"`
	Resources map[string]string `json:"resources"`
}

// toKernelSpec maps a raw wire entry to the local KernelSpec model.
// The map key wins over the embedded name when the two disagree.
func (e specEntry) toKernelSpec(key string) KernelSpec {
	name := key
	if name == "" {
		name = e.Name
	}
	return KernelSpec{
		Name:        name,
		DisplayName: e.Spec.DisplayName,
		Language:    e.Spec.Language,
		Argv:        e.Spec.Argv,
		Env:         e.Spec.Env,
	}
}
