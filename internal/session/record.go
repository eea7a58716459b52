package session

import (
	"time"

	"github.com/google/uuid"
)

// Record is the local bookkeeping entry for a session kmux started on
// a remote gateway. The gateway owns the session; the record just lets
// later invocations find it again.
type Record struct {
	ID              string    `yaml:"id"`
	Gateway         string    `yaml:"gateway,omitempty"`
	BaseURL         string    `yaml:"baseUrl"`
	RemoteSessionID string    `yaml:"remoteSessionId"`
	KernelID        string    `yaml:"kernelId"`
	KernelName      string    `yaml:"kernelName,omitempty"`
	StartedAt       time.Time `yaml:"startedAt"`
}

// NewRecordID generates a unique local record ID
func NewRecordID() string {
	return uuid.New().String()
}

// ShortID returns the first 8 characters of a record ID for display
func ShortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// NewRecord builds a record for a connected handle
func NewRecord(gatewayName string, h *Handle) *Record {
	rec := &Record{
		ID:        NewRecordID(),
		Gateway:   gatewayName,
		BaseURL:   h.settings.BaseURL,
		StartedAt: time.Now(),
	}
	if s := h.Session(); s != nil {
		rec.RemoteSessionID = s.ID
		rec.KernelID = s.Kernel.ID
		rec.KernelName = s.Kernel.Name
	}
	return rec
}
