package session

import "fmt"

// ErrConnectionFailed is returned when a session handle cannot be
// connected to its gateway. It wraps the underlying cause, which may
// be a cancellation.
type ErrConnectionFailed struct {
	BaseURL string
	Err     error
}

func (e *ErrConnectionFailed) Error() string {
	return fmt.Sprintf("failed to connect session to %s: %v", e.BaseURL, e.Err)
}

func (e *ErrConnectionFailed) Unwrap() error {
	return e.Err
}

// ErrRecordNotFound is returned when a local session record cannot be found
type ErrRecordNotFound struct {
	ID string
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("session record not found: %s", e.ID)
}
