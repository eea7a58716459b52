package gateway

import "fmt"

// RequestError is returned when the gateway answers with a non-success status
type RequestError struct {
	Op         string
	URL        string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: gateway returned status %d for %s", e.Op, e.StatusCode, e.URL)
}

// ErrKernelNotFound is returned when a kernel ID is unknown to the gateway
type ErrKernelNotFound struct {
	ID string
}

func (e ErrKernelNotFound) Error() string {
	return fmt.Sprintf("kernel not found: %s", e.ID)
}

// ErrSpecManagerDisposed is returned when a disposed spec manager is used
type ErrSpecManagerDisposed struct{}

func (e ErrSpecManagerDisposed) Error() string {
	return "kernel spec manager has been disposed"
}
