package auth

import "fmt"

// ErrLoginUnavailable is returned when the login page cannot be reached
type ErrLoginUnavailable struct {
	BaseURL string
}

func (e ErrLoginUnavailable) Error() string {
	return fmt.Sprintf("login page unavailable: %s", e.BaseURL)
}

// ErrPasswordRejected is returned when the server refuses the password
type ErrPasswordRejected struct {
	BaseURL string
}

func (e ErrPasswordRejected) Error() string {
	return fmt.Sprintf("password rejected by server: %s", e.BaseURL)
}
