package errors

import (
	"errors"
	"fmt"
)

// Common error types for the OA client
var (
	// Credential errors
	ErrNoCredential = errors.New("no credential stored")
	ErrInvalidToken = errors.New("invalid token")

	// Request pipeline errors
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrBusiness           = errors.New("business error")
	ErrAuthExpired        = errors.New("authentication expired")
	ErrAuthTerminal       = errors.New("authentication terminated")

	// Navigation errors
	ErrRouteNotFound    = errors.New("route not found")
	ErrTooManyRedirects = errors.New("too many redirects")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
