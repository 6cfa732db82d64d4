package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common error classes for the storefront client
var (
	// Authentication errors
	ErrUnauthenticated = errors.New("unauthenticated") // no token held, or refresh exhausted
	ErrUnauthorized    = errors.New("unauthorized")    // server-confirmed 401 unrelated to expiry

	// Transport errors
	ErrNetwork = errors.New("network failure")
	ErrServer  = errors.New("server error")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// ValidationError carries field-level errors from a 4xx response. The fields are
// surfaced verbatim to the caller for display.
type ValidationError struct {
	Detail string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Detail)
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

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
