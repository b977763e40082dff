package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for the Facebook ads gateway
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidState   = errors.New("invalid or expired state")

	// Upstream (Facebook) errors
	ErrExchangeFailed      = errors.New("authorization code exchange failed")
	ErrUpstreamTimeout     = errors.New("upstream request timed out")
	ErrUpstreamFetchFailed = errors.New("upstream fetch failed")

	// Authorization errors
	ErrInsufficientPermissions = errors.New("missing required permissions")
	ErrInvalidCredential       = errors.New("invalid or missing access token")

	// General errors
	ErrInternal = errors.New("internal error")
)

// InsufficientPermissionsError carries the scopes the user declined or never granted.
// It matches ErrInsufficientPermissions with errors.Is.
type InsufficientPermissionsError struct {
	Missing []string
}

func (e *InsufficientPermissionsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInsufficientPermissions.Error(), strings.Join(e.Missing, ", "))
}

func (e *InsufficientPermissionsError) Is(target error) bool {
	return target == ErrInsufficientPermissions
}

// MissingScopes returns the missing scopes if err is (or wraps) an InsufficientPermissionsError
func MissingScopes(err error) []string {
	var permErr *InsufficientPermissionsError
	if errors.As(err, &permErr) {
		return permErr.Missing
	}
	return nil
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
