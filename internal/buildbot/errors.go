package buildbot

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when a request is attempted before an endpoint
// has been configured.
var ErrNotConnected = &NotConnectedError{}

// NotConnectedError reports a request issued without an established transport.
type NotConnectedError struct{}

func (e *NotConnectedError) Error() string {
	return "request failed: connection not initialized"
}

// ConfigurationError reports a base URL the client cannot connect to.
type ConfigurationError struct {
	URL    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid endpoint %q: %s", e.URL, e.Reason)
}

// RequestFailedError reports a request that still failed after the retry
// budget was spent. Either Err (transport failure) or Status is set.
type RequestFailedError struct {
	Method string
	Path   string
	Status int
	Reason string
	Err    error
}

func (e *RequestFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s %s failed: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("request %s %s failed (%d %s)", e.Method, e.Path, e.Status, e.Reason)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a build status document missing a required
// field or carrying it in an unexpected shape.
type MalformedResponseError struct {
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed build response: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed build response: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed build response: missing field %q", e.Field)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a request failure worth retrying at a
// higher level (a server or network problem rather than a caller mistake).
func IsTransient(err error) bool {
	var reqErr *RequestFailedError
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.Err != nil || reqErr.Status >= 500
}
