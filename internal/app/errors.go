package service

import (
	"errors"
	"fmt"

	"github.com/okian/scrollstats/internal/adapters/repository"
)

// Sentinel errors for callers using errors.Is.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
)

// ErrorKind classifies a failed command for the transport layer.
type ErrorKind string

// Error kinds.
const (
	KindConfigurationMissing ErrorKind = "configuration_missing"
	KindFetchFailed          ErrorKind = "fetch_failed"
	KindUnauthorized         ErrorKind = "unauthorized"
	KindBadRequest           ErrorKind = "bad_request"
)

// Error is the structured failure every command returns.
type Error struct {
	Kind    ErrorKind `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts the *Error from err, wrapping unknown errors as fetch
// failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindFetchFailed, Message: "the request could not be completed", Err: err}
}

func badRequest(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: KindBadRequest, Message: msg, Err: fmt.Errorf("%w: %s", ErrMissingArgument, msg)}
}

func datasetError(id repository.ID, err error) *Error {
	if repository.IsNotConfigured(err) {
		return &Error{
			Kind:    KindConfigurationMissing,
			Message: fmt.Sprintf("the %s data source is not configured", id),
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindFetchFailed,
		Message: fmt.Sprintf("could not load %s data; try again shortly", id),
		Err:     err,
	}
}
