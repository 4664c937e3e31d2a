package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure and decides its HTTP status
type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindInvalidCredential Kind = "INVALID_CREDENTIAL"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindInvalidReference  Kind = "INVALID_REFERENCE"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInternal          Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	KindUnauthenticated:   http.StatusUnauthorized,
	KindInvalidCredential: http.StatusUnauthorized,
	KindForbidden:         http.StatusForbidden,
	KindInvalidInput:      http.StatusBadRequest,
	KindInvalidReference:  http.StatusBadRequest,
	KindValidation:        http.StatusBadRequest,
	KindNotFound:          http.StatusNotFound,
	KindConflict:          http.StatusConflict,
	KindInternal:          http.StatusInternalServerError,
}

// Error is what the service layer hands back to handlers
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error's kind
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message, nil)
}

func InvalidCredential(message string, err error) *Error {
	return New(KindInvalidCredential, message, err)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message, nil)
}

func InvalidInput(message string, err error) *Error {
	return New(KindInvalidInput, message, err)
}

func InvalidReference(message string, err error) *Error {
	return New(KindInvalidReference, message, err)
}

func Validation(message string, err error) *Error {
	return New(KindValidation, message, err)
}

func NotFound(resource string, err error) *Error {
	return New(KindNotFound, resource+" not found", err)
}

func Conflict(message string) *Error {
	return New(KindConflict, message, nil)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
