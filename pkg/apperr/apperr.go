// Package apperr holds the failure taxonomy shared by the catalog client,
// the store adapters and the aggregator.
//
// Every failure carries a Code. Sentinels exist per code so callers can
// branch with errors.Is without caring about the message or the cause:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	// CodeCatalogUnavailable: remote fetch failed or timed out.
	CodeCatalogUnavailable Code = "CATALOG_UNAVAILABLE"
	// CodeStoreUnavailable: the persistence layer failed.
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	// CodeNotFound: a query matched nothing.
	CodeNotFound Code = "NOT_FOUND"
	// CodeUnknownDiet: a diet name has no persisted taxonomy entry.
	CodeUnknownDiet Code = "UNKNOWN_DIET"
	// CodeInvalidRequest: caller input is malformed.
	CodeInvalidRequest Code = "INVALID_REQUEST"
)

var (
	ErrCatalogUnavailable = New(CodeCatalogUnavailable, "catalog unavailable")
	ErrStoreUnavailable   = New(CodeStoreUnavailable, "store unavailable")
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrUnknownDiet        = New(CodeUnknownDiet, "unknown diet")
	ErrInvalidRequest     = New(CodeInvalidRequest, "invalid request")
)

// Error is a classified failure.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports a match on code alone, so any *Error with the same code
// matches the package sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CatalogUnavailable wraps a remote fetch failure. An error that is already
// classified as catalog-unavailable is returned unchanged.
func CatalogUnavailable(cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrCatalogUnavailable) {
		return cause
	}
	return Wrap(CodeCatalogUnavailable, "catalog unavailable", cause)
}

// StoreUnavailable wraps a persistence failure. Already classified errors
// (not found, unknown diet, ...) pass through untouched.
func StoreUnavailable(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var ae *Error
	if errors.As(cause, &ae) {
		return cause
	}
	return Wrap(CodeStoreUnavailable, op, cause)
}

func NotFound(format string, args ...any) error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func UnknownDiet(name string) error {
	return New(CodeUnknownDiet, fmt.Sprintf("diet %q does not exist", name))
}

func Invalid(format string, args ...any) error {
	return New(CodeInvalidRequest, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first classified error in err's chain.
func CodeOf(err error) (Code, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}
