// Package apperr defines the error kinds shared by every domain service and
// their mapping to HTTP responses.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

var (
	// ErrConflict: the target is in a state that forbids the change (occupied bed, patient already admitted).
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the operation does not apply to the current state (discharging an empty bed, stale note).
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	// ErrTransient: the backing store is unreachable. Not retried.
	ErrTransient = errors.New("store unavailable")
)

type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.err }

func newKind(kind error, format string, args ...interface{}) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return newKind(ErrConflict, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return newKind(ErrInvalidState, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newKind(ErrNotFound, format, args...)
}

func Validation(format string, args ...interface{}) error {
	return newKind(ErrValidation, format, args...)
}

func Transient(format string, args ...interface{}) error {
	return newKind(ErrTransient, format, args...)
}

// FromStore classifies a pgx error. what names the record for the message,
// e.g. "bed 3". Errors that already carry a kind pass through unchanged.
func FromStore(err error, what string) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &kindError{kind: ErrNotFound, msg: what + " not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &kindError{kind: ErrConflict, msg: what + " already exists", err: err}
		case "23503", "23514", "23502", "22P02", "22007", "22008":
			return &kindError{kind: ErrValidation, msg: "invalid " + what, err: err}
		}
		return fmt.Errorf("%s: %w", what, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.As(err, &netErr) {
		return &kindError{kind: ErrTransient, msg: what + ": store unavailable", err: err}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Kind returns the sentinel err belongs to, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrConflict, ErrInvalidState, ErrNotFound, ErrValidation, ErrTransient} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch Kind(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidState:
		return http.StatusUnprocessableEntity
	case ErrTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts err into an echo error. Unclassified errors are
// reported as a generic 500 so store details do not leak.
func HTTPError(err error) *echo.HTTPError {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		return echo.NewHTTPError(code, "internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}
