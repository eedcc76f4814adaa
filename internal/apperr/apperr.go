// Package apperr classifies failures so the transport layer can map them to a
// status code and a stable machine-readable reason without leaking internals.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindUnavailable
	KindPersistence
	KindUpload
	KindUploadWrite
	KindMethodNotAllowed
)

// Error is a classified failure. Message is safe to show to clients; Err is the
// underlying cause and only ever goes to the server log.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, reason, message string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message, Err: cause}
}

func Validation(reason string, cause error) *Error {
	return New(KindValidation, reason, messageOf(cause), cause)
}

func Conflict(reason, message string, cause error) *Error {
	return New(KindConflict, reason, message, cause)
}

func NotFound(reason string, cause error) *Error {
	return New(KindNotFound, reason, messageOf(cause), cause)
}

func Forbidden(reason string, cause error) *Error {
	return New(KindForbidden, reason, messageOf(cause), cause)
}

func Unavailable(reason string, cause error) *Error {
	return New(KindUnavailable, reason, "service temporarily unavailable", cause)
}

func Persistence(cause error) *Error {
	return New(KindPersistence, ReasonPersistence, "a server error occurred, please try again", cause)
}

func Upload(reason string, cause error) *Error {
	return New(KindUpload, reason, messageOf(cause), cause)
}

func UploadWrite(cause error) *Error {
	return New(KindUploadWrite, ReasonReceiptWrite, "failed to store payment receipt", cause)
}

const (
	ReasonPersistence      = "persistence_failure"
	ReasonReceiptWrite     = "receipt_write_failed"
	ReasonMethodNotAllowed = "method_not_allowed"
	ReasonInternal         = "internal_error"
	ReasonBadRequest       = "bad_request"
)

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// From extracts the classified error, treating anything unclassified as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return New(KindInternal, ReasonInternal, "a server error occurred, please try again", err)
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func HTTPStatus(err error) int {
	switch From(err).Kind {
	case KindValidation, KindUpload:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
