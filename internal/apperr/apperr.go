package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error so transport code can pick a status code
// without string-matching messages.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInvalidState Kind = "invalid_state"
	KindDuplicate    Kind = "duplicate"
	KindValidation   Kind = "validation"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func InvalidState(msg string) *Error { return &Error{Kind: KindInvalidState, Message: msg} }
func Duplicate(msg string) *Error    { return &Error{Kind: KindDuplicate, Message: msg} }
func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }

// FinalStatusLocked is returned when a non-admin tries to move an
// application out of a terminal status. The current status is part of the
// message because the frontend shows it to the user as-is.
func FinalStatusLocked(current string) *Error {
	return InvalidState(fmt.Sprintf("You can't change the status once it is '%s'", current))
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// StatusCode maps an error to the HTTP status the API responds with.
// Anything that is not an *Error is an internal failure.
func StatusCode(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindDuplicate, KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
