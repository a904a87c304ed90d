// Package apperr: ошибки, которые сервис отдаёт наружу; HTTP-слой превращает их в коды.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindInsufficientPoints
	KindUnauthorized
	KindForbidden
	KindUnavailable
	KindUpstream
	KindNotImplemented
	KindTooManyRequests
)

// Status: HTTP-код для вида ошибки.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInsufficientPoints:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstream:
		return http.StatusBadGateway
	case KindNotImplemented:
		return http.StatusNotImplemented
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError: ошибка конкретного поля запроса.
type FieldError struct {
	Field string
	Error string
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) *Error { return &Error{Kind: KindNotFound, Message: what + " not found"} }

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Field: ошибка валидации одного поля.
func Field(field, msg string) *Error {
	return Validation(msg, FieldError{Field: field, Error: msg})
}

func Conflict(format string, args ...any) *Error { return New(KindConflict, format, args...) }

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func Unavailable(msg string) *Error { return &Error{Kind: KindUnavailable, Message: msg} }

func Upstream(msg string, err error) *Error { return &Error{Kind: KindUpstream, Message: msg, Err: err} }

// As достаёт *Error из цепочки.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf: вид ошибки; всё незнакомое считается внутренней ошибкой.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
