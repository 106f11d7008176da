package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so callers can switch on them instead of
// matching messages.
type ErrorKind string

const (
	ErrKindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	ErrKindUpstreamAuth        ErrorKind = "upstream_auth"
	ErrKindAIResponseInvalid   ErrorKind = "ai_response_invalid"
	ErrKindNotFound            ErrorKind = "not_found"
	ErrKindConflict            ErrorKind = "conflict"
	ErrKindInvalidInput        ErrorKind = "invalid_input"
	ErrKindInternal            ErrorKind = "internal"
)

// Stable error codes returned to API clients.
const (
	CodeExternalAPI        = "EXTERNAL_API_ERROR"
	CodeExternalAPITimeout = "EXTERNAL_API_TIMEOUT"
	CodeExternalAPIAuth    = "EXTERNAL_API_AUTH_ERROR"
	CodeAIConnectionFailed = "AI_CONNECTION_FAILED"
	CodeAIAuthFailed       = "AI_AUTH_FAILED"
	CodeAIQuotaExceeded    = "AI_QUOTA_EXCEEDED"
	CodeAIRequestFailed    = "AI_REQUEST_FAILED"
	CodeAIResponseInvalid  = "AI_RESPONSE_INVALID"
	CodeStoreNotFound      = "STORE_NOT_FOUND"
	CodeNoStoresFound      = "NO_STORES_FOUND"
	CodeCourseNotFound     = "COURSE_NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeBookmarkExists     = "BOOKMARK_ALREADY_EXISTS"
	CodeBookmarkNotFound   = "BOOKMARK_NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeServerError        = "SERVER_ERROR"
)

// HTTPStatus is the response status used for errors of this kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrKindUpstreamUnavailable, ErrKindUpstreamAuth:
		return http.StatusServiceUnavailable
	case ErrKindAIResponseInvalid:
		return http.StatusBadGateway
	case ErrKindNotFound:
		return http.StatusNotFound
	case ErrKindConflict:
		return http.StatusConflict
	case ErrKindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsExternal reports whether the failure came from a dependency outside the
// service and may succeed on a later attempt.
func (k ErrorKind) IsExternal() bool {
	return k == ErrKindUpstreamUnavailable || k == ErrKindUpstreamAuth
}

type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(kind ErrorKind, code, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewNotFoundError(code, message string) *AppError {
	return NewAppError(ErrKindNotFound, code, message, nil)
}

func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrKindInvalidInput, CodeBadRequest, message, nil)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(ErrKindInternal, CodeServerError, message, err)
}

// AsAppError returns the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind carried by err, or ErrKindInternal for untagged errors.
func KindOf(err error) ErrorKind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return ErrKindInternal
}
