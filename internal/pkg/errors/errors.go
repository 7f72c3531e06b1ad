package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// Kind classifies a business outcome. The string value doubles as the
// response code.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindForbidden           Kind = "FORBIDDEN"
	KindConflict            Kind = "CONFLICT"
	KindAlreadyShared       Kind = "ALREADY_SHARED"
	KindSelfShareNotAllowed Kind = "SELF_SHARE_NOT_ALLOWED"
	KindNotShared           Kind = "NOT_SHARED"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindUnauthenticated     Kind = "UNAUTHENTICATED"
	KindInvalidCredentials  Kind = "INVALID_CREDENTIALS"
	KindAccountLocked       Kind = "ACCOUNT_LOCKED"
	KindAccountDeactivated  Kind = "ACCOUNT_DEACTIVATED"
	KindIPNotAllowed        Kind = "IP_NOT_ALLOWED"
	KindPasswordMismatch    Kind = "PASSWORD_MISMATCH"
	KindWeakPassword        Kind = "WEAK_PASSWORD"
	KindUserBanned          Kind = "USER_BANNED"
	KindRateLimited         Kind = "RATE_LIMIT_EXCEEDED"
	KindInternal            Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can test against
// sentinels with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func StatusFor(kind Kind) int {
	switch kind {
	case KindNotFound, KindNotShared:
		return http.StatusNotFound
	case KindForbidden, KindUserBanned, KindAccountDeactivated, KindIPNotAllowed, KindSelfShareNotAllowed:
		return http.StatusForbidden
	case KindConflict, KindAlreadyShared:
		return http.StatusConflict
	case KindValidation, KindPasswordMismatch, KindWeakPassword:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindAccountLocked:
		return http.StatusLocked
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteKind writes err using its kind for both status and code.
func WriteKind(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	message := "Internal server error"
	if kind != KindInternal {
		message = err.Error()
	}
	WriteError(w, StatusFor(kind), string(kind), message, nil)
}
