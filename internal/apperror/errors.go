package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure independently of its message.
type Kind string

const (
	KindDuplicateEmail         Kind = "DuplicateEmail"
	KindInvalidCredentials     Kind = "InvalidCredentials"
	KindEmailNotVerified       Kind = "EmailNotVerified"
	KindSocialOnlyAccount      Kind = "SocialOnlyAccount"
	KindAccountConflict        Kind = "AccountConflict"
	KindAlreadyVerified        Kind = "AlreadyVerified"
	KindInvalidOrExpiredToken  Kind = "InvalidOrExpiredToken"
	KindInvalidProviderToken   Kind = "InvalidProviderToken"
	KindAuthenticationRequired Kind = "AuthenticationRequired"
	KindInvalidToken           Kind = "InvalidToken"
	KindExpiredToken           Kind = "ExpiredToken"
	KindForbidden              Kind = "Forbidden"
	KindNotFound               Kind = "NotFound"
	KindValidation             Kind = "Validation"
	KindInternal               Kind = "Internal"
)

// Error is a domain error that knows how it should surface at the HTTP boundary.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrInvalidToken) works
// regardless of the message or wrapped cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Status: status, Message: msg}
}

var (
	ErrDuplicateEmail         = newError(KindDuplicateEmail, http.StatusConflict, "An account with this email already exists")
	ErrInvalidCredentials     = newError(KindInvalidCredentials, http.StatusUnauthorized, "Invalid email or password")
	ErrEmailNotVerified       = newError(KindEmailNotVerified, http.StatusForbidden, "Please verify your email before logging in")
	ErrSocialOnlyAccount      = newError(KindSocialOnlyAccount, http.StatusBadRequest, "This account uses Google sign-in. Please log in with Google")
	ErrAccountConflict        = newError(KindAccountConflict, http.StatusConflict, "This email is already linked to a different sign-in method")
	ErrAlreadyVerified        = newError(KindAlreadyVerified, http.StatusConflict, "This email is already verified")
	ErrInvalidOrExpiredToken  = newError(KindInvalidOrExpiredToken, http.StatusBadRequest, "The link is invalid or has expired")
	ErrInvalidProviderToken   = newError(KindInvalidProviderToken, http.StatusUnauthorized, "Invalid Google token")
	ErrAuthenticationRequired = newError(KindAuthenticationRequired, http.StatusUnauthorized, "Authentication required")
	ErrInvalidToken           = newError(KindInvalidToken, http.StatusUnauthorized, "Invalid or expired token")
	ErrExpiredToken           = newError(KindExpiredToken, http.StatusUnauthorized, "Invalid or expired token")
	ErrForbidden              = newError(KindForbidden, http.StatusForbidden, "Access denied: insufficient permissions")
	ErrNotFound               = newError(KindNotFound, http.StatusNotFound, "Resource not found")
	ErrInternal               = newError(KindInternal, http.StatusInternalServerError, "Internal server error")
)

// Wrap attaches a cause to one of the sentinel kinds, keeping its public message.
func Wrap(base *Error, cause error) *Error {
	return &Error{Kind: base.Kind, Status: base.Status, Message: base.Message, Err: cause}
}

// NotFound builds a 404 with a resource specific message.
func NotFound(msg string) *Error {
	return newError(KindNotFound, http.StatusNotFound, msg)
}

// Validation builds a 400 carrying a message safe to show to the caller.
func Validation(msg string) *Error {
	return newError(KindValidation, http.StatusBadRequest, msg)
}

// Forbidden builds a 403 with a custom message.
func Forbidden(msg string) *Error {
	return newError(KindForbidden, http.StatusForbidden, msg)
}

// Internal hides err behind the generic 500 message.
func Internal(err error) *Error {
	return Wrap(ErrInternal, err)
}

// From returns err as an *Error, treating anything unclassified as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// StatusOf reports the HTTP status for err.
func StatusOf(err error) int {
	return From(err).Status
}
