package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is a taxonomy failure. Code is a stable machine-readable identifier
// and HTTPStatus is the severity hint boundary adapters recover to build a
// user-facing response. The wrapped cause is for internal diagnostics only
// and must never be surfaced to callers verbatim.
type Error struct {
	Code       string
	HTTPStatus int
	Message    string
	Violations []string
	cause      error
}

func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		return e.Message + ": " + strings.Join(e.Violations, "; ")
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches taxonomy errors by code so wrapped copies compare equal to the
// sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithViolations returns a copy carrying the aggregated field-level problems.
func (e *Error) WithViolations(violations []string) *Error {
	clone := *e
	clone.Violations = violations
	return &clone
}

// Wrap returns a copy with the underlying cause attached.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

func (e *Error) wrapf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

var (
	// ErrInvalidCredentials is intentionally ambiguous: the message is identical
	// whether the email is unknown or the password wrong, so callers cannot
	// enumerate accounts.
	ErrInvalidCredentials = &Error{Code: "invalid_credentials", HTTPStatus: http.StatusUnauthorized, Message: "invalid email or password"}

	ErrUserNotFound            = &Error{Code: "user_not_found", HTTPStatus: http.StatusNotFound, Message: "user not found"}
	ErrAlreadyExists           = &Error{Code: "already_exists", HTTPStatus: http.StatusConflict, Message: "account already exists"}
	ErrWeakPassword            = &Error{Code: "weak_password", HTTPStatus: http.StatusBadRequest, Message: "password does not meet strength requirements"}
	ErrInvalidToken            = &Error{Code: "invalid_token", HTTPStatus: http.StatusUnauthorized, Message: "invalid token"}
	ErrTokenExpired            = &Error{Code: "token_expired", HTTPStatus: http.StatusUnauthorized, Message: "token expired"}
	ErrInsufficientPermissions = &Error{Code: "insufficient_permissions", HTTPStatus: http.StatusForbidden, Message: "insufficient permissions"}
	ErrValidationFailed        = &Error{Code: "validation_failed", HTTPStatus: http.StatusBadRequest, Message: "validation failed"}
	ErrSocialAuthFailed        = &Error{Code: "social_auth_failed", HTTPStatus: http.StatusUnauthorized, Message: "social authentication failed"}
	ErrPasswordChangeFailed    = &Error{Code: "password_change_failed", HTTPStatus: http.StatusBadRequest, Message: "current password is incorrect"}

	// Wrappers for unexpected lower-level failures (store unavailable etc.).
	ErrRegistrationFailed = &Error{Code: "registration_failed", HTTPStatus: http.StatusInternalServerError, Message: "registration failed"}
	ErrLoginFailed        = &Error{Code: "login_failed", HTTPStatus: http.StatusInternalServerError, Message: "login failed"}
)
