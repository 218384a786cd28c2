// Package errs defines the categorical error surface of the engine. Every
// failure a caller can recover from maps to exactly one Code; datastore and
// transport faults stay ordinary errors and bubble up as internal failures.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotLoggedIn      Code = "USER_NOT_LOGGED_IN"
	CodeEmailNotVerified Code = "USER_EMAIL_NOT_VERIFIED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodePermissions      Code = "INSUFFICIENT_PERMISSIONS"
	CodeDuplicate        Code = "DUPLICATE"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the categorical code, or "" for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps a code to the status the transport layer reports.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotLoggedIn, CodeEmailNotVerified:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodePermissions:
		return http.StatusForbidden
	case CodeDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
