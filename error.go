package harvest

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	ECONFIG     = "config"
	EFETCH      = "fetch"
	EVALIDATION = "validation"
	ETRANSFORM  = "transform"
	EPERSIST    = "persist"
	EINVALID    = "invalid"
	ENOTFOUND   = "not_found"
	ECONFLICT   = "conflict"
	EINTERNAL   = "internal"
)

// Error represents an application-specific error. Only ECONFIG aborts a
// whole run; every other code is scoped to a single job.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("harvest error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
