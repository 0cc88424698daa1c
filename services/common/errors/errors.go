package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how the caller should react to it
type Kind string

const (
	// KindValidation is a local input problem; no network call was made.
	KindValidation Kind = "validation"
	// KindTransport is a timeout or unreachable collaborator.
	KindTransport Kind = "transport"
	// KindServer is a collaborator rejection carrying a status and message.
	KindServer Kind = "server"
	// KindSession is an expired or rejected session (401/403).
	KindSession Kind = "session"
	// KindState is an operation attempted in the wrong checkout state.
	KindState Kind = "state"
)

// NetworkErrorMessage is shown for every transport failure
const NetworkErrorMessage = "network error"

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(kind Kind, code int, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation reports a local validation failure
func Validation(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, message, nil)
}

// FieldValidation reports a validation failure tied to one input field
func FieldValidation(field, message string) *Error {
	e := Validation(message)
	e.Field = field
	return e
}

// Transport wraps a network-level failure under the generic user message
func Transport(err error) *Error {
	return New(KindTransport, http.StatusBadGateway, NetworkErrorMessage, err)
}

// Server reports a collaborator rejection. An empty message falls back to the given default.
func Server(status int, message, fallback string) *Error {
	if message == "" {
		message = fallback
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return New(KindSession, status, message, nil)
	}
	return New(KindServer, status, message, nil)
}

// Session reports an expired session
func Session(message string) *Error {
	return New(KindSession, http.StatusUnauthorized, message, nil)
}

// IllegalState reports an operation attempted out of order
func IllegalState(message string) *Error {
	return New(KindState, http.StatusConflict, message, nil)
}

// KindOf returns the kind of err, or "" if err is not an *Error
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage returns the message suitable for display, never a raw transport error
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}
