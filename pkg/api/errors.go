package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Normalized failure messages. Callers map these to user-facing text.
const (
	MsgNetwork   = "Network Error"
	MsgTimeout   = "Timeout"
	MsgNotFound  = "Not Found"
	MsgServer    = "Server Error"
	MsgMalformed = "Malformed Response"
	MsgCanceled  = "Canceled"
)

// StatusNoResponse is reported when the backend never answered.
const StatusNoResponse = http.StatusInternalServerError

var (
	// ErrNotAuthenticated indicates the call needs an access token and none was given.
	ErrNotAuthenticated = errors.New("not authenticated: no token")

	// ErrInvalidToken indicates the access token could not be parsed.
	ErrInvalidToken = errors.New("invalid access token")
)

// Error is the normalized form of every failed backend call.
type Error struct {
	// Op is the operation that failed.
	Op string

	// Message is one of the Msg* constants or backend-provided text.
	Message string

	// Status is the HTTP status, or StatusNoResponse when there was none.
	Status int

	// Detail is the backend's own error text, when it sent one.
	Detail string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "[%d] %s", e.Status, e.Message)
	if e.Detail != "" && e.Detail != e.Message {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given operation, status and message.
func NewError(op string, status int, message string) *Error {
	return &Error{Op: op, Status: status, Message: message}
}

// notAuthenticated is the error of a call that needs a token and got none.
func notAuthenticated(op string) *Error {
	return &Error{
		Op:      op,
		Status:  http.StatusUnauthorized,
		Message: http.StatusText(http.StatusUnauthorized),
		Err:     ErrNotAuthenticated,
	}
}

// transportError classifies a failure that produced no HTTP response.
func transportError(op string, err error) *Error {
	e := &Error{Op: op, Status: StatusNoResponse, Err: err}
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		e.Message = MsgCanceled
	case errors.Is(err, context.DeadlineExceeded):
		e.Message = MsgTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Message = MsgTimeout
	default:
		e.Message = MsgNetwork
	}
	return e
}

// statusError classifies a non-2xx response.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status, Detail: backendMessage(body)}
	switch {
	case status == http.StatusNotFound:
		e.Message = MsgNotFound
	case status >= 500:
		e.Message = MsgServer
	case e.Detail != "":
		e.Message = e.Detail
	default:
		e.Message = http.StatusText(status)
	}
	return e
}

// backendMessage extracts the error text from a backend body. The backend
// sends {"detail": "..."} or a validation list {"detail": [{"msg": "..."}]};
// some proxies send {"message": "..."}.
func backendMessage(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if len(body) == 0 || json.Unmarshal(body, &envelope) != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if len(envelope.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(envelope.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func hasMessage(err error, msg string) bool {
	var e *Error
	return errors.As(err, &e) && e.Message == msg
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool { return hasMessage(err, MsgNotFound) }

// IsNetwork reports whether the backend could not be reached.
func IsNetwork(err error) bool { return hasMessage(err, MsgNetwork) }

// IsTimeout reports whether the call ran out of time.
func IsTimeout(err error) bool { return hasMessage(err, MsgTimeout) }

// IsServer reports whether the backend answered with a 5xx.
func IsServer(err error) bool { return hasMessage(err, MsgServer) }

// IsCanceled reports whether the caller abandoned the call.
func IsCanceled(err error) bool {
	return hasMessage(err, MsgCanceled) || errors.Is(err, context.Canceled)
}

// IsUnauthorized reports whether the call was rejected for missing or bad
// credentials.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrNotAuthenticated) {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// DetailUserNotFound is the detail the backend sends for an unknown login.
const DetailUserNotFound = "User not found"

// IsUserNotFound reports whether a login failed because the user does not
// exist.
func IsUserNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Detail == DetailUserNotFound
}
