package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrNotLoggedIn is returned by authenticated calls without a session.
var ErrNotLoggedIn = errors.New("not logged in")

// TransportKind classifies a failed round trip.
type TransportKind int

const (
	ConnectionRefused TransportKind = iota
	HostUnreachable
	TimedOut
	Network
)

func (k TransportKind) String() string {
	switch k {
	case ConnectionRefused:
		return "connection refused"
	case HostUnreachable:
		return "host unreachable"
	case TimedOut:
		return "timed out"
	default:
		return "network failure"
	}
}

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Kind TransportKind
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is the sentence shown to the farmer.
func (e *TransportError) Message() string {
	switch e.Kind {
	case ConnectionRefused:
		return "The server is not accepting connections. Please try again later."
	case HostUnreachable:
		return "The server cannot be reached. Check your internet connection."
	case TimedOut:
		return "The server took too long to answer. Please try again."
	default:
		return "A network error occurred. Please try again."
	}
}

func classify(op string, err error) *TransportError {
	kind := Network
	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		kind = TimedOut
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = ConnectionRefused
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH), errors.As(err, &dnsErr):
		kind = HostUnreachable
	}
	return &TransportError{Kind: kind, Op: op, Err: err}
}

// ServerError is a non-2xx response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *ServerError) NotFound() bool     { return e.Status == http.StatusNotFound }
func (e *ServerError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *ServerError) Conflict() bool     { return e.Status == http.StatusConflict }

const genericServerMessage = "Something went wrong on the server. Please try again."

// serverError reads the message from a {"message": ...} or {"error": ...}
// body, falling back to a generic sentence.
func serverError(status int, body []byte) *ServerError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := genericServerMessage
	if json.Unmarshal(body, &payload) == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			msg = m
		} else if m := strings.TrimSpace(payload.Error); m != "" {
			msg = m
		}
	}
	return &ServerError{Status: status, Message: msg}
}

// UserMessage renders any client error as a sentence for the farmer.
func UserMessage(err error) string {
	var te *TransportError
	var se *ServerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotLoggedIn):
		return "Please log in first."
	case errors.As(err, &te):
		return te.Message()
	case errors.As(err, &se):
		if se.Unauthorized() {
			return "Your session has expired. Please log in again."
		}
		return se.Message
	}
	return err.Error()
}
