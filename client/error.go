package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTransport is matched by every [TransportError].
	ErrTransport = errors.New("transport failure")
	// ErrTimeout is matched by a [TransportError] caused by the request timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrAPI is matched by every [APIError].
	ErrAPI = errors.New("api error")
	// ErrAuthFailure is joined with [ErrAPI] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrMalformedEnvelope is matched by every [MalformedEnvelopeError].
	ErrMalformedEnvelope = errors.New("malformed error envelope")
	// ErrPrecondition is matched by every [PreconditionError].
	ErrPrecondition = errors.New("precondition failed")
)

// APIError is a structured error returned by the server.
type APIError struct {
	Command    string
	StatusCode int
	Message    string
	Code       int
	// HasCode is false when the response carried no usable envelope.
	HasCode bool
	// Details is the raw JSON of error.error_lists, empty when absent.
	Details string
	Err     error
}

func (e *APIError) Error() string {
	if !e.HasCode {
		return fmt.Sprintf("Failed request %s. Message: Null", e.Command)
	}

	msg := fmt.Sprintf("Failed request %s. Message: %s. Error Code: %d", e.Command, e.Message, e.Code)
	if e.Details != "" {
		msg += ". Details: " + e.Details
	}

	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// MalformedEnvelopeError is returned when an error response is JSON
// but lacks error.message or error.error_code.
type MalformedEnvelopeError struct {
	Command    string
	StatusCode int
	Body       string
	Reason     string
}

func (e *MalformedEnvelopeError) Error() string {
	return fmt.Sprintf("%v: %s: status %d: %s, body: %s", ErrMalformedEnvelope, e.Command, e.StatusCode, e.Reason, e.Body)
}

func (e *MalformedEnvelopeError) Unwrap() error {
	return ErrMalformedEnvelope
}

// TransportError wraps network, timeout and response parsing failures.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrTransport, e.Command, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Timeout reports whether the failure was caused by the request timeout.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, ErrTimeout)
}

// PreconditionError is returned before any request is made when an
// argument is invalid, out of range, or names a missing file.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrPrecondition, e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() []error {
	return []error{ErrPrecondition, e.Err}
}

// newTransportError tags deadline and net timeouts with ErrTimeout.
func newTransportError(command string, err error) *TransportError {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return &TransportError{Command: command, Err: err}
}

type errorEnvelope struct {
	Error *struct {
		Message    *string         `json:"message"`
		ErrorCode  *int            `json:"error_code"`
		ErrorLists json.RawMessage `json:"error_lists"`
	} `json:"error"`
}

// mapError converts a non-2xx response body into an error. It never
// returns nil.
func mapError(command string, statusCode int, body []byte) error {
	sentinel := ErrAPI
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		sentinel = fmt.Errorf("%w: %w", ErrAuthFailure, ErrAPI)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || !json.Valid(trimmed) {
		return &APIError{Command: command, StatusCode: statusCode, Err: sentinel}
	}

	malformed := func(reason string) error {
		return &MalformedEnvelopeError{
			Command:    command,
			StatusCode: statusCode,
			Body:       string(trimmed),
			Reason:     reason,
		}
	}

	var env errorEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return malformed(fmt.Sprintf("decoding envelope: %v", err))
	}

	switch {
	case env.Error == nil:
		return malformed("missing error object")
	case env.Error.Message == nil:
		return malformed("missing error.message")
	case env.Error.ErrorCode == nil:
		return malformed("missing error.error_code")
	}

	apiErr := APIError{
		Command:    command,
		StatusCode: statusCode,
		Message:    *env.Error.Message,
		Code:       *env.Error.ErrorCode,
		HasCode:    true,
		Err:        sentinel,
	}
	if lists := bytes.TrimSpace(env.Error.ErrorLists); len(lists) > 0 && !bytes.Equal(lists, []byte("null")) {
		apiErr.Details = string(lists)
	}

	return &apiErr
}
