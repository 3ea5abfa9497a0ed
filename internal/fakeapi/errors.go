package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// Error codes returned in the error envelope.
const (
	CodeInternal         = 1
	CodeInvalidArguments = 9
	CodeNotFound         = 10
	CodeInsufficientFund = 11
	CodeNotAllowed       = 12
	CodeInvalidSignature = 41
	CodeNonceTooSmall    = 42
	CodeUnknownKey       = 43
)

// Error is a failure rendered as the service's error envelope.
type Error struct {
	Status     int                 `json:"-"`
	Code       int                 `json:"error_code"`
	Message    string              `json:"message"`
	ErrorLists map[string][]string `json:"error_lists,omitempty"`
	FuncName   string              `json:"-"`
	FileName   string              `json:"-"`
	InnerErr   bool                `json:"-"`
}

// NewError constructs an error with the given HTTP status and error code.
func NewError(status, code int, msg string) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Status:   status,
		Code:     code,
		Message:  msg,
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// NewInternal creates an error that is not intended
// to be seen by users.
func NewInternal(err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Status:   http.StatusInternalServerError,
		Code:     CodeInternal,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		InnerErr: true,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// FieldErrors maps a form field to its problems.
type FieldErrors map[string][]string

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	return fmt.Sprintf("invalid arguments: %d fields", len(fe))
}

// Add records a problem with field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Err returns nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func asError(err error) *Error {
	if fe, ok := errors.AsType[FieldErrors](err); ok {
		e := NewError(http.StatusBadRequest, CodeInvalidArguments, "An error occurred when validating the form.")
		e.ErrorLists = fe
		return e
	}

	if appErr, ok := errors.AsType[*Error](err); ok {
		return appErr
	}

	return NewInternal(err)
}
