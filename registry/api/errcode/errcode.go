// Package errcode defines the registry's error vocabulary, ported from
// the teacher's registry/api/errcode package: a closed set of named,
// HTTP-status-bearing error codes, registered once at init time, that
// serialize into the {"errors":[{"detail":...}]} envelope the publish,
// yank, unyank, index and archive endpoints all share.
package errcode

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents the error type. It is used to fill in the
// machine-usable `code` field.
type ErrorCode int

// ErrorDescriptor provides relevant information about a given ErrorCode.
type ErrorDescriptor struct {
	Code           ErrorCode
	Value          string
	Message        string
	Description    string
	HTTPStatusCode int
}

// ErrorCoder is implemented by error types that carry an ErrorCode.
type ErrorCoder interface {
	ErrorCode() ErrorCode
}

// Descriptor returns the descriptor for the given code.
func (ec ErrorCode) Descriptor() ErrorDescriptor {
	d, ok := errorCodeToDescriptors[ec]
	if !ok {
		return ErrorCodeUnknown.Descriptor()
	}
	return d
}

// String returns the canonical identifier, e.g. "NAME_INVALID".
func (ec ErrorCode) String() string {
	return ec.Descriptor().Value
}

// Message returns the human readable message for the error code.
func (ec ErrorCode) Message() string {
	return ec.Descriptor().Message
}

// MarshalJSON encodes the receiver into its string representation.
func (ec ErrorCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(ec.String())
}

// Error provides a wrapper around ErrorCode with a detail message, the
// shape returned in error envelopes.
type Error struct {
	Code    ErrorCode   `json:"code,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
	message string
}

var _ error = Error{}
var _ ErrorCoder = Error{}

// ErrorCode implements ErrorCoder.
func (e Error) ErrorCode() ErrorCode {
	return e.Code
}

// Error renders the message a caller sees when treating the error as a
// plain Go error. When Detail is set it is rendered verbatim with no
// added prefix, since this is also the literal string ServeJSON writes
// into the wire envelope's "detail" field (spec.md §7's error bodies
// carry the detail string unmodified, e.g. "Crate foo already has
// version 1.2.3"); the registered message is only a fallback for errors
// with no detail attached.
func (e Error) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("%v", e.Detail)
	}
	msg := e.message
	if msg == "" {
		msg = e.Code.Message()
	}
	return msg
}

// WithDetail returns a new Error with the given detail value attached.
func (ec ErrorCode) WithDetail(detail interface{}) Error {
	return Error{Code: ec, Detail: detail}
}

// WithMessage returns a new Error with a custom top-level message,
// overriding the registered descriptor's default message.
func (ec ErrorCode) WithMessage(message string) Error {
	return Error{Code: ec, message: message}
}

// errorEnvelope is the wire shape spec.md §6/§7 both require: bodies
// carry {"errors":[{"detail": string}]}, possibly empty.
type errorEnvelope struct {
	Detail string `json:"detail"`
}

// Errors is a slice of errors that renders as the JSON error envelope.
type Errors []error

var _ error = Errors{}

func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return "<nil>"
	case 1:
		return errs[0].Error()
	default:
		msg := "errors:\n"
		for _, err := range errs {
			msg += err.Error() + "\n"
		}
		return msg
	}
}

// MarshalJSON renders the {"errors":[...]} envelope.
func (errs Errors) MarshalJSON() ([]byte, error) {
	envelope := struct {
		Errors []errorEnvelope `json:"errors"`
	}{
		Errors: make([]errorEnvelope, len(errs)),
	}
	for i, err := range errs {
		envelope.Errors[i] = errorEnvelope{Detail: err.Error()}
	}
	return json.Marshal(envelope)
}

// ServeJSON writes err to w as the standard JSON error envelope, setting
// the status code from the most specific ErrorCoder it can find.
func ServeJSON(w http.ResponseWriter, err error) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	status := http.StatusInternalServerError
	var envelope Errors

	switch e := err.(type) {
	case Errors:
		envelope = e
		if len(e) > 0 {
			if coder, ok := e[0].(ErrorCoder); ok {
				status = coder.ErrorCode().Descriptor().HTTPStatusCode
			}
		}
	case ErrorCoder:
		envelope = Errors{err}
		status = e.ErrorCode().Descriptor().HTTPStatusCode
	default:
		envelope = Errors{err}
	}

	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(envelope)
}
