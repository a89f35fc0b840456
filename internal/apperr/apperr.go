// Package apperr defines the error taxonomy shared by the chat engine and its
// collaborators. Handlers inspect the Kind to decide how loudly to report a
// failure; every kind except configuration is recoverable at the command level.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindPermission    Kind = "permission"
	KindConfiguration Kind = "configuration"
	KindTransport     Kind = "transport"
	KindValidation    Kind = "validation"
	KindParse         Kind = "parse"
)

// Error is a classified error with an optional operation name and cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies cause under kind. A nil cause yields nil.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: string(kind), Err: cause}
}

func NotFound(op, message string) error      { return New(KindNotFound, op, message) }
func Permission(op, message string) error    { return New(KindPermission, op, message) }
func Configuration(op, message string) error { return New(KindConfiguration, op, message) }
func Validation(op, message string) error    { return New(KindValidation, op, message) }

// Transport wraps a network or provider failure.
func Transport(op string, cause error) error { return Wrap(KindTransport, op, cause) }

// Parse wraps a decoding failure.
func Parse(op string, cause error) error { return Wrap(KindParse, op, cause) }

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsPermission(err error) bool    { return KindOf(err) == KindPermission }
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }
func IsTransport(err error) bool     { return KindOf(err) == KindTransport }
func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsParse(err error) bool         { return KindOf(err) == KindParse }
