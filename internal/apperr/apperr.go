// Package apperr defines the tagged error kinds that drive response mapping.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for response mapping.
type Kind int

const (
	// Unexpected covers everything without a more specific kind.
	Unexpected Kind = iota
	// Validation means the client input was malformed.
	Validation
	// Unauthorized means the credentials were rejected.
	Unauthorized
	// NotFound means the requested resource does not exist.
	NotFound
	// Conflict means the resource already exists.
	Conflict
	// Upstream means a provider answered with a non-success status that is passed through.
	Upstream
	// Misconfigured means a required setting is missing.
	Misconfigured
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream"
	case Misconfigured:
		return "misconfigured"
	default:
		return "unexpected"
	}
}

// Violation is a single failed validation rule.
// Path is empty for form-level rules.
type Violation struct {
	Message string   `json:"message"`
	Path    []string `json:"path"`
}

// Error is a failure tagged with a Kind.
type Error struct {
	Kind       Kind
	Message    string
	Violations []Violation

	// Status and Detail are only set for Upstream errors.
	Status int
	Detail string

	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind carrying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Invalid returns a validation error listing every violation.
func Invalid(violations ...Violation) *Error {
	return &Error{Kind: Validation, Message: "Validation Error", Violations: violations}
}

// BadRequest returns a validation error with a specific message and no violation list.
func BadRequest(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

// Upstreamf returns an error that passes a provider status through to the caller.
func Upstreamf(status int, message, detail string) *Error {
	return &Error{Kind: Upstream, Message: message, Status: status, Detail: detail}
}

// MissingConfig reports a required setting that is not configured.
func MissingConfig(name string) *Error {
	return &Error{Kind: Misconfigured, Message: fmt.Sprintf("%s not configured", name)}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or Unexpected.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Unexpected
}
