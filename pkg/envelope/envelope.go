// Package envelope normalizes backend replies into a single
// success/failure contract with a fixed error taxonomy.
package envelope

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a failure for handling and observability.
type Kind string

const (
	// KindNetwork represents transport or parse failures.
	KindNetwork Kind = "network"

	// KindAuth represents invalid or expired credentials.
	KindAuth Kind = "auth"

	// KindCSRF represents anti-forgery token mismatches.
	KindCSRF Kind = "csrf"

	// KindValidation represents per-field input errors.
	KindValidation Kind = "validation"

	// KindGeneric represents any other failure, carrying a message.
	KindGeneric Kind = "generic"
)

// Pagination carries cursor metadata from a paginated list reply.
type Pagination struct {
	Next     string `json:"next"`
	Previous string `json:"previous"`
	PageSize int    `json:"page_size"`
}

// Success is the success variant of an envelope.
type Success struct {
	Data       json.RawMessage
	Message    string
	Pagination *Pagination
}

// Failure is the failure variant of an envelope. It implements error so
// callers can propagate it directly.
type Failure struct {
	StatusCode  int
	Message     string
	Kind        Kind
	FieldErrors map[string][]string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("scribe %s error (status %d): %s", f.Kind, f.StatusCode, f.Message)
}

// Envelope is the uniform result of every gateway call.
// Exactly one of Success or Failure is non-nil.
type Envelope struct {
	Success *Success
	Failure *Failure
}

// OK reports whether the envelope is the success variant.
func (e Envelope) OK() bool {
	return e.Success != nil
}

// Err returns the failure as an error, or nil on success.
func (e Envelope) Err() error {
	if e.Failure != nil {
		return e.Failure
	}
	return nil
}

// NetworkFailure wraps a transport-level error as a failure envelope.
// The gateway uses it for unreachable hosts and unparseable bodies.
func NetworkFailure(err error) Envelope {
	msg := "network error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Failure: &Failure{
		Kind:    KindNetwork,
		Message: msg,
	}}
}
