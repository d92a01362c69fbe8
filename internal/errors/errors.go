// Package errors defines the error taxonomy shared by discovery, probing,
// fetching and persistence.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrDiscoveryEmpty marks a cycle in which no matching process was found.
// It is informational and never returned as a failure.
var ErrDiscoveryEmpty = stderrors.New("no language server process found")

// CapabilityError reports that a required OS tool is missing on the host.
type CapabilityError struct {
	Err  error
	Tool string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("discovery tool %q unavailable: %v", e.Tool, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// ProbeError is a single failed request against one port and scheme.
type ProbeError struct {
	Err    error
	Scheme string
	Port   int
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s://127.0.0.1:%d failed: %v", e.Scheme, e.Port, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// ProtocolFallbackError reports that both the TLS and the plaintext attempt failed.
type ProtocolFallbackError struct {
	TLSErr  error
	HTTPErr error
	Port    int
}

func (e *ProtocolFallbackError) Error() string {
	return fmt.Sprintf("port %d rejected https (%v) and http (%v)", e.Port, e.TLSErr, e.HTTPErr)
}

func (e *ProtocolFallbackError) Unwrap() []error {
	return []error{e.TLSErr, e.HTTPErr}
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Body   string
	Status int
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// ValidationError reports well-formed but semantically incomplete account data.
// Code is a short, bounded identifier suitable for metric labels.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid account data: %s", e.Reason)
}

// PersistenceError reports a failed write to the key-value or secret store.
type PersistenceError struct {
	Err error
	Key string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CycleError wraps an unexpected failure that escaped a whole poll cycle.
type CycleError struct {
	Err error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("poll cycle aborted: %v", e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// IsCapability reports whether err is or wraps a CapabilityError.
func IsCapability(err error) bool {
	var ce *CapabilityError
	return stderrors.As(err, &ce)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// IsStatus reports whether err carries one of the given HTTP status codes.
func IsStatus(err error, codes ...int) bool {
	var se *StatusError
	if !stderrors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.Status == c {
			return true
		}
	}
	return false
}
