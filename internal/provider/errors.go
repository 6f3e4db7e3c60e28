package provider

import (
	"errors"
	"fmt"
)

// Kind classifies a normalized vendor failure. The sync engine's retry and
// skip decisions depend on these values, so adapters must map every vendor
// error onto exactly one of them.
type Kind string

const (
	// KindNotConfigured means the adapter has no usable credential. Treated
	// as a skip by the sync engine, not an error.
	KindNotConfigured Kind = "not_configured"

	// KindNotFound means the vendor confirmed the resource does not exist
	// (e.g. HTTP 404 for a recording). Terminal, not retryable.
	KindNotFound Kind = "not_found"

	// KindTransient covers network failures, timeouts, 429 and 5xx.
	// Retryable on the next sync pass.
	KindTransient Kind = "transient"

	// KindPermanent covers everything the vendor will keep rejecting
	// (auth failures, malformed requests).
	KindPermanent Kind = "permanent"
)

// Error is the normalized adapter error.
type Error struct {
	Kind   Kind
	Vendor string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", e.Vendor, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s (%s): %v", e.Vendor, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a normalized adapter error.
func NewError(kind Kind, vendor, op string, err error) *Error {
	return &Error{Kind: kind, Vendor: vendor, Op: op, Err: err}
}

// KindOf extracts the Kind from err. Unclassified errors report
// KindTransient: an unknown failure must never be treated as terminal.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsNotConfigured(err error) bool { return KindOf(err) == KindNotConfigured }
func IsTransient(err error) bool     { return KindOf(err) == KindTransient }

// KindFromStatus maps an HTTP status code onto the taxonomy. Shared by the
// HTTP-backed adapters so they classify consistently.
func KindFromStatus(status int) Kind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 401 || status == 403:
		return KindPermanent
	case status == 408 || status == 429 || status >= 500:
		return KindTransient
	default:
		return KindPermanent
	}
}
