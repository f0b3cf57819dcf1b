// Package errs defines the engine's error taxonomy.
//
// Typed errors let callers distinguish the failure classes that matter:
// validation failures are never retried, write conflicts are retried a
// bounded number of times, and missing or terminal-state records fail
// immediately. The HTTP layer maps each kind to a status code; nothing in
// the engine itself knows about HTTP.
package errs

import "fmt"

// ValidationError reports malformed input: a split that does not reconcile,
// bad percentages or weights, an unknown member ID shape.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidRateError reports a non-positive or inconsistent FX rate.
// The caller must re-fetch a rate; retrying with the same rate cannot help.
type InvalidRateError struct {
	Rate string
	Msg  string
}

func (e *InvalidRateError) Error() string {
	if e.Rate != "" {
		return fmt.Sprintf("%s: rate %s", e.Msg, e.Rate)
	}
	return e.Msg
}

// ConflictError reports a concurrent write collision on balance rows.
// The ledger retries these internally up to a bounded count before
// surfacing one to the caller.
type ConflictError struct {
	GroupID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent balance update for group %s", e.GroupID)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource and ID.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidStateError reports an operation against a record in the wrong
// state, e.g. completing an already-completed settlement.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// InvalidStatef builds an InvalidStateError from a format string.
func InvalidStatef(format string, args ...any) error {
	return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}
