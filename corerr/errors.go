// Package corerr defines the typed error taxonomy returned across the logging core's API
// boundary. No panic ever crosses that boundary on the hot path; lifecycle calls return one of
// these via errors.Is/As instead.
package corerr

import "errors"

// Sentinel errors forming the taxonomy. Wrap with fmt.Errorf("...: %w", sentinel) to add context
// while keeping errors.Is working.
var (
	// ErrInvalidState is returned when an operation is rejected because the Manager (or a
	// component it owns) is not in the state the operation requires.
	ErrInvalidState = errors.New("logcore: invalid state")

	// ErrInvalidArgument is returned for rejected arguments: empty logger names, nil sinks,
	// negative sizes.
	ErrInvalidArgument = errors.New("logcore: invalid argument")

	// ErrResourceExhausted is returned when the record pool cannot grow or the hazard domain's
	// protection table is full.
	ErrResourceExhausted = errors.New("logcore: resource exhausted")

	// ErrTimeout is returned when a Flush or Shutdown deadline elapses before the pipeline
	// drains.
	ErrTimeout = errors.New("logcore: timeout")

	// ErrSinkError marks a failure local to a single sink; it is counted, never fatal to the
	// pipeline, and is not usually surfaced across the API boundary except via counters.
	ErrSinkError = errors.New("logcore: sink error")
)
