package workflow

import (
	"errors"
	"fmt"
)

// ErrOperationInFlight is returned when a mutation is requested while another
// is outstanding. At most one remote mutation runs per coordinator; repeated
// submissions (double-clicks, replayed requests) are rejected at the boundary.
var ErrOperationInFlight = errors.New("another operation is already in progress")

// ErrNoActiveWorkflow is returned when a mutation is requested outside the
// processing stage.
var ErrNoActiveWorkflow = errors.New("no workflow is in the processing stage")

// ErrItemsUnresolved is returned when order creation is requested while new
// or insufficient-stock items remain.
var ErrItemsUnresolved = errors.New("unresolved items remain; the order cannot be created yet")

// EntryErrors holds field-level validation messages for one submitted entry.
type EntryErrors struct {
	Index  int               `json:"index"`
	Fields map[string]string `json:"fields"`
}

// InvalidEntriesError reports validation failures for a batch submission.
// These surface inline on the offending fields and never advance the machine.
type InvalidEntriesError struct {
	Entries []EntryErrors
}

func (e *InvalidEntriesError) Error() string {
	return fmt.Sprintf("%d entries failed validation", len(e.Entries))
}

// CriticalError tags a collaborator failure as non-recoverable; the workflow
// aborts to idle instead of offering retry.
type CriticalError struct {
	Err error
}

func (e *CriticalError) Error() string { return "critical: " + e.Err.Error() }
func (e *CriticalError) Unwrap() error { return e.Err }

// IsCritical reports whether any error in the chain is tagged critical.
func IsCritical(err error) bool {
	var ce *CriticalError
	return errors.As(err, &ce)
}
