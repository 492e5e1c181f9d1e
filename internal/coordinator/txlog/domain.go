// Package txlog records every state transition of a checkout transaction.
//
// Rows are append-only. The latest row for a checkout id is its current
// state; earlier rows show how it got there.
package txlog

import "time"

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Entry is one transition of one checkout.
type Entry struct {
	CheckoutID string
	Status     Status

	// Step is the step that just finished or failed. Empty for STARTED and
	// COMPLETED rows.
	Step string

	// Payload is the JSON cart snapshot, written on the STARTED row only.
	Payload string

	// Errors is a JSON array of error strings, "[]" when there are none.
	Errors string

	TraceID   string
	SpanID    string
	UpdatedAt time.Time
}

func (e *Entry) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}
