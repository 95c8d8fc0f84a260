package model

import (
	"time"

	"github.com/google/uuid"
)

// Exit status codes returned by every invocation entry point.
const (
	ExitOK       = 0
	ExitFailed   = 1
	ExitInternal = 2
)

// ExitCodeFor maps an outcome to the invocation status code.
func ExitCodeFor(o Outcome) int {
	if o.IsSuccess() {
		return ExitOK
	}
	return ExitFailed
}

// RunRecord is a persisted summary of one reconciliation job.
type RunRecord struct {
	ID          string
	JobID       string
	TargetKind  TargetKind
	TargetID    string
	Kind        OutcomeKind
	Status      string
	OperationID string
	Polls       int
	Elapsed     time.Duration
	Error       string
	ExitCode    int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewRunRecord builds the history row for a finished job.
func NewRunRecord(jobID string, target Target, o Outcome, startedAt, finishedAt time.Time) RunRecord {
	rec := RunRecord{
		ID:          uuid.NewString(),
		JobID:       jobID,
		TargetKind:  target.Kind,
		TargetID:    target.ID,
		Kind:        o.Kind,
		Status:      o.Status(),
		OperationID: o.OperationID(),
		Polls:       o.Polls,
		Elapsed:     o.Elapsed,
		ExitCode:    ExitCodeFor(o),
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	return rec
}

// RunListOptions filters history queries.
type RunListOptions struct {
	TargetKind TargetKind
	TargetID   string
	Limit      int
}
