package core

import (
	"context"
	"slices"
	"time"

	"github.com/target/opsrelay/internal/domain/model"
)

// StatusPredicate decides whether a snapshot is terminal.
type StatusPredicate func(model.StatusSnapshot) bool

// StatusIs returns a predicate matching any of the given status codes exactly.
func StatusIs(statuses ...string) StatusPredicate {
	return func(s model.StatusSnapshot) bool {
		return slices.Contains(statuses, s.Status)
	}
}

// ReconciliationJob binds one probe to one target with its time budget.
// It is owned by the loop that runs it and discarded once an outcome exists.
type ReconciliationJob struct {
	ID           string
	Target       model.Target
	Probe        StatusProbe
	Deadline     time.Duration
	PollInterval time.Duration
	IsSuccess    StatusPredicate
	// IsFailure is optional. When nil, every non-success status is treated as in progress.
	IsFailure StatusPredicate
}

// Clock abstracts the passage of time for the reconciliation loop.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock with the system clock.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d unless ctx is cancelled first.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
