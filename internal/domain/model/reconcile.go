// Package model defines the core data types shared by the opsrelay reconciliation and logging services.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TargetKind identifies which external resource kind a reconciliation watches.
type TargetKind string

const (
	// TargetDeploymentGroup is a CodeDeploy deployment group.
	TargetDeploymentGroup TargetKind = "deployment-group"
	// TargetInstance is an EC2 instance.
	TargetInstance TargetKind = "instance"
	// TargetDomain is an Elasticsearch domain.
	TargetDomain TargetKind = "domain"
)

// Target identifies the single resource a reconciliation job is bound to.
type Target struct {
	Kind TargetKind
	// ID is the provider identifier (group name, instance id, domain name).
	ID string
	// Name is a human label such as the environment ("Dev", "Prod"). Optional.
	Name string
}

// Key returns a stable identifier usable for leases and history lookups.
func (t Target) Key() string {
	return string(t.Kind) + ":" + t.ID
}

// String renders the target for log lines and messages.
func (t Target) String() string {
	if t.Name == "" || t.Name == t.ID {
		return t.Key()
	}
	return fmt.Sprintf("%s (%s)", t.Key(), t.Name)
}

// StatusSnapshot is one observation returned by a status probe.
// Snapshots are produced fresh on every poll and never cached.
type StatusSnapshot struct {
	// Status is the provider's raw status code ("Succeeded", "running", "Active", ...).
	Status string
	// OperationID identifies the underlying operation (deployment id, instance id, domain ARN).
	OperationID string
	ObservedAt  time.Time
	// Detail carries optional provider sub-states for diagnostics.
	Detail map[string]string
}

// OutcomeKind classifies how a reconciliation job ended.
type OutcomeKind string

const (
	// OutcomeSucceeded means the probe reported the success status.
	OutcomeSucceeded OutcomeKind = "succeeded"
	// OutcomeFailed means the job ended on a failure status, persistent probe errors, or cancellation.
	OutcomeFailed OutcomeKind = "failed"
	// OutcomeTimedOut means the deadline elapsed without a terminal status.
	OutcomeTimedOut OutcomeKind = "timed_out"
)

// Outcome is the immutable final classification of a reconciliation job.
type Outcome struct {
	Kind OutcomeKind
	// Snapshot is the last observed snapshot, nil when no poll ever succeeded.
	Snapshot *StatusSnapshot
	// Err explains Failed outcomes (probe error, cancellation) and TimedOut outcomes.
	Err error
	// Elapsed is the blocking time spent waiting between polls.
	Elapsed time.Duration
	Polls   int
}

// Succeeded builds a success outcome.
func Succeeded(snap StatusSnapshot, elapsed time.Duration, polls int) Outcome {
	return Outcome{Kind: OutcomeSucceeded, Snapshot: &snap, Elapsed: elapsed, Polls: polls}
}

// Failed builds a failure outcome. snap may be nil.
func Failed(snap *StatusSnapshot, err error, elapsed time.Duration, polls int) Outcome {
	return Outcome{Kind: OutcomeFailed, Snapshot: snap, Err: err, Elapsed: elapsed, Polls: polls}
}

// TimedOut builds a timeout outcome carrying the last observed snapshot.
func TimedOut(last *StatusSnapshot, err error, elapsed time.Duration, polls int) Outcome {
	return Outcome{Kind: OutcomeTimedOut, Snapshot: last, Err: err, Elapsed: elapsed, Polls: polls}
}

// IsSuccess reports whether the outcome is Succeeded.
func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeSucceeded
}

// Status returns the last observed status or "unknown".
func (o Outcome) Status() string {
	if o.Snapshot == nil || o.Snapshot.Status == "" {
		return "unknown"
	}
	return o.Snapshot.Status
}

// OperationID returns the last observed operation id or "".
func (o Outcome) OperationID() string {
	if o.Snapshot == nil {
		return ""
	}
	return o.Snapshot.OperationID
}

// Summary renders a one-line description of the outcome, used for job-control failure messages.
func (o Outcome) Summary() string {
	var b strings.Builder
	b.WriteString(string(o.Kind))
	b.WriteString(": last status ")
	b.WriteString(o.Status())
	if id := o.OperationID(); id != "" {
		b.WriteString(" (")
		b.WriteString(id)
		b.WriteByte(')')
	}
	fmt.Fprintf(&b, " after %s and %d polls", o.Elapsed.Round(time.Second), o.Polls)
	if o.Err != nil {
		b.WriteString(": ")
		b.WriteString(o.Err.Error())
	}
	return b.String()
}
