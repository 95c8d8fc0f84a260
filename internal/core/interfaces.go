package core

import (
	"context"
	"time"

	"github.com/target/opsrelay/internal/domain/model"
)

// This file contains the port definitions between the service layer and the
// adapters that talk to AWS, Redis and Postgres. Services depend on these
// interfaces, never on concrete SDK clients.

// StatusProbe queries one external resource's status. A probe is bound to its
// target at construction, performs no retry, and returns a ProbeError rather
// than a synthesized "pending" status when the provider call fails.
type StatusProbe interface {
	Poll(ctx context.Context) (model.StatusSnapshot, error)
}

// StatusProbeFunc adapts a function to the StatusProbe interface (useful for tests).
type StatusProbeFunc func(ctx context.Context) (model.StatusSnapshot, error)

// Poll implements StatusProbe.
func (f StatusProbeFunc) Poll(ctx context.Context) (model.StatusSnapshot, error) {
	return f(ctx)
}

// LogBackend is the durable log store addressed by LogStream.
type LogBackend interface {
	// DescribeStream returns whether the stream has entries and, if so, its current sequence token.
	DescribeStream(ctx context.Context, stream model.LogStream) (model.StreamDescription, error)
	// PutEvents appends entries. token must be nil for the first write to a stream.
	// A stale token is reported as a StaleToken error.
	PutEvents(ctx context.Context, stream model.LogStream, entries []model.LogEntry, token *string) error
}

// DiagnosticLog is what components use to emit durable diagnostics.
type DiagnosticLog interface {
	// Record appends msg to the durable log. Text is written verbatim; other
	// values are canonically encoded. Failures never propagate to the caller.
	Record(ctx context.Context, msg any)
}

// JobControl is the upstream job-control system (CodePipeline).
type JobControl interface {
	ReportSuccess(ctx context.Context, jobID string) error
	ReportFailure(ctx context.Context, jobID, message string) error
}

// ApprovalLookup resolves the latest manual approval of a pipeline.
type ApprovalLookup interface {
	LatestApproval(ctx context.Context, pipeline string) (model.Approval, error)
}

// InstanceController starts and stops compute instances.
type InstanceController interface {
	State(ctx context.Context, instanceID string) (string, error)
	Start(ctx context.Context, instanceID string) error
	Stop(ctx context.Context, instanceID string) error
}

// DomainManager lists and resizes search domains.
type DomainManager interface {
	ListDomains(ctx context.Context, contains string) ([]string, error)
	DescribeDomain(ctx context.Context, name string) (any, error)
	UpdateInstanceType(ctx context.Context, name, instanceType string) error
}

// CommitLookup reads commit and comment text from the version-control service.
type CommitLookup interface {
	CommitMessage(ctx context.Context, repository, commitID string) (string, error)
	CommentContent(ctx context.Context, commentID string) (string, error)
}

// TargetLease guards a target so that at most one reconciliation runs against it.
type TargetLease interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
	// Holder returns the current owner of key, or "" when it is free.
	Holder(ctx context.Context, key string) (string, error)
}

// RunRepository persists reconciliation history.
type RunRepository interface {
	Record(ctx context.Context, rec model.RunRecord) error
	List(ctx context.Context, opts model.RunListOptions) ([]model.RunRecord, error)
}
