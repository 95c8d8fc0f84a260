package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/service/notifier"
)

// InvocationOptions groups dependencies for Invocation.
type InvocationOptions struct {
	Reconciler *ReconcileService   // Required
	Reporter   *JobResultReporter  // Required
	Notifier   *notifier.Service   // Required
	Log        core.DiagnosticLog  // Required: durable diagnostics
	Lease      core.TargetLease    // Optional: at most one active job per target
	Runs       core.RunRepository  // Optional: run history
	Clock      core.Clock          // Optional: defaults to RealClock
	Logger     *slog.Logger        // Optional: structured logger

	// LeaseMargin is added to a job's deadline to form the lease TTL.
	LeaseMargin time.Duration
	// LeasePrefix namespaces lease keys.
	LeasePrefix string
}

// Invocation sequences one triggered run: reconcile, then report to job
// control, then notify, each exactly once.
type Invocation struct {
	reconciler  *ReconcileService
	reporter    *JobResultReporter
	notifier    *notifier.Service
	log         core.DiagnosticLog
	lease       core.TargetLease
	runs        core.RunRepository
	clock       core.Clock
	logger      *slog.Logger
	leaseMargin time.Duration
	leasePrefix string
}

// NewInvocation constructs an Invocation.
func NewInvocation(opts InvocationOptions) (*Invocation, error) {
	switch {
	case opts.Reconciler == nil:
		return nil, errors.New("reconciler is required")
	case opts.Reporter == nil:
		return nil, errors.New("job result reporter is required")
	case opts.Notifier == nil:
		return nil, errors.New("notifier is required")
	case opts.Log == nil:
		return nil, errors.New("diagnostic log is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = core.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Invocation{
		reconciler:  opts.Reconciler,
		reporter:    opts.Reporter,
		notifier:    opts.Notifier,
		log:         opts.Log,
		lease:       opts.Lease,
		runs:        opts.Runs,
		clock:       clock,
		logger:      logger.With("component", "invocation"),
		leaseMargin: opts.LeaseMargin,
		leasePrefix: opts.LeasePrefix,
	}, nil
}

// Log returns the diagnostic log shared by the invocation's components.
func (inv *Invocation) Log() core.DiagnosticLog {
	return inv.log
}

// Reporter returns the job result reporter.
func (inv *Invocation) Reporter() *JobResultReporter {
	return inv.reporter
}

// Notifier returns the notification sender.
func (inv *Invocation) Notifier() *notifier.Service {
	return inv.notifier
}

// WatchRequest describes one reconciliation and how to report it.
type WatchRequest struct {
	// JobID is the job-control id; empty for scheduled invocations.
	JobID    string
	Job      core.ReconciliationJob
	Messages notifier.Messages
}

// WatchResult is the result of Watch.
type WatchResult struct {
	Outcome model.Outcome
	// Skipped is set when another invocation holds the target lease.
	Skipped bool
	// Rejected is set when the target was busy and the job was reported failed.
	Rejected bool
}

// ExitCode maps the result to a process status.
func (r WatchResult) ExitCode() int {
	switch {
	case r.Rejected:
		return model.ExitFailed
	case r.Skipped:
		return model.ExitOK
	}
	return model.ExitCodeFor(r.Outcome)
}

// Watch runs req.Job to an outcome, reports it to job control, then notifies.
//
// When a lease is configured and already held for the target nothing is
// polled. A scheduled run or a redelivery of the job holding the lease is
// skipped; any other job is reported failed so it does not hang upstream.
func (inv *Invocation) Watch(ctx context.Context, req WatchRequest) WatchResult {
	start := inv.clock.Now()

	lease := inv.acquire(ctx, req.Job)
	if lease.held {
		return inv.busy(ctx, req, lease)
	}
	defer lease.release()

	outcome := inv.reconciler.Reconcile(ctx, req.Job)

	// Reporting must still happen when the loop was canceled.
	reportCtx := context.WithoutCancel(ctx)
	_ = inv.reporter.Report(reportCtx, req.JobID, outcome)
	inv.notifier.Notify(reportCtx, outcome, req.Job.Target, req.Messages)

	inv.recordRun(reportCtx, req, outcome, start)
	return WatchResult{Outcome: outcome}
}

type targetLease struct {
	key     string
	owner   string
	held    bool
	release func()
}

// busy handles a target whose lease belongs to someone else.
func (inv *Invocation) busy(ctx context.Context, req WatchRequest, lease targetLease) WatchResult {
	target := req.Job.Target
	if req.JobID == "" {
		inv.log.Record(ctx, fmt.Sprintf("[LEASE] %s is already being watched; skipping", target))
		return WatchResult{Skipped: true}
	}

	holder, err := inv.lease.Holder(ctx, lease.key)
	switch {
	case err != nil:
		inv.logger.WarnContext(ctx, "target lease holder lookup failed", "key", lease.key, "error", err)
	case holder == lease.owner:
		inv.log.Record(ctx, fmt.Sprintf("[LEASE] job %s is already watching %s; skipping redelivery", req.JobID, target))
		return WatchResult{Skipped: true}
	}

	inv.log.Record(ctx, fmt.Sprintf("[LEASE] %s is held by %q; rejecting job %s", target, holder, req.JobID))
	_ = inv.reporter.ReportFailure(context.WithoutCancel(ctx), req.JobID, fmt.Sprintf("%s is already being watched", target))
	return WatchResult{Skipped: true, Rejected: true}
}

// acquire takes the target lease. held is true only when another owner has
// it; lease errors are logged and the watch proceeds unguarded.
func (inv *Invocation) acquire(ctx context.Context, job core.ReconciliationJob) targetLease {
	lease := targetLease{release: func() {}}
	if inv.lease == nil {
		return lease
	}

	lease.key = inv.leasePrefix + job.Target.Key()
	lease.owner = job.ID
	if lease.owner == "" {
		lease.owner = lease.key + "@" + inv.clock.Now().UTC().Format(time.RFC3339Nano)
	}
	ttl := job.Deadline + inv.leaseMargin

	ok, err := inv.lease.Acquire(ctx, lease.key, lease.owner, ttl)
	if err != nil {
		inv.logger.WarnContext(ctx, "target lease unavailable; continuing without it", "key", lease.key, "error", err)
		inv.log.Record(ctx, fmt.Sprintf("[LEASE] could not acquire %s: %v", lease.key, err))
		return lease
	}
	if !ok {
		lease.held = true
		return lease
	}

	key, owner := lease.key, lease.owner
	lease.release = func() {
		if err := inv.lease.Release(context.WithoutCancel(ctx), key, owner); err != nil {
			inv.logger.WarnContext(ctx, "target lease release failed", "key", key, "error", err)
		}
	}
	return lease
}

func (inv *Invocation) recordRun(ctx context.Context, req WatchRequest, o model.Outcome, start time.Time) {
	if inv.runs == nil {
		return
	}
	rec := model.NewRunRecord(req.JobID, req.Job.Target, o, start, inv.clock.Now())
	if err := inv.runs.Record(ctx, rec); err != nil && !apperrors.IsConflict(err) {
		inv.logger.WarnContext(ctx, "run history write failed", "run_id", rec.ID, "error", err)
		inv.log.Record(ctx, "[HISTORY] run history write failed: "+err.Error())
	}
}

// Run brackets fn with the start and finish diagnostics and returns its status.
// A panic inside fn is recovered and reported as an internal failure.
func (inv *Invocation) Run(ctx context.Context, event any, fn func(ctx context.Context) int) (status int) {
	inv.log.Record(ctx, "[START] Starting Script")
	if event != nil {
		inv.log.Record(ctx, event)
	}

	defer func() {
		if r := recover(); r != nil {
			inv.logger.ErrorContext(ctx, "invocation panicked", "panic", r, "stack", string(debug.Stack()))
			inv.log.Record(ctx, fmt.Sprintf("[ERROR] internal failure: %v", r))
			status = model.ExitInternal
		}
		inv.log.Record(context.WithoutCancel(ctx), fmt.Sprintf("[FINISH] Finished running script status=%d", status))
	}()

	return fn(ctx)
}
