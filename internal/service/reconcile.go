package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/observability/metrics"
	"github.com/target/opsrelay/internal/observability/statsd"
)

// ReconcileServiceOptions groups dependencies for ReconcileService.
type ReconcileServiceOptions struct {
	Clock   core.Clock         // Optional: defaults to RealClock
	Log     core.DiagnosticLog // Optional: durable diagnostics
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink (StatsD-compatible)

	// MaxProbeFailures is the consecutive probe error count that ends a job as Failed.
	// Zero never escalates; probe errors then wait out the deadline.
	MaxProbeFailures int
	// LogEvery throttles per-poll diagnostics; status changes are always recorded.
	LogEvery int
}

// ReconcileService runs the bounded poll-until-terminal loop.
type ReconcileService struct {
	clock            core.Clock
	log              core.DiagnosticLog
	logger           *slog.Logger
	metrics          statsd.Sink
	maxProbeFailures int
	logEvery         int
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(opts ReconcileServiceOptions) *ReconcileService {
	clock := opts.Clock
	if clock == nil {
		clock = core.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logEvery := opts.LogEvery
	if logEvery < 1 {
		logEvery = 1
	}
	maxFailures := opts.MaxProbeFailures
	if maxFailures < 0 {
		maxFailures = 0
	}

	return &ReconcileService{
		clock:            clock,
		log:              opts.Log,
		logger:           logger.With("component", "reconcile_service"),
		metrics:          opts.Metrics,
		maxProbeFailures: maxFailures,
		logEvery:         logEvery,
	}
}

// loopState is the mutable bookkeeping of one Reconcile call.
type loopState struct {
	job         core.ReconciliationJob
	elapsed     time.Duration
	polls       int
	consecutive int
	last        *model.StatusSnapshot
}

// Reconcile polls job.Probe until it reports a terminal status or the
// deadline elapses, and returns exactly one Outcome.
//
// Elapsed time is the sum of the intervals slept; the job times out once it
// reaches job.Deadline. Probe errors are transient until MaxProbeFailures of
// them occur in a row. Cancellation of ctx yields a Failed outcome.
func (s *ReconcileService) Reconcile(ctx context.Context, job core.ReconciliationJob) model.Outcome {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Probe == nil || job.IsSuccess == nil {
		return s.finish(ctx, job, model.Failed(nil, apperrors.Internal("reconciliation job needs a probe and a success predicate"), 0, 0))
	}
	if job.PollInterval <= 0 {
		return s.finish(ctx, job, model.Failed(nil, apperrors.Internal("poll interval must be positive"), 0, 0))
	}

	s.record(ctx, fmt.Sprintf("[RECONCILE] job %s watching %s every %s for up to %s",
		job.ID, job.Target, job.PollInterval, job.Deadline))

	st := &loopState{job: job}
	for {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, job, model.Failed(st.last, apperrors.Canceled(err), st.elapsed, st.polls))
		}

		if outcome, done := s.poll(ctx, st); done {
			return s.finish(ctx, job, outcome)
		}

		if err := s.clock.Sleep(ctx, job.PollInterval); err != nil {
			return s.finish(ctx, job, model.Failed(st.last, apperrors.Canceled(err), st.elapsed, st.polls))
		}
		st.elapsed += job.PollInterval

		if st.elapsed >= job.Deadline {
			err := apperrors.Timeoutf("%s did not reach a terminal status within %s", job.Target, job.Deadline)
			return s.finish(ctx, job, model.TimedOut(st.last, err, st.elapsed, st.polls))
		}
	}
}

// poll performs one probe call and reports whether it produced a terminal outcome.
func (s *ReconcileService) poll(ctx context.Context, st *loopState) (model.Outcome, bool) {
	job := st.job
	snap, err := job.Probe.Poll(ctx)
	st.polls++
	metrics.EmitPoll(s.metrics, job.Target.Kind, err)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return model.Failed(st.last, apperrors.Canceled(ctxErr), st.elapsed, st.polls), true
		}
		if !apperrors.IsProbe(err) {
			err = apperrors.Probe(err, job.Target.Key())
		}
		st.consecutive++
		s.record(ctx, fmt.Sprintf("[POLL %d] %s probe error (%d consecutive): %v",
			st.polls, job.Target, st.consecutive, err))
		if s.maxProbeFailures > 0 && st.consecutive >= s.maxProbeFailures {
			return model.Failed(st.last, err, st.elapsed, st.polls), true
		}
		return model.Outcome{}, false
	}

	st.consecutive = 0
	if snap.ObservedAt.IsZero() {
		snap.ObservedAt = s.clock.Now()
	}
	changed := st.last == nil || st.last.Status != snap.Status
	st.last = &snap

	if changed || st.polls%s.logEvery == 0 {
		s.record(ctx, fmt.Sprintf("[POLL %d] %s status=%s operation=%s elapsed=%s",
			st.polls, job.Target, snap.Status, snap.OperationID, st.elapsed))
	}

	switch {
	case job.IsSuccess(snap):
		return model.Succeeded(snap, st.elapsed, st.polls), true
	case job.IsFailure != nil && job.IsFailure(snap):
		return model.Failed(&snap, apperrors.FailedStatus(job.Target.Key(), snap.Status), st.elapsed, st.polls), true
	}
	return model.Outcome{}, false
}

func (s *ReconcileService) finish(ctx context.Context, job core.ReconciliationJob, o model.Outcome) model.Outcome {
	s.record(ctx, fmt.Sprintf("[OUTCOME] job %s %s %s", job.ID, job.Target, o.Summary()))
	metrics.EmitOutcome(s.metrics, job.Target.Kind, o)
	return o
}

func (s *ReconcileService) record(ctx context.Context, msg string) {
	if s.log != nil {
		s.log.Record(ctx, msg)
		return
	}
	s.logger.InfoContext(ctx, msg)
}
