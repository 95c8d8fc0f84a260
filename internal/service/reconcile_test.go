package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/testutil"
)

// recordingLog captures diagnostics in order.
type recordingLog struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingLog) Record(_ context.Context, msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, FormatDiagnostic(msg))
}

func (r *recordingLog) withPrefix(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

type probeStep struct {
	status string
	err    error
}

// scriptedProbe replays steps in order and repeats the last one forever.
type scriptedProbe struct {
	steps []probeStep
	calls int
}

func (p *scriptedProbe) Poll(_ context.Context) (model.StatusSnapshot, error) {
	step := p.steps[min(p.calls, len(p.steps)-1)]
	p.calls++
	if step.err != nil {
		return model.StatusSnapshot{}, step.err
	}
	return model.StatusSnapshot{Status: step.status, OperationID: "d-123"}, nil
}

func statuses(ss ...string) []probeStep {
	steps := make([]probeStep, len(ss))
	for i, s := range ss {
		steps[i] = probeStep{status: s}
	}
	return steps
}

var deployTarget = model.Target{Kind: model.TargetDeploymentGroup, ID: "web-prod", Name: "Prod"}

func newTestReconciler(maxFailures, logEvery int) (*ReconcileService, *testutil.FakeClock, *recordingLog) {
	clock := testutil.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	log := &recordingLog{}
	svc := NewReconcileService(ReconcileServiceOptions{
		Clock:            clock,
		Log:              log,
		Logger:           discardLogger(),
		MaxProbeFailures: maxFailures,
		LogEvery:         logEvery,
	})
	return svc, clock, log
}

func deployJob(probe core.StatusProbe, interval, deadline time.Duration) core.ReconciliationJob {
	return core.ReconciliationJob{
		ID:           "job-1",
		Target:       deployTarget,
		Probe:        probe,
		PollInterval: interval,
		Deadline:     deadline,
		IsSuccess:    core.StatusIs("Succeeded"),
	}
}

func TestReconcile_SucceedsAfterTwoSleeps(t *testing.T) {
	svc, clock, _ := newTestReconciler(3, 1)
	probe := &scriptedProbe{steps: statuses("InProgress", "InProgress", "Succeeded")}

	o := svc.Reconcile(context.Background(), deployJob(probe, 10*time.Second, 60*time.Second))

	assert.Equal(t, model.OutcomeSucceeded, o.Kind)
	assert.Equal(t, "Succeeded", o.Status())
	assert.Equal(t, "d-123", o.OperationID())
	assert.Equal(t, 3, o.Polls)
	assert.Equal(t, 3, probe.calls)
	assert.Equal(t, 20*time.Second, o.Elapsed)
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, clock.Sleeps())
	assert.NoError(t, o.Err)
}

func TestReconcile_SuccessOnPollK(t *testing.T) {
	for k := 1; k <= 5; k++ {
		svc, clock, _ := newTestReconciler(3, 1)
		steps := make([]string, k)
		for i := range steps {
			steps[i] = "Created"
		}
		steps[k-1] = "Succeeded"
		probe := &scriptedProbe{steps: statuses(steps...)}

		o := svc.Reconcile(context.Background(), deployJob(probe, 15*time.Second, 240*time.Second))

		require.True(t, o.IsSuccess(), "k=%d", k)
		assert.Equal(t, k, probe.calls, "k=%d", k)
		assert.Equal(t, k, o.Polls)
		assert.Len(t, clock.Sleeps(), k-1)
	}
}

func TestReconcile_ConstantPendingTimesOut(t *testing.T) {
	svc, clock, log := newTestReconciler(3, 4)
	probe := &scriptedProbe{steps: statuses("InProgress")}

	o := svc.Reconcile(context.Background(), deployJob(probe, 15*time.Second, 240*time.Second))

	assert.Equal(t, model.OutcomeTimedOut, o.Kind)
	assert.Equal(t, 16, o.Polls)
	assert.Equal(t, 16, probe.calls)
	assert.Equal(t, 240*time.Second, o.Elapsed)
	assert.Equal(t, 240*time.Second, clock.Slept())
	require.NotNil(t, o.Snapshot)
	assert.Equal(t, "InProgress", o.Status())
	assert.True(t, apperrors.IsTimeout(o.Err))

	assert.Len(t, log.withPrefix("[RECONCILE]"), 1)
	assert.Len(t, log.withPrefix("[OUTCOME]"), 1)
	// first poll (status change) plus polls 4, 8, 12 and 16
	assert.Len(t, log.withPrefix("[POLL"), 5)
}

func TestReconcile_TimeoutBlockingTimeWithinOneInterval(t *testing.T) {
	cases := []struct {
		interval time.Duration
		deadline time.Duration
	}{
		{15 * time.Second, 240 * time.Second},
		{10 * time.Second, 25 * time.Second},
		{7 * time.Second, 7 * time.Second},
		{30 * time.Second, 100 * time.Second},
	}

	for _, tc := range cases {
		svc, clock, _ := newTestReconciler(0, 1)
		probe := &scriptedProbe{steps: statuses("Pending")}

		o := svc.Reconcile(context.Background(), deployJob(probe, tc.interval, tc.deadline))

		require.Equal(t, model.OutcomeTimedOut, o.Kind)
		slept := clock.Slept()
		assert.GreaterOrEqual(t, slept, tc.deadline, "%v/%v", tc.interval, tc.deadline)
		assert.Less(t, slept, tc.deadline+tc.interval, "%v/%v", tc.interval, tc.deadline)
		assert.Equal(t, slept, o.Elapsed)
	}
}

func TestReconcile_ProbeErrorsEscalateAfterThreshold(t *testing.T) {
	svc, _, _ := newTestReconciler(3, 1)
	boom := errors.New("ThrottlingException")
	probe := &scriptedProbe{steps: []probeStep{
		{status: "InProgress"},
		{err: boom},
		{err: boom},
		{err: boom},
	}}

	o := svc.Reconcile(context.Background(), deployJob(probe, 15*time.Second, 240*time.Second))

	assert.Equal(t, model.OutcomeFailed, o.Kind)
	assert.Equal(t, 4, o.Polls)
	assert.True(t, apperrors.IsProbe(o.Err))
	assert.ErrorIs(t, o.Err, boom)
	// last good snapshot survives
	assert.Equal(t, "InProgress", o.Status())
}

func TestReconcile_ProbeErrorCounterResetsOnSuccess(t *testing.T) {
	svc, _, _ := newTestReconciler(2, 1)
	boom := errors.New("connection reset")
	probe := &scriptedProbe{steps: []probeStep{
		{err: boom},
		{status: "InProgress"},
		{err: boom},
		{status: "InProgress"},
		{err: boom},
		{status: "Succeeded"},
	}}

	o := svc.Reconcile(context.Background(), deployJob(probe, 15*time.Second, 240*time.Second))

	assert.True(t, o.IsSuccess())
	assert.Equal(t, 6, o.Polls)
}

func TestReconcile_ZeroMaxProbeFailuresWaitsForDeadline(t *testing.T) {
	svc, _, _ := newTestReconciler(0, 1)
	probe := &scriptedProbe{steps: []probeStep{{err: errors.New("boom")}}}

	o := svc.Reconcile(context.Background(), deployJob(probe, 15*time.Second, 60*time.Second))

	assert.Equal(t, model.OutcomeTimedOut, o.Kind)
	assert.Equal(t, 4, o.Polls)
	assert.Nil(t, o.Snapshot)
	assert.Equal(t, "unknown", o.Status())
}

func TestReconcile_FailurePredicateIsOptIn(t *testing.T) {
	svc, _, _ := newTestReconciler(3, 1)

	// without IsFailure, Failed is just another non-success status
	probe := &scriptedProbe{steps: statuses("Failed")}
	o := svc.Reconcile(context.Background(), deployJob(probe, 15*time.Second, 45*time.Second))
	assert.Equal(t, model.OutcomeTimedOut, o.Kind)
	assert.Equal(t, 3, o.Polls)

	probe = &scriptedProbe{steps: statuses("InProgress", "Failed")}
	job := deployJob(probe, 15*time.Second, 240*time.Second)
	job.IsFailure = core.StatusIs("Failed", "Stopped")
	o = svc.Reconcile(context.Background(), job)
	assert.Equal(t, model.OutcomeFailed, o.Kind)
	assert.Equal(t, 2, o.Polls)
	assert.True(t, apperrors.IsFailedStatus(o.Err))
	assert.Equal(t, "Failed", o.Status())
}

func TestReconcile_CancellationDuringSleep(t *testing.T) {
	svc, clock, log := newTestReconciler(3, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock.OnSleep = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	probe := &scriptedProbe{steps: statuses("InProgress")}

	o := svc.Reconcile(ctx, deployJob(probe, 15*time.Second, 240*time.Second))

	assert.Equal(t, model.OutcomeFailed, o.Kind)
	assert.True(t, apperrors.IsCanceled(o.Err))
	assert.ErrorIs(t, o.Err, context.Canceled)
	assert.Equal(t, 2, o.Polls)
	assert.Len(t, log.withPrefix("[OUTCOME]"), 1)
}

func TestReconcile_AlreadyCanceledNeverPolls(t *testing.T) {
	svc, _, _ := newTestReconciler(3, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	probe := &scriptedProbe{steps: statuses("Succeeded")}

	o := svc.Reconcile(ctx, deployJob(probe, 15*time.Second, 240*time.Second))

	assert.Equal(t, model.OutcomeFailed, o.Kind)
	assert.Equal(t, 0, probe.calls)
}

func TestReconcile_ProbeReturningContextErrorIsCancellation(t *testing.T) {
	svc, _, _ := newTestReconciler(3, 1)
	ctx, cancel := context.WithCancel(context.Background())
	probe := core.StatusProbeFunc(func(context.Context) (model.StatusSnapshot, error) {
		cancel()
		return model.StatusSnapshot{}, context.Canceled
	})

	o := svc.Reconcile(ctx, deployJob(probe, 15*time.Second, 240*time.Second))

	assert.Equal(t, model.OutcomeFailed, o.Kind)
	assert.True(t, apperrors.IsCanceled(o.Err))
	assert.False(t, apperrors.IsProbe(o.Err))
}

func TestReconcile_InvalidJob(t *testing.T) {
	svc, _, log := newTestReconciler(3, 1)

	o := svc.Reconcile(context.Background(), core.ReconciliationJob{Target: deployTarget})

	assert.Equal(t, model.OutcomeFailed, o.Kind)
	assert.True(t, apperrors.IsInternal(o.Err))
	assert.Len(t, log.withPrefix("[OUTCOME]"), 1)
}

func TestReconcile_StampsObservedAt(t *testing.T) {
	svc, clock, _ := newTestReconciler(3, 1)
	probe := &scriptedProbe{steps: statuses("InProgress", "Succeeded")}

	o := svc.Reconcile(context.Background(), deployJob(probe, 15*time.Second, 240*time.Second))

	require.NotNil(t, o.Snapshot)
	assert.Equal(t, clock.Now(), o.Snapshot.ObservedAt)
}
