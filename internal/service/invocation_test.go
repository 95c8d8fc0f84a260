package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/mocks"
	"github.com/target/opsrelay/internal/observability/notify"
	"github.com/target/opsrelay/internal/service/notifier"
	"github.com/target/opsrelay/internal/testutil"
)

// callOrder records cross-component call order.
type callOrder struct {
	mu    sync.Mutex
	calls []string
}

func (c *callOrder) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

type invocationHarness struct {
	inv     *Invocation
	clock   *testutil.FakeClock
	log     *recordingLog
	control *mocks.MockJobControl
	lease   *mocks.MockTargetLease
	runs    *mocks.MockRunRepository
	order   *callOrder
	sent    []notify.Message
}

func newInvocationHarness(t *testing.T, withLease, withRuns bool) *invocationHarness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &invocationHarness{
		clock:   testutil.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		log:     &recordingLog{},
		control: mocks.NewMockJobControl(ctrl),
		order:   &callOrder{},
	}

	sink := notify.SinkFunc(func(_ context.Context, msg notify.Message) error {
		h.order.add("notify")
		h.sent = append(h.sent, msg)
		return nil
	})

	opts := InvocationOptions{
		Reconciler: NewReconcileService(ReconcileServiceOptions{
			Clock: h.clock, Log: h.log, Logger: discardLogger(), MaxProbeFailures: 3, LogEvery: 4,
		}),
		Reporter: NewJobResultReporter(JobResultReporterOptions{Control: h.control, Log: h.log, Logger: discardLogger()}),
		Notifier: notifier.NewService(notifier.Options{
			Sinks:  []notifier.SinkRegistration{{Name: "chat", Sink: sink}},
			Log:    h.log,
			Logger: discardLogger(),
		}),
		Log:         h.log,
		Clock:       h.clock,
		Logger:      discardLogger(),
		LeaseMargin: time.Minute,
		LeasePrefix: "opsrelay:lease:",
	}
	if withLease {
		h.lease = mocks.NewMockTargetLease(ctrl)
		opts.Lease = h.lease
	}
	if withRuns {
		h.runs = mocks.NewMockRunRepository(ctrl)
		opts.Runs = h.runs
	}

	inv, err := NewInvocation(opts)
	require.NoError(t, err)
	h.inv = inv
	return h
}

func watchRequest(probe core.StatusProbe) WatchRequest {
	return WatchRequest{
		JobID: "cp-job-1",
		Job: core.ReconciliationJob{
			ID:           "job-1",
			Target:       deployTarget,
			Probe:        probe,
			PollInterval: 15 * time.Second,
			Deadline:     240 * time.Second,
			IsSuccess:    core.StatusIs("Succeeded"),
		},
		Messages: notifier.Messages{Succeeded: "deployed", Failed: "failed", TimedOut: "timed out"},
	}
}

func TestInvocation_ConstantPendingReportsFailureOnceThenNotifies(t *testing.T) {
	h := newInvocationHarness(t, false, false)
	h.control.EXPECT().ReportSuccess(gomock.Any(), gomock.Any()).Times(0)
	h.control.EXPECT().
		ReportFailure(gomock.Any(), "cp-job-1", gomock.Any()).
		DoAndReturn(func(context.Context, string, string) error {
			h.order.add("report")
			return nil
		}).
		Times(1)

	res := h.inv.Watch(context.Background(), watchRequest(&scriptedProbe{steps: statuses("InProgress")}))

	assert.Equal(t, model.OutcomeTimedOut, res.Outcome.Kind)
	assert.Equal(t, 16, res.Outcome.Polls)
	assert.Equal(t, 240*time.Second, res.Outcome.Elapsed)
	assert.Equal(t, model.ExitFailed, res.ExitCode())
	assert.Equal(t, []string{"report", "notify"}, h.order.calls)
	require.Len(t, h.sent, 1)
	assert.Equal(t, "timed out", h.sent[0].Title)
}

func TestInvocation_SuccessReportsThenNotifies(t *testing.T) {
	h := newInvocationHarness(t, false, false)
	h.control.EXPECT().
		ReportSuccess(gomock.Any(), "cp-job-1").
		DoAndReturn(func(context.Context, string) error {
			h.order.add("report")
			return nil
		})

	res := h.inv.Watch(context.Background(), watchRequest(&scriptedProbe{steps: statuses("InProgress", "InProgress", "Succeeded")}))

	assert.True(t, res.Outcome.IsSuccess())
	assert.Equal(t, model.ExitOK, res.ExitCode())
	assert.Equal(t, []string{"report", "notify"}, h.order.calls)
}

func TestInvocation_ReportErrorDoesNotMaskOutcome(t *testing.T) {
	h := newInvocationHarness(t, false, false)
	h.control.EXPECT().ReportSuccess(gomock.Any(), "cp-job-1").Return(errors.New("throttled"))

	res := h.inv.Watch(context.Background(), watchRequest(&scriptedProbe{steps: statuses("Succeeded")}))

	assert.True(t, res.Outcome.IsSuccess())
	assert.Len(t, h.sent, 1)
}

func TestInvocation_CanceledLoopStillReports(t *testing.T) {
	h := newInvocationHarness(t, false, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.clock.OnSleep = func(int) { cancel() }
	h.control.EXPECT().ReportFailure(gomock.Any(), "cp-job-1", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string) error {
			assert.NoError(t, ctx.Err())
			return nil
		})

	res := h.inv.Watch(ctx, watchRequest(&scriptedProbe{steps: statuses("InProgress")}))

	assert.True(t, apperrors.IsCanceled(res.Outcome.Err))
	assert.Len(t, h.sent, 1)
}

func TestInvocation_HeldLeaseSkipsScheduledRunWithoutPolling(t *testing.T) {
	h := newInvocationHarness(t, true, false)
	h.lease.EXPECT().
		Acquire(gomock.Any(), "opsrelay:lease:deployment-group:web-prod", "job-1", 5*time.Minute).
		Return(false, nil)
	h.lease.EXPECT().Holder(gomock.Any(), gomock.Any()).Times(0)
	h.control.EXPECT().ReportFailure(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	probe := &scriptedProbe{steps: statuses("Succeeded")}
	req := watchRequest(probe)
	req.JobID = ""

	res := h.inv.Watch(context.Background(), req)

	assert.True(t, res.Skipped)
	assert.Equal(t, model.ExitOK, res.ExitCode())
	assert.Equal(t, 0, probe.calls)
	assert.Empty(t, h.sent)
	assert.Len(t, h.log.withPrefix("[LEASE]"), 1)
}

func TestInvocation_HeldLeaseSkipsRedeliveryOfSameJob(t *testing.T) {
	h := newInvocationHarness(t, true, false)
	key := "opsrelay:lease:deployment-group:web-prod"
	h.lease.EXPECT().Acquire(gomock.Any(), key, "job-1", 5*time.Minute).Return(false, nil)
	h.lease.EXPECT().Holder(gomock.Any(), key).Return("job-1", nil)
	h.control.EXPECT().ReportSuccess(gomock.Any(), gomock.Any()).Times(0)
	h.control.EXPECT().ReportFailure(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	probe := &scriptedProbe{steps: statuses("Succeeded")}

	res := h.inv.Watch(context.Background(), watchRequest(probe))

	assert.True(t, res.Skipped)
	assert.False(t, res.Rejected)
	assert.Equal(t, model.ExitOK, res.ExitCode())
	assert.Equal(t, 0, probe.calls)
	assert.Contains(t, h.log.withPrefix("[LEASE]")[0], "skipping redelivery")
}

func TestInvocation_HeldLeaseReportsOtherJobFailed(t *testing.T) {
	tests := []struct {
		name      string
		holder    string
		holderErr error
	}{
		{name: "held by another job", holder: "job-0"},
		{name: "holder lookup fails", holderErr: errors.New("i/o timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newInvocationHarness(t, true, false)
			key := "opsrelay:lease:deployment-group:web-prod"
			h.lease.EXPECT().Acquire(gomock.Any(), key, "job-1", 5*time.Minute).Return(false, nil)
			h.lease.EXPECT().Holder(gomock.Any(), key).Return(tt.holder, tt.holderErr)
			h.lease.EXPECT().Release(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			h.control.EXPECT().ReportSuccess(gomock.Any(), gomock.Any()).Times(0)
			h.control.EXPECT().
				ReportFailure(gomock.Any(), "cp-job-1", deployTarget.String()+" is already being watched").
				Return(nil).
				Times(1)
			probe := &scriptedProbe{steps: statuses("Succeeded")}

			res := h.inv.Watch(context.Background(), watchRequest(probe))

			assert.True(t, res.Rejected)
			assert.Equal(t, model.ExitFailed, res.ExitCode())
			assert.Equal(t, 0, probe.calls)
			assert.Empty(t, h.sent)
		})
	}
}

func TestInvocation_LeaseAcquiredAndReleased(t *testing.T) {
	h := newInvocationHarness(t, true, false)
	key := "opsrelay:lease:deployment-group:web-prod"
	gomock.InOrder(
		h.lease.EXPECT().Acquire(gomock.Any(), key, "job-1", 5*time.Minute).Return(true, nil),
		h.lease.EXPECT().Release(gomock.Any(), key, "job-1").Return(nil),
	)
	h.control.EXPECT().ReportSuccess(gomock.Any(), "cp-job-1").Return(nil)

	res := h.inv.Watch(context.Background(), watchRequest(&scriptedProbe{steps: statuses("Succeeded")}))
	assert.True(t, res.Outcome.IsSuccess())
}

func TestInvocation_LeaseErrorProceedsUnguarded(t *testing.T) {
	h := newInvocationHarness(t, true, false)
	h.lease.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("dial tcp: refused"))
	h.lease.EXPECT().Release(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	h.control.EXPECT().ReportSuccess(gomock.Any(), "cp-job-1").Return(nil)

	res := h.inv.Watch(context.Background(), watchRequest(&scriptedProbe{steps: statuses("Succeeded")}))
	assert.False(t, res.Skipped)
	assert.True(t, res.Outcome.IsSuccess())
}

func TestInvocation_RecordsRunHistory(t *testing.T) {
	h := newInvocationHarness(t, false, true)
	h.control.EXPECT().ReportSuccess(gomock.Any(), "cp-job-1").Return(nil)
	h.runs.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec model.RunRecord) error {
			assert.Equal(t, "cp-job-1", rec.JobID)
			assert.Equal(t, model.TargetDeploymentGroup, rec.TargetKind)
			assert.Equal(t, "web-prod", rec.TargetID)
			assert.Equal(t, model.OutcomeSucceeded, rec.Kind)
			assert.Equal(t, 2, rec.Polls)
			assert.Equal(t, 15*time.Second, rec.FinishedAt.Sub(rec.StartedAt))
			return apperrors.Wrap(errors.New("dup"), apperrors.ErrCodeConflict, "already recorded")
		})

	res := h.inv.Watch(context.Background(), watchRequest(&scriptedProbe{steps: statuses("InProgress", "Succeeded")}))
	assert.True(t, res.Outcome.IsSuccess())
	assert.Empty(t, h.log.withPrefix("[HISTORY]"))
}

func TestInvocation_RunBracketsWithStartAndFinish(t *testing.T) {
	h := newInvocationHarness(t, false, false)

	status := h.inv.Run(context.Background(), map[string]string{"source": "aws.events"}, func(context.Context) int {
		return model.ExitFailed
	})

	assert.Equal(t, model.ExitFailed, status)
	require.GreaterOrEqual(t, len(h.log.entries), 3)
	assert.Equal(t, "[START] Starting Script", h.log.entries[0])
	assert.Equal(t, "[RESPONSE]\n{\"source\":\"aws.events\"}", h.log.entries[1])
	assert.Equal(t, "[FINISH] Finished running script status=1", h.log.entries[len(h.log.entries)-1])
}

func TestInvocation_RunRecoversPanic(t *testing.T) {
	h := newInvocationHarness(t, false, false)

	status := h.inv.Run(context.Background(), nil, func(context.Context) int {
		panic("nil map")
	})

	assert.Equal(t, model.ExitInternal, status)
	assert.Equal(t, "[FINISH] Finished running script status=2", h.log.entries[len(h.log.entries)-1])
}

func TestNewInvocation_RequiresCollaborators(t *testing.T) {
	_, err := NewInvocation(InvocationOptions{})
	require.Error(t, err)
}
