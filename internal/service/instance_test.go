package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	"github.com/target/opsrelay/internal/mocks"
	"github.com/target/opsrelay/internal/observability/notify"
)

type instanceFixture struct {
	*invocationHarness
	workflow   *InstanceWorkflow
	controller *mocks.MockInstanceController
	state      *scriptedProbe
	health     *scriptedProbe
}

func newInstanceFixture(t *testing.T, state, health []probeStep) *instanceFixture {
	t.Helper()
	h := newInvocationHarness(t, false, false)
	f := &instanceFixture{
		invocationHarness: h,
		controller:        mocks.NewMockInstanceController(gomock.NewController(t)),
		state:             &scriptedProbe{steps: state},
		health:            &scriptedProbe{steps: health},
	}
	wf, err := NewInstanceWorkflow(InstanceWorkflowOptions{
		Invocation:  h.inv,
		Controller:  f.controller,
		StateProbe:  func(string) core.StatusProbe { return f.state },
		HealthProbe: func(string) core.StatusProbe { return f.health },
		Reconcile: config.ReconcileConfig{
			InstancePollInterval: 10 * time.Second,
			InstanceDeadline:     10 * time.Minute,
		},
	})
	require.NoError(t, err)
	f.workflow = wf
	return f
}

const instanceID = "i-0abc123"

func TestInstanceWorkflow_StartAlreadyRunning(t *testing.T) {
	f := newInstanceFixture(t, statuses("running"), statuses("ok"))
	f.controller.EXPECT().State(gomock.Any(), instanceID).Return("running", nil)
	f.controller.EXPECT().Start(gomock.Any(), gomock.Any()).Times(0)

	assert.Equal(t, model.ExitOK, f.workflow.Start(context.Background(), instanceID))
	assert.Equal(t, 0, f.health.calls)
	assert.Len(t, f.log.withPrefix("[INFO] Instance is already running"), 1)
}

func TestInstanceWorkflow_StartWaitsForStatusChecks(t *testing.T) {
	f := newInstanceFixture(t, nil, statuses("initializing", "initializing", "ok"))
	gomock.InOrder(
		f.controller.EXPECT().State(gomock.Any(), instanceID).Return("stopped", nil),
		f.controller.EXPECT().Start(gomock.Any(), instanceID).Return(nil),
	)

	status := f.workflow.Start(context.Background(), instanceID)

	assert.Equal(t, model.ExitOK, status)
	assert.Equal(t, 3, f.health.calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, f.clock.Sleeps())
	assert.Empty(t, f.sent)
	done := f.log.withPrefix("[INFO] Successfully Started Instance")
	require.Len(t, done, 1)
	assert.Contains(t, done[0], "20s")
}

func TestInstanceWorkflow_StartErrorNotifies(t *testing.T) {
	f := newInstanceFixture(t, nil, statuses("ok"))
	f.controller.EXPECT().State(gomock.Any(), instanceID).Return("stopped", nil)
	f.controller.EXPECT().Start(gomock.Any(), instanceID).Return(errors.New("UnauthorizedOperation"))

	status := f.workflow.Start(context.Background(), instanceID)

	assert.Equal(t, model.ExitFailed, status)
	assert.Equal(t, 0, f.health.calls)
	require.Len(t, f.sent, 1)
	assert.Equal(t, notify.SeverityCritical, f.sent[0].Severity)
	assert.Equal(t, "UnauthorizedOperation", f.sent[0].Text)
	assert.True(t, f.sent[0].IsFailure())
}

func TestInstanceWorkflow_StopWaitsUntilStopped(t *testing.T) {
	f := newInstanceFixture(t, statuses("stopping", "stopped"), nil)
	f.controller.EXPECT().Stop(gomock.Any(), instanceID).Return(nil)

	assert.Equal(t, model.ExitOK, f.workflow.Stop(context.Background(), instanceID))
	assert.Equal(t, 2, f.state.calls)
	assert.Len(t, f.log.withPrefix("[INFO] Successfully Stopped Instance"), 1)
}

func TestInstanceWorkflow_StopTimesOut(t *testing.T) {
	f := newInstanceFixture(t, statuses("stopping"), nil)
	f.controller.EXPECT().Stop(gomock.Any(), instanceID).Return(nil)

	status := f.workflow.Stop(context.Background(), instanceID)

	assert.Equal(t, model.ExitFailed, status)
	assert.Equal(t, 10*time.Minute, f.clock.Slept())
	require.Len(t, f.sent, 1)
	assert.Equal(t, "Instance i-0abc123 did not stop within 10m0s.", f.sent[0].Title)
}
