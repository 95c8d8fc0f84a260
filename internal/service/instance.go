package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	"github.com/target/opsrelay/internal/observability/notify"
	"github.com/target/opsrelay/internal/service/notifier"
)

// InstanceProbeFactory builds a status probe bound to one instance.
type InstanceProbeFactory func(instanceID string) core.StatusProbe

// InstanceWorkflowOptions groups dependencies for InstanceWorkflow.
type InstanceWorkflowOptions struct {
	Invocation  *Invocation             // Required
	Controller  core.InstanceController // Required
	StateProbe  InstanceProbeFactory    // Required: run-state probe
	HealthProbe InstanceProbeFactory    // Required: instance and system status checks
	Reconcile   config.ReconcileConfig
}

// InstanceWorkflow starts or stops one EC2 instance and waits for it to settle.
type InstanceWorkflow struct {
	inv        *Invocation
	controller core.InstanceController
	state      InstanceProbeFactory
	health     InstanceProbeFactory
	loop       config.ReconcileConfig
}

// NewInstanceWorkflow constructs an InstanceWorkflow.
func NewInstanceWorkflow(opts InstanceWorkflowOptions) (*InstanceWorkflow, error) {
	switch {
	case opts.Invocation == nil:
		return nil, errors.New("invocation is required")
	case opts.Controller == nil:
		return nil, errors.New("instance controller is required")
	case opts.StateProbe == nil || opts.HealthProbe == nil:
		return nil, errors.New("instance probes are required")
	}
	return &InstanceWorkflow{
		inv:        opts.Invocation,
		controller: opts.Controller,
		state:      opts.StateProbe,
		health:     opts.HealthProbe,
		loop:       opts.Reconcile,
	}, nil
}

// Start starts instanceID unless it is already running, then waits until its
// status checks pass.
func (w *InstanceWorkflow) Start(ctx context.Context, instanceID string) int {
	log := w.inv.Log()
	log.Record(ctx, "[INFO] Starting Instance: "+instanceID)

	state, err := w.controller.State(ctx, instanceID)
	if err != nil {
		return w.fail(ctx, "start", instanceID, err)
	}
	if state == "running" {
		log.Record(ctx, "[INFO] Instance is already running: "+instanceID)
		return model.ExitOK
	}

	log.Record(ctx, "[INFO] Instance was not running so called to start: "+instanceID)
	if err := w.controller.Start(ctx, instanceID); err != nil {
		return w.fail(ctx, "start", instanceID, err)
	}

	log.Record(ctx, "[INFO] Waiting for Instance to be ready: "+instanceID)
	res := w.inv.Watch(ctx, WatchRequest{
		Job: w.job(instanceID, w.health(instanceID), core.StatusIs("ok"), core.StatusIs("impaired", "terminated")),
		Messages: notifier.Messages{
			Failed:   fmt.Sprintf("Instance %s failed to start.", instanceID),
			TimedOut: fmt.Sprintf("Instance %s did not pass status checks within %s.", instanceID, w.loop.InstanceDeadline),
		},
	})
	if res.Outcome.IsSuccess() {
		log.Record(ctx, fmt.Sprintf("[INFO] Successfully Started Instance: %s wait time was roughly: %s",
			instanceID, res.Outcome.Elapsed))
	}
	return res.ExitCode()
}

// Stop stops instanceID and waits until it reports stopped.
func (w *InstanceWorkflow) Stop(ctx context.Context, instanceID string) int {
	log := w.inv.Log()
	log.Record(ctx, "[INFO] Stopping Instance: "+instanceID)

	if err := w.controller.Stop(ctx, instanceID); err != nil {
		return w.fail(ctx, "stop", instanceID, err)
	}

	res := w.inv.Watch(ctx, WatchRequest{
		Job: w.job(instanceID, w.state(instanceID), core.StatusIs("stopped"), core.StatusIs("terminated")),
		Messages: notifier.Messages{
			Failed:   fmt.Sprintf("Instance %s failed to stop.", instanceID),
			TimedOut: fmt.Sprintf("Instance %s did not stop within %s.", instanceID, w.loop.InstanceDeadline),
		},
	})
	if res.Outcome.IsSuccess() {
		log.Record(ctx, "[INFO] Successfully Stopped Instance: "+instanceID)
	}
	return res.ExitCode()
}

func (w *InstanceWorkflow) job(instanceID string, probe core.StatusProbe, success, failure core.StatusPredicate) core.ReconciliationJob {
	job := core.ReconciliationJob{
		Target:       model.Target{Kind: model.TargetInstance, ID: instanceID},
		Probe:        probe,
		Deadline:     w.loop.InstanceDeadline,
		PollInterval: w.loop.InstancePollInterval,
		IsSuccess:    success,
	}
	if w.loop.FailFast {
		job.IsFailure = failure
	}
	return job
}

func (w *InstanceWorkflow) fail(ctx context.Context, verb, instanceID string, err error) int {
	ctx = context.WithoutCancel(ctx)
	w.inv.Log().Record(ctx, "[ERROR] "+err.Error())
	target := model.Target{Kind: model.TargetInstance, ID: instanceID}
	w.inv.Notifier().Post(ctx, notify.Message{
		Title:    fmt.Sprintf("Instance %s could not %s.", instanceID, verb),
		Text:     err.Error(),
		Severity: notify.SeverityCritical,
		Target:   target.String(),
		Outcome:  string(model.OutcomeFailed),
	})
	return model.ExitFailed
}
