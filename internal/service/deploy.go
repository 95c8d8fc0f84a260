package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/observability/notify"
	"github.com/target/opsrelay/internal/service/notifier"
	"github.com/target/opsrelay/internal/trigger"
)

// GroupProbeFactory builds the status probe for one deployment group.
type GroupProbeFactory func(application, group string) core.StatusProbe

// DeployWorkflowOptions groups dependencies for DeployWorkflow.
type DeployWorkflowOptions struct {
	Invocation *Invocation          // Required
	Probes     GroupProbeFactory    // Required
	Approvals  core.ApprovalLookup  // Optional: needed for the approval relay
	Deploy     config.DeployConfig  // Required
	Reconcile  config.ReconcileConfig
}

// DeployWorkflow handles CodePipeline jobs: it watches a deployment group
// until it settles, or relays a production approval.
type DeployWorkflow struct {
	inv       *Invocation
	probes    GroupProbeFactory
	approvals core.ApprovalLookup
	cfg       config.DeployConfig
	loop      config.ReconcileConfig
}

// NewDeployWorkflow constructs a DeployWorkflow.
func NewDeployWorkflow(opts DeployWorkflowOptions) (*DeployWorkflow, error) {
	if opts.Invocation == nil {
		return nil, errors.New("invocation is required")
	}
	if opts.Probes == nil {
		return nil, errors.New("group probe factory is required")
	}
	return &DeployWorkflow{
		inv:       opts.Invocation,
		probes:    opts.Probes,
		approvals: opts.Approvals,
		cfg:       opts.Deploy,
		loop:      opts.Reconcile,
	}, nil
}

// Handle runs the workflow selected by the job's UserParameters and returns the exit status.
func (w *DeployWorkflow) Handle(ctx context.Context, job *trigger.PipelineJob) int {
	if job == nil {
		w.inv.Log().Record(ctx, "[ERROR] deploy action requires a CodePipeline job event")
		return model.ExitFailed
	}

	param := job.UserParameters
	if group, ok := w.cfg.Groups[param]; ok {
		return w.watch(ctx, job.ID, param, group)
	}
	if param != "" && param == w.cfg.StartParameter {
		return w.relayApproval(ctx, job.ID)
	}

	err := apperrors.ValidationField("UserParameters", fmt.Sprintf(
		"unknown deploy parameter %q (expected one of %s or %s)",
		param, strings.Join(w.cfg.Environments(), ", "), w.cfg.StartParameter,
	))
	w.fail(ctx, job.ID, err)
	return model.ExitFailed
}

func (w *DeployWorkflow) watch(ctx context.Context, jobID, env, group string) int {
	w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] Retrieving CodeDeploy status for %s environment", env))

	job := core.ReconciliationJob{
		ID:           jobID,
		Target:       model.Target{Kind: model.TargetDeploymentGroup, ID: group, Name: env},
		Probe:        w.probes(w.cfg.Application, group),
		Deadline:     w.loop.Deadline,
		PollInterval: w.loop.PollInterval,
		IsSuccess:    core.StatusIs("Succeeded"),
	}
	if w.loop.FailFast {
		job.IsFailure = core.StatusIs("Failed", "Stopped")
	}

	res := w.inv.Watch(ctx, WatchRequest{
		JobID:    jobID,
		Job:      job,
		Messages: deployMessages(env, w.loop.Deadline.String()),
	})
	if res.Outcome.IsSuccess() {
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] Deployment was successful for %s environment", env))
	}
	return res.ExitCode()
}

func deployMessages(env, deadline string) notifier.Messages {
	return notifier.Messages{
		Succeeded: fmt.Sprintf("The %s deployment has finished without problems.", env),
		Failed:    fmt.Sprintf("The automated %s deployment has failed.", env),
		TimedOut:  fmt.Sprintf("The automated %s deployment did not finish within %s.", env, deadline),
	}
}

func (w *DeployWorkflow) relayApproval(ctx context.Context, jobID string) int {
	if w.approvals == nil || w.cfg.Pipeline == "" {
		err := apperrors.Configuration("DEPLOY_PIPELINE", "DEPLOY_PIPELINE is required to relay approvals")
		w.fail(ctx, jobID, err)
		return model.ExitInternal
	}

	approval, err := w.approvals.LatestApproval(ctx, w.cfg.Pipeline)
	if err != nil {
		w.fail(ctx, jobID, err)
		return model.ExitFailed
	}

	user := model.PrincipalName(approval.ApprovedBy)
	if user == "" {
		user = "someone"
	}
	w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] %s has pushed to prod environment", user))

	summary := approval.Summary
	if summary == "" {
		summary = "(none)"
	}
	w.inv.Notifier().Post(ctx, notify.Message{
		Title:    user + " approved the production release.",
		Text:     "\nMessage: " + summary,
		Severity: notify.SeverityInfo,
		Target:   "pipeline:" + w.cfg.Pipeline,
		Metadata: map[string]string{"stage": approval.Stage, "action": approval.Action},
	})

	_ = w.inv.Reporter().ReportSuccess(context.WithoutCancel(ctx), jobID)
	return model.ExitOK
}

// fail reports err to job control and posts a failure notification.
func (w *DeployWorkflow) fail(ctx context.Context, jobID string, err error) {
	ctx = context.WithoutCancel(ctx)
	w.inv.Log().Record(ctx, "[ERROR] "+err.Error())
	_ = w.inv.Reporter().ReportFailure(ctx, jobID, err.Error())
	w.inv.Notifier().Post(ctx, notify.Message{
		Title:    "The automated deployment has failed.",
		Text:     "\nError: " + err.Error(),
		Severity: notify.SeverityCritical,
		Target:   "pipeline:" + w.cfg.Pipeline,
	})
}
