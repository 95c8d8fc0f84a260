package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/trigger"
)

// DispatcherOptions groups dependencies for Dispatcher. Workflows not wired
// for this deployment may be nil; selecting one is a configuration error.
type DispatcherOptions struct {
	Config     *config.AppConfig // Required
	Invocation *Invocation       // Required
	Deploy     *DeployWorkflow
	Instances  *InstanceWorkflow
	Domains    *DomainWorkflow
	VCS        *VCSWorkflow
}

// Dispatcher turns one inbound event into one workflow run.
type Dispatcher struct {
	cfg       *config.AppConfig
	inv       *Invocation
	deploy    *DeployWorkflow
	instances *InstanceWorkflow
	domains   *DomainWorkflow
	vcs       *VCSWorkflow
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Invocation == nil {
		return nil, errors.New("invocation is required")
	}
	return &Dispatcher{
		cfg:       opts.Config,
		inv:       opts.Invocation,
		deploy:    opts.Deploy,
		instances: opts.Instances,
		domains:   opts.Domains,
		vcs:       opts.VCS,
	}, nil
}

// Handle runs the configured action for payload.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) int {
	return d.HandleAction(ctx, d.cfg.Action, payload)
}

// HandleAction runs action for payload and returns the exit status. The
// event is recorded first and the status last.
func (d *Dispatcher) HandleAction(ctx context.Context, action config.Action, payload []byte) int {
	ev, parseErr := trigger.Parse(payload)
	var logged any = ev.Raw
	if parseErr != nil {
		logged = string(payload)
	}

	return d.inv.Run(ctx, logged, func(ctx context.Context) int {
		if parseErr != nil {
			d.inv.Log().Record(ctx, "[ERROR] "+parseErr.Error())
			return model.ExitFailed
		}

		resolved, err := d.resolve(action, ev)
		if err == nil {
			err = d.cfg.Validate(resolved)
		}
		if err != nil {
			d.inv.Log().Record(ctx, "[ERROR] "+err.Error())
			return model.ExitInternal
		}
		return d.run(ctx, resolved, ev)
	})
}

// resolve picks the workflow for ev. Explicit actions win; auto infers from the event kind.
func (d *Dispatcher) resolve(action config.Action, ev trigger.Event) (config.Action, error) {
	if action != "" && action != config.ActionAuto {
		return action, nil
	}
	switch ev.Kind {
	case trigger.KindPipelineJob:
		return config.ActionDeploy, nil
	case trigger.KindPush, trigger.KindPullRequest, trigger.KindPullRequestComment, trigger.KindCommitComment:
		return config.ActionVCS, nil
	}
	return "", apperrors.Configuration("OPSRELAY_ACTION",
		fmt.Sprintf("cannot infer an action from a %s event; set OPSRELAY_ACTION", ev.Kind))
}

func (d *Dispatcher) run(ctx context.Context, action config.Action, ev trigger.Event) int {
	notWired := func() int {
		d.inv.Log().Record(ctx, "[ERROR] "+apperrors.Configuration("OPSRELAY_ACTION",
			fmt.Sprintf("action %s is not available in this deployment", action)).Error())
		return model.ExitInternal
	}

	switch action {
	case config.ActionDeploy:
		if d.deploy == nil {
			return notWired()
		}
		return d.deploy.Handle(ctx, ev.PipelineJob)
	case config.ActionVCS:
		if d.vcs == nil {
			return notWired()
		}
		return d.vcs.Handle(ctx, ev)
	case config.ActionInstanceStart:
		if d.instances == nil {
			return notWired()
		}
		return d.instances.Start(ctx, d.cfg.Instance.ID)
	case config.ActionInstanceStop:
		if d.instances == nil {
			return notWired()
		}
		return d.instances.Stop(ctx, d.cfg.Instance.ID)
	case config.ActionDomainResize:
		if d.domains == nil {
			return notWired()
		}
		return d.domains.Resize(ctx)
	}
	return notWired()
}
