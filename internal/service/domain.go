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

// DomainProbeFactory builds a configuration-state probe for one search domain.
type DomainProbeFactory func(domain string) core.StatusProbe

// DomainWorkflowOptions groups dependencies for DomainWorkflow.
type DomainWorkflowOptions struct {
	Invocation  *Invocation        // Required
	Manager     core.DomainManager // Required
	ConfigProbe DomainProbeFactory // Required
	Domain      config.DomainConfig
	Reconcile   config.ReconcileConfig
}

// DomainWorkflow changes the data-node instance type of every matching search domain.
type DomainWorkflow struct {
	inv     *Invocation
	manager core.DomainManager
	probes  DomainProbeFactory
	cfg     config.DomainConfig
	loop    config.ReconcileConfig
}

// NewDomainWorkflow constructs a DomainWorkflow.
func NewDomainWorkflow(opts DomainWorkflowOptions) (*DomainWorkflow, error) {
	switch {
	case opts.Invocation == nil:
		return nil, errors.New("invocation is required")
	case opts.Manager == nil:
		return nil, errors.New("domain manager is required")
	case opts.ConfigProbe == nil:
		return nil, errors.New("domain config probe is required")
	}
	return &DomainWorkflow{
		inv:     opts.Invocation,
		manager: opts.Manager,
		probes:  opts.ConfigProbe,
		cfg:     opts.Domain,
		loop:    opts.Reconcile,
	}, nil
}

// Resize resizes matching domains one at a time. The returned status is the
// worst status across domains.
func (w *DomainWorkflow) Resize(ctx context.Context) int {
	log := w.inv.Log()
	log.Record(ctx, "[INFO] Retrieving list of es domains for "+w.cfg.NameFilter)

	domains, err := w.manager.ListDomains(ctx, w.cfg.NameFilter)
	if err != nil {
		return w.fail(ctx, model.Target{Kind: model.TargetDomain, ID: w.cfg.NameFilter}, err)
	}
	log.Record(ctx, fmt.Sprintf("[INFO] Found %v", domains))

	worst := model.ExitOK
	for _, name := range domains {
		if err := ctx.Err(); err != nil {
			log.Record(ctx, "[WARNING] resize interrupted: "+err.Error())
			return max(worst, model.ExitFailed)
		}
		worst = max(worst, w.resizeOne(ctx, name))
	}
	return worst
}

func (w *DomainWorkflow) resizeOne(ctx context.Context, name string) int {
	log := w.inv.Log()
	target := model.Target{Kind: model.TargetDomain, ID: name}

	if desc, err := w.manager.DescribeDomain(ctx, name); err != nil {
		log.Record(ctx, fmt.Sprintf("[WARNING] could not describe %s before modification: %v", name, err))
	} else {
		log.Record(ctx, "[INFO] Before Modification Detail of "+name)
		log.Record(ctx, desc)
	}

	log.Record(ctx, fmt.Sprintf("[INFO] Modifying Elasticsearch: %s to %s", name, w.cfg.InstanceType))
	if err := w.manager.UpdateInstanceType(ctx, name, w.cfg.InstanceType); err != nil {
		return w.fail(ctx, target, err)
	}

	res := w.inv.Watch(ctx, WatchRequest{
		Job: core.ReconciliationJob{
			Target:       target,
			Probe:        w.probes(name),
			Deadline:     w.loop.Deadline,
			PollInterval: w.loop.PollInterval,
			IsSuccess:    core.StatusIs("Active"),
		},
		Messages: notifier.Messages{
			Succeeded: fmt.Sprintf("Elasticsearch domain %s now runs on %s.", name, w.cfg.InstanceType),
			Failed:    fmt.Sprintf("Resizing Elasticsearch domain %s to %s failed.", name, w.cfg.InstanceType),
			TimedOut:  fmt.Sprintf("Resizing Elasticsearch domain %s did not finish within %s.", name, w.loop.Deadline),
		},
	})
	if res.Outcome.IsSuccess() {
		log.Record(ctx, fmt.Sprintf("[INFO] Successfully modified Elasticsearch: %s to %s", name, w.cfg.InstanceType))
	}
	return res.ExitCode()
}

func (w *DomainWorkflow) fail(ctx context.Context, target model.Target, err error) int {
	ctx = context.WithoutCancel(ctx)
	w.inv.Log().Record(ctx, "[ERROR] "+err.Error())
	w.inv.Notifier().Post(ctx, notify.Message{
		Title:    fmt.Sprintf("Resizing %s failed.", target),
		Text:     err.Error(),
		Severity: notify.SeverityCritical,
		Target:   target.String(),
		Outcome:  string(model.OutcomeFailed),
	})
	return model.ExitFailed
}
