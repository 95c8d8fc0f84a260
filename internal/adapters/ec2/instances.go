// Package ec2 starts, stops and observes EC2 instances.
package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

// StatusOK is reported by HealthProbe once the instance is running and both
// status checks pass.
const StatusOK = "ok"

// API is the subset of the EC2 client used here.
type API interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput,
		optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeInstanceStatus(ctx context.Context, in *ec2.DescribeInstanceStatusInput,
		optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceStatusOutput, error)
	StartInstances(ctx context.Context, in *ec2.StartInstancesInput,
		optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, in *ec2.StopInstancesInput,
		optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
}

// Controller implements core.InstanceController.
type Controller struct {
	api API
}

var _ core.InstanceController = (*Controller)(nil)

// NewController wraps an EC2 client.
func NewController(api API) *Controller {
	return &Controller{api: api}
}

// State returns the instance's run-state name ("pending", "running", "stopped", ...).
func (c *Controller) State(ctx context.Context, instanceID string) (string, error) {
	out, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		return "", err
	}
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			if aws.ToString(inst.InstanceId) == instanceID && inst.State != nil {
				return string(inst.State.Name), nil
			}
		}
	}
	return "", apperrors.NotFoundf("instance %s", instanceID)
}

// Start requests that the instance start.
func (c *Controller) Start(ctx context.Context, instanceID string) error {
	_, err := c.api.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{instanceID}})
	return err
}

// Stop requests that the instance stop.
func (c *Controller) Stop(ctx context.Context, instanceID string) error {
	_, err := c.api.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{instanceID}})
	return err
}

// StateProbe reports the instance run-state.
type StateProbe struct {
	controller *Controller
	instanceID string
}

var _ core.StatusProbe = (*StateProbe)(nil)

// NewStateProbe binds a run-state probe to one instance.
func NewStateProbe(api API, instanceID string) *StateProbe {
	return &StateProbe{controller: NewController(api), instanceID: instanceID}
}

// Poll describes the instance once.
func (p *StateProbe) Poll(ctx context.Context) (model.StatusSnapshot, error) {
	state, err := p.controller.State(ctx, p.instanceID)
	if err != nil {
		return model.StatusSnapshot{}, apperrors.Probe(err, p.instanceID)
	}
	return model.StatusSnapshot{Status: state, OperationID: p.instanceID}, nil
}

// HealthProbe reports "ok" once the instance runs and passes both status
// checks. Otherwise it reports the run-state, or the first failing check.
type HealthProbe struct {
	api        API
	instanceID string
}

var _ core.StatusProbe = (*HealthProbe)(nil)

// NewHealthProbe binds a health probe to one instance.
func NewHealthProbe(api API, instanceID string) *HealthProbe {
	return &HealthProbe{api: api, instanceID: instanceID}
}

// Poll reads the instance status once, including instances that are not running.
func (p *HealthProbe) Poll(ctx context.Context) (model.StatusSnapshot, error) {
	out, err := p.api.DescribeInstanceStatus(ctx, &ec2.DescribeInstanceStatusInput{
		InstanceIds:         []string{p.instanceID},
		IncludeAllInstances: aws.Bool(true),
	})
	if err != nil {
		return model.StatusSnapshot{}, apperrors.Probe(err, p.instanceID)
	}

	for _, st := range out.InstanceStatuses {
		if aws.ToString(st.InstanceId) != p.instanceID {
			continue
		}
		return healthSnapshot(p.instanceID, st), nil
	}
	return model.StatusSnapshot{}, apperrors.Probe(apperrors.NotFoundf("instance %s", p.instanceID), p.instanceID)
}

func healthSnapshot(instanceID string, st types.InstanceStatus) model.StatusSnapshot {
	var state, instance, system string
	if st.InstanceState != nil {
		state = string(st.InstanceState.Name)
	}
	if st.InstanceStatus != nil {
		instance = string(st.InstanceStatus.Status)
	}
	if st.SystemStatus != nil {
		system = string(st.SystemStatus.Status)
	}

	snap := model.StatusSnapshot{
		OperationID: instanceID,
		Detail:      map[string]string{"state": state, "instance_status": instance, "system_status": system},
	}
	switch {
	case state != string(types.InstanceStateNameRunning):
		snap.Status = state
	case instance != StatusOK:
		snap.Status = instance
	case system != StatusOK:
		snap.Status = system
	default:
		snap.Status = StatusOK
	}
	return snap
}

// StateProbes returns a StateProbe constructor bound to api.
func StateProbes(api API) func(instanceID string) core.StatusProbe {
	return func(instanceID string) core.StatusProbe { return NewStateProbe(api, instanceID) }
}

// HealthProbes returns a HealthProbe constructor bound to api.
func HealthProbes(api API) func(instanceID string) core.StatusProbe {
	return func(instanceID string) core.StatusProbe { return NewHealthProbe(api, instanceID) }
}
