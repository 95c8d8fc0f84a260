// Package codedeploy reads deployment status from AWS CodeDeploy.
package codedeploy

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codedeploy"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

// StatusNone is reported when the group has never attempted a deployment.
const StatusNone = "None"

// API is the subset of the CodeDeploy client used here.
type API interface {
	GetDeploymentGroup(ctx context.Context, in *codedeploy.GetDeploymentGroupInput,
		optFns ...func(*codedeploy.Options)) (*codedeploy.GetDeploymentGroupOutput, error)
}

// GroupProbe reports the status of a deployment group's last attempted deployment.
type GroupProbe struct {
	api         API
	application string
	group       string
}

var _ core.StatusProbe = (*GroupProbe)(nil)

// NewGroupProbe binds a probe to one application and deployment group.
func NewGroupProbe(api API, application, group string) *GroupProbe {
	return &GroupProbe{api: api, application: application, group: group}
}

// Poll fetches the group once.
func (p *GroupProbe) Poll(ctx context.Context) (model.StatusSnapshot, error) {
	out, err := p.api.GetDeploymentGroup(ctx, &codedeploy.GetDeploymentGroupInput{
		ApplicationName:     aws.String(p.application),
		DeploymentGroupName: aws.String(p.group),
	})
	if err != nil {
		return model.StatusSnapshot{}, apperrors.Probe(err, p.application+"/"+p.group)
	}

	snap := model.StatusSnapshot{Status: StatusNone}
	if out.DeploymentGroupInfo == nil || out.DeploymentGroupInfo.LastAttemptedDeployment == nil {
		return snap, nil
	}
	last := out.DeploymentGroupInfo.LastAttemptedDeployment
	snap.Status = string(last.Status)
	snap.OperationID = aws.ToString(last.DeploymentId)
	if last.CreateTime != nil {
		snap.Detail = map[string]string{"created_at": last.CreateTime.UTC().Format(time.RFC3339)}
	}
	return snap, nil
}

// Factory returns a constructor bound to api.
func Factory(api API) func(application, group string) core.StatusProbe {
	return func(application, group string) core.StatusProbe {
		return NewGroupProbe(api, application, group)
	}
}
