// Package codepipeline reports job results to AWS CodePipeline and reads
// manual approval state from it.
package codepipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline/types"
	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

// API is the subset of the CodePipeline client used here.
type API interface {
	PutJobSuccessResult(ctx context.Context, in *codepipeline.PutJobSuccessResultInput,
		optFns ...func(*codepipeline.Options)) (*codepipeline.PutJobSuccessResultOutput, error)
	PutJobFailureResult(ctx context.Context, in *codepipeline.PutJobFailureResultInput,
		optFns ...func(*codepipeline.Options)) (*codepipeline.PutJobFailureResultOutput, error)
	GetPipelineState(ctx context.Context, in *codepipeline.GetPipelineStateInput,
		optFns ...func(*codepipeline.Options)) (*codepipeline.GetPipelineStateOutput, error)
}

// Client implements core.JobControl and core.ApprovalLookup.
type Client struct {
	api    API
	stage  string
	action string
}

var (
	_ core.JobControl     = (*Client)(nil)
	_ core.ApprovalLookup = (*Client)(nil)
)

// NewClient builds a Client. stage and action name the manual approval to
// read; an empty action selects the first action of the stage.
func NewClient(api API, stage, action string) *Client {
	return &Client{api: api, stage: stage, action: action}
}

// ReportSuccess marks jobID as succeeded.
func (c *Client) ReportSuccess(ctx context.Context, jobID string) error {
	_, err := c.api.PutJobSuccessResult(ctx, &codepipeline.PutJobSuccessResultInput{JobId: aws.String(jobID)})
	return err
}

// ReportFailure marks jobID as failed with message.
func (c *Client) ReportFailure(ctx context.Context, jobID, message string) error {
	_, err := c.api.PutJobFailureResult(ctx, &codepipeline.PutJobFailureResultInput{
		JobId: aws.String(jobID),
		FailureDetails: &types.FailureDetails{
			Type:    types.FailureTypeJobFailed,
			Message: aws.String(message),
		},
	})
	return err
}

// LatestApproval reads the latest execution of the configured approval action.
func (c *Client) LatestApproval(ctx context.Context, pipeline string) (model.Approval, error) {
	out, err := c.api.GetPipelineState(ctx, &codepipeline.GetPipelineStateInput{Name: aws.String(pipeline)})
	if err != nil {
		return model.Approval{}, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "get pipeline state for %s", pipeline)
	}

	doc, err := toDocument(out)
	if err != nil {
		return model.Approval{}, err
	}

	found, err := jmespath.Search(approvalExpression(c.stage, c.action), doc)
	if err != nil {
		return model.Approval{}, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "search pipeline state for %s", pipeline)
	}
	state, _ := found.(map[string]any)
	exec, ok := state["LatestExecution"].(map[string]any)
	if !ok {
		return model.Approval{}, apperrors.NotFoundf("no execution of approval %s in stage %s of pipeline %s",
			c.actionLabel(), c.stage, pipeline)
	}

	approval := model.Approval{
		Stage:      c.stage,
		Action:     stringField(state, "ActionName"),
		ApprovedBy: stringField(exec, "LastUpdatedBy"),
		Summary:    stringField(exec, "Summary"),
		Status:     stringField(exec, "Status"),
	}
	if ts := stringField(exec, "LastStatusChange"); ts != "" {
		approval.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return approval, nil
}

func (c *Client) actionLabel() string {
	if c.action == "" {
		return "(first action)"
	}
	return c.action
}

// approvalExpression selects the action state of the named approval.
func approvalExpression(stage, action string) string {
	actionSel := "ActionStates[0]"
	if action != "" {
		actionSel = fmt.Sprintf("ActionStates[?ActionName==%s] | [0]", literal(action))
	}
	return fmt.Sprintf("StageStates[?StageName==%s] | [0].%s", literal(stage), actionSel)
}

// literal quotes s as a JMESPath raw string literal.
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// toDocument converts an SDK output into the generic shape JMESPath searches.
func toDocument(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode pipeline state")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode pipeline state")
	}
	return doc, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
