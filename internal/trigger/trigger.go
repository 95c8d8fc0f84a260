// Package trigger classifies the raw events that start an invocation and
// extracts the fields each workflow needs.
package trigger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

// Kind identifies the shape of an inbound event.
type Kind string

const (
	// KindPipelineJob is a CodePipeline job invocation.
	KindPipelineJob Kind = "pipeline-job"
	// KindPush is a CodeCommit repository trigger.
	KindPush Kind = "push"
	// KindPullRequest is a CloudWatch "CodeCommit Pull Request State Change" event.
	KindPullRequest Kind = "pull-request"
	// KindPullRequestComment is a "CodeCommit Comment on Pull Request" event.
	KindPullRequestComment Kind = "pull-request-comment"
	// KindCommitComment is a "CodeCommit Comment on Commit" event.
	KindCommitComment Kind = "commit-comment"
	// KindScheduled is a CloudWatch scheduled event.
	KindScheduled Kind = "scheduled"
	// KindUnknown is anything else, including manual invocations with an empty payload.
	KindUnknown Kind = "unknown"
)

// CloudWatch event detail types.
const (
	DetailPullRequestStateChange = "CodeCommit Pull Request State Change"
	DetailPullRequestComment     = "CodeCommit Comment on Pull Request"
	DetailCommitComment          = "CodeCommit Comment on Commit"
	DetailScheduled              = "Scheduled Event"
)

// Event is a classified inbound event. Exactly one of the typed fields is set
// for the matching Kind; Raw always holds the decoded payload.
type Event struct {
	Kind Kind
	Raw  any

	PipelineJob *PipelineJob
	Push        *Push
	PullRequest *PullRequest
	Comment     *Comment
}

// PipelineJob is the part of a CodePipeline job event used by the deploy action.
type PipelineJob struct {
	ID             string
	UserParameters string
}

// Push is one CodeCommit repository trigger record.
type Push struct {
	UserARN       string
	RepositoryARN string
	CommitID      string
	Ref           string
}

// User returns the pushing principal's name.
func (p *Push) User() string { return model.PrincipalName(p.UserARN) }

// Repository returns the repository name from the source ARN.
func (p *Push) Repository() string { return model.PrincipalName(p.RepositoryARN) }

// Branch returns the branch name of refs/heads/<branch>.
func (p *Push) Branch() string { return BranchName(p.Ref) }

// PullRequest is a pull request state change.
type PullRequest struct {
	Event          string
	CallerARN      string
	ID             string
	Title          string
	Description    string
	SourceRef      string
	DestinationRef string
	SourceCommit   string
}

// User returns the acting principal's name.
func (p *PullRequest) User() string { return model.PrincipalName(p.CallerARN) }

// Comment is a comment on a pull request or a commit.
type Comment struct {
	Event         string
	CallerARN     string
	CommentID     string
	PullRequestID string
	AfterCommitID string
}

// User returns the commenting principal's name.
func (c *Comment) User() string { return model.PrincipalName(c.CallerARN) }

// BranchName strips the refs/heads/ prefix; other values come back unchanged.
func BranchName(ref string) string {
	if rest, ok := strings.CutPrefix(ref, "refs/heads/"); ok {
		return rest
	}
	return ref
}

// searcher is a compiled JMESPath expression.
type searcher interface {
	Search(data any) (any, error)
}

func mustCompile(expr string) searcher {
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		panic(fmt.Sprintf("trigger: compile %q: %v", expr, err))
	}
	return compiled
}

var (
	exprPipelineJob searcher = mustCompile(`"CodePipeline.job"`)
	exprJobID       searcher = mustCompile(`"CodePipeline.job".id`)
	exprUserParams  searcher = mustCompile(`"CodePipeline.job".data.actionConfiguration.configuration.UserParameters`)

	exprRecord searcher = mustCompile(`Records[0]`)
	exprPush   searcher = mustCompile(`{user: userIdentityARN, source: eventSourceARN, commit: codecommit.references[0].commit, ref: codecommit.references[0].ref}`)

	exprSource     searcher = mustCompile(`source`)
	exprDetailType searcher = mustCompile(`"detail-type"`)
	exprPRFields   searcher = mustCompile(`detail.{event: event, caller: callerUserArn, id: pullRequestId, title: title, description: description, source: sourceReference, destination: destinationReference, commit: sourceCommit}`)
	exprComment    searcher = mustCompile(`detail.{event: event, caller: callerUserArn, comment: commentId, pr: pullRequestId, after: afterCommitId}`)
)

// Parse decodes a raw JSON payload and classifies it.
func Parse(payload []byte) (Event, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return Event{Kind: KindUnknown}, nil
	}
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "decode event payload")
	}
	return Classify(raw)
}

// Classify inspects an already decoded payload.
func Classify(raw any) (Event, error) {
	ev := Event{Kind: KindUnknown, Raw: raw}
	if _, ok := raw.(map[string]any); !ok {
		return ev, nil
	}

	if v, _ := exprPipelineJob.Search(raw); v != nil {
		job := &PipelineJob{
			ID:             searchString(exprJobID, raw),
			UserParameters: strings.TrimSpace(searchString(exprUserParams, raw)),
		}
		if job.ID == "" {
			return ev, apperrors.ValidationField("CodePipeline.job.id", "pipeline job event has no job id")
		}
		ev.Kind, ev.PipelineJob = KindPipelineJob, job
		return ev, nil
	}

	if rec, _ := exprRecord.Search(raw); rec != nil {
		fields := searchMap(exprPush, rec)
		push := &Push{
			UserARN:       fields["user"],
			RepositoryARN: fields["source"],
			CommitID:      fields["commit"],
			Ref:           fields["ref"],
		}
		if push.CommitID == "" {
			return ev, apperrors.ValidationField("Records[0].codecommit", "repository trigger has no commit reference")
		}
		ev.Kind, ev.Push = KindPush, push
		return ev, nil
	}

	if searchString(exprSource, raw) == "" {
		return ev, nil
	}

	switch detail := searchString(exprDetailType, raw); detail {
	case DetailPullRequestStateChange:
		f := searchMap(exprPRFields, raw)
		ev.Kind = KindPullRequest
		ev.PullRequest = &PullRequest{
			Event:          f["event"],
			CallerARN:      f["caller"],
			ID:             f["id"],
			Title:          f["title"],
			Description:    f["description"],
			SourceRef:      f["source"],
			DestinationRef: f["destination"],
			SourceCommit:   f["commit"],
		}
	case DetailPullRequestComment, DetailCommitComment:
		f := searchMap(exprComment, raw)
		ev.Kind = KindPullRequestComment
		if detail == DetailCommitComment {
			ev.Kind = KindCommitComment
		}
		ev.Comment = &Comment{
			Event:         f["event"],
			CallerARN:     f["caller"],
			CommentID:     f["comment"],
			PullRequestID: f["pr"],
			AfterCommitID: f["after"],
		}
	case DetailScheduled:
		ev.Kind = KindScheduled
	}
	return ev, nil
}

func searchString(expr searcher, data any) string {
	v, err := expr.Search(data)
	if err != nil || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func searchMap(expr searcher, data any) map[string]string {
	out := map[string]string{}
	v, err := expr.Search(data)
	if err != nil {
		return out
	}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range m {
		switch s := val.(type) {
		case nil:
		case string:
			out[k] = s
		default:
			out[k] = fmt.Sprint(s)
		}
	}
	return out
}
