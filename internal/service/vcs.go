package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	"github.com/target/opsrelay/internal/observability/notify"
	"github.com/target/opsrelay/internal/trigger"
)

// Pull request event names emitted by CodeCommit.
const (
	prCreated             = "pullRequestCreated"
	prStatusChanged       = "pullRequestStatusChanged"
	prMergeStatusUpdated  = "pullRequestMergeStatusUpdated"
	prSourceBranchUpdated = "pullRequestSourceBranchUpdated"
	prCommentCreated      = "commentOnPullRequestCreated"
)

// VCSWorkflowOptions groups dependencies for VCSWorkflow.
type VCSWorkflowOptions struct {
	Invocation *Invocation       // Required
	Commits    core.CommitLookup // Required
	VCS        config.VCSConfig
}

// VCSWorkflow relays repository activity to the chat sinks.
type VCSWorkflow struct {
	inv     *Invocation
	commits core.CommitLookup
	cfg     config.VCSConfig
}

// NewVCSWorkflow constructs a VCSWorkflow.
func NewVCSWorkflow(opts VCSWorkflowOptions) (*VCSWorkflow, error) {
	if opts.Invocation == nil {
		return nil, errors.New("invocation is required")
	}
	if opts.Commits == nil {
		return nil, errors.New("commit lookup is required")
	}
	return &VCSWorkflow{inv: opts.Invocation, commits: opts.Commits, cfg: opts.VCS}, nil
}

// Handle relays one repository event. Events with no message are logged and ignored.
func (w *VCSWorkflow) Handle(ctx context.Context, ev trigger.Event) int {
	var (
		msg notify.Message
		ok  bool
		err error
	)
	switch ev.Kind {
	case trigger.KindPush:
		msg, ok, err = w.push(ctx, ev.Push)
	case trigger.KindPullRequest:
		msg, ok = w.pullRequest(ctx, ev.PullRequest)
	case trigger.KindPullRequestComment:
		msg, ok, err = w.pullRequestComment(ctx, ev.Comment)
	case trigger.KindCommitComment:
		msg, ok, err = w.commitComment(ctx, ev.Comment)
	default:
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] No notification sent. Event kind: %s", ev.Kind))
		return model.ExitOK
	}

	if err != nil {
		w.inv.Log().Record(ctx, "[ERROR] "+err.Error())
		return model.ExitFailed
	}
	if ok {
		msg.Severity = notify.SeverityInfo
		w.inv.Notifier().Post(ctx, msg)
	}
	return model.ExitOK
}

func (w *VCSWorkflow) push(ctx context.Context, p *trigger.Push) (notify.Message, bool, error) {
	if p == nil {
		return notify.Message{}, false, errors.New("push event has no record")
	}
	repo, branch, user := p.Repository(), p.Branch(), p.User()

	commitMsg, err := w.commits.CommitMessage(ctx, repo, p.CommitID)
	if err != nil {
		return notify.Message{}, false, err
	}

	w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] %s has pushed to %s repository %s branch", user, repo, branch))
	return notify.Message{
		Title: fmt.Sprintf("%s started an automated deploy on the %s branch.", user, branch),
		Text: fmt.Sprintf("Deploying from %s, please wait a moment.\n\nChanges:\n%s",
			repo, strings.TrimSpace(commitMsg)),
		Target:   "repository:" + repo,
		Metadata: map[string]string{"commit_id": p.CommitID, "branch": branch},
	}, true, nil
}

func (w *VCSWorkflow) pullRequest(ctx context.Context, pr *trigger.PullRequest) (notify.Message, bool) {
	if pr == nil {
		return notify.Message{}, false
	}
	user := pr.User()
	var title string
	switch pr.Event {
	case prCreated:
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] %s has created a new pull request. ID: %s", user, pr.ID))
		title = fmt.Sprintf("%s opened pull request (%s).", user, pr.ID)
	case prStatusChanged:
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] %s has closed without merging a pull request. ID: %s", user, pr.ID))
		title = fmt.Sprintf("%s closed pull request (%s) without merging.", user, pr.ID)
	case prMergeStatusUpdated:
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] %s has merged a pull request. ID: %s", user, pr.ID))
		title = fmt.Sprintf("%s merged and closed pull request (%s).", user, pr.ID)
	case prSourceBranchUpdated:
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] %s has pushed to non master branch. ID: %s", user, pr.ID))
		title = fmt.Sprintf("%s committed to the %s branch of pull request (%s).",
			user, trigger.BranchName(pr.SourceRef), pr.ID)
	default:
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] No notification sent. Pull Event: %s PullID: %s", pr.Event, pr.ID))
		return notify.Message{}, false
	}

	description := pr.Description
	if description == "" {
		description = "(none)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nTitle: %s\nDescription: %s\nBranch: %s → %s",
		pr.Title, description, trigger.BranchName(pr.SourceRef), trigger.BranchName(pr.DestinationRef))
	if pr.Event == prSourceBranchUpdated {
		fmt.Fprintf(&b, "\nCommit ID: %s", pr.SourceCommit)
	}
	fmt.Fprintf(&b, "\n\n%s", w.link("pull-requests/"+pr.ID+"/commits", ""))

	return notify.Message{
		Title:    title,
		Text:     b.String(),
		Target:   "pull-request:" + pr.ID,
		Metadata: map[string]string{"event": pr.Event},
	}, true
}

func (w *VCSWorkflow) pullRequestComment(ctx context.Context, c *trigger.Comment) (notify.Message, bool, error) {
	if c == nil {
		return notify.Message{}, false, nil
	}
	if c.Event != prCommentCreated {
		w.inv.Log().Record(ctx, fmt.Sprintf("[INFO] No notification sent. Pull Event: %s PullID: %s", c.Event, c.PullRequestID))
		return notify.Message{}, false, nil
	}
	content, err := w.commits.CommentContent(ctx, c.CommentID)
	if err != nil {
		return notify.Message{}, false, err
	}

	w.inv.Log().Record(ctx, "[INFO] comment added to PullID: "+c.PullRequestID)
	return notify.Message{
		Title: fmt.Sprintf("%s commented on pull request (%s).", c.User(), c.PullRequestID),
		Text: fmt.Sprintf("\nComment:\n%s\n\n%s",
			content, w.link("pull-requests/"+c.PullRequestID+"/activity", c.CommentID)),
		Target: "pull-request:" + c.PullRequestID,
	}, true, nil
}

func (w *VCSWorkflow) commitComment(ctx context.Context, c *trigger.Comment) (notify.Message, bool, error) {
	if c == nil {
		return notify.Message{}, false, nil
	}
	content, err := w.commits.CommentContent(ctx, c.CommentID)
	if err != nil {
		return notify.Message{}, false, err
	}

	w.inv.Log().Record(ctx, "[INFO] comment added")
	return notify.Message{
		Title: c.User() + " commented on a commit.",
		Text: fmt.Sprintf("\nCommit ID: %s\nComment:\n%s\n\n%s",
			c.AfterCommitID, content, w.link("commit/"+c.AfterCommitID, c.CommentID)),
		Target: "commit:" + c.AfterCommitID,
	}, true, nil
}

// link builds a console URL under the repository base.
func (w *VCSWorkflow) link(path, fragment string) string {
	u := w.cfg.ConsoleBaseURL + path
	if w.cfg.ConsoleRegion != "" {
		u += "?region=" + w.cfg.ConsoleRegion
	}
	if fragment != "" {
		u += "#" + fragment
	}
	return u
}
