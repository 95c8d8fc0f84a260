// Package codecommit reads commit and comment text from AWS CodeCommit.
package codecommit

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codecommit"

	"github.com/target/opsrelay/internal/core"
	apperrors "github.com/target/opsrelay/internal/errors"
)

// API is the subset of the CodeCommit client used here.
type API interface {
	GetCommit(ctx context.Context, in *codecommit.GetCommitInput,
		optFns ...func(*codecommit.Options)) (*codecommit.GetCommitOutput, error)
	GetComment(ctx context.Context, in *codecommit.GetCommentInput,
		optFns ...func(*codecommit.Options)) (*codecommit.GetCommentOutput, error)
}

// Lookup implements core.CommitLookup.
type Lookup struct {
	api API
}

var _ core.CommitLookup = (*Lookup)(nil)

// NewLookup wraps a CodeCommit client.
func NewLookup(api API) *Lookup {
	return &Lookup{api: api}
}

// CommitMessage returns the message of commitID in repository.
func (l *Lookup) CommitMessage(ctx context.Context, repository, commitID string) (string, error) {
	out, err := l.api.GetCommit(ctx, &codecommit.GetCommitInput{
		RepositoryName: aws.String(repository),
		CommitId:       aws.String(commitID),
	})
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeInternal, "get commit %s in %s", commitID, repository)
	}
	if out.Commit == nil {
		return "", apperrors.NotFoundf("commit %s in %s", commitID, repository)
	}
	return aws.ToString(out.Commit.Message), nil
}

// CommentContent returns the text of commentID.
func (l *Lookup) CommentContent(ctx context.Context, commentID string) (string, error) {
	out, err := l.api.GetComment(ctx, &codecommit.GetCommentInput{CommentId: aws.String(commentID)})
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeInternal, "get comment %s", commentID)
	}
	if out.Comment == nil {
		return "", apperrors.NotFoundf("comment %s", commentID)
	}
	return aws.ToString(out.Comment.Content), nil
}
