package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/opsrelay/internal/errors"
)

const pipelineEvent = `{
  "CodePipeline.job": {
    "id": "11111111-abcd-1111-abcd-111111abcdef",
    "accountId": "111111111111",
    "data": {
      "actionConfiguration": {
        "configuration": {"FunctionName": "opsrelay", "UserParameters": " Prod "}
      }
    }
  }
}`

const pushEvent = `{
  "Records": [{
    "eventSourceARN": "arn:aws:codecommit:ap-northeast-1:111111111111:web",
    "userIdentityARN": "arn:aws:iam::111111111111:user/alice",
    "codecommit": {"references": [{"commit": "5c4ef1049f1d27deadbeef0313e0730b67d0a5c0", "ref": "refs/heads/feature/login"}]}
  }]
}`

const pullRequestEvent = `{
  "source": "aws.codecommit",
  "detail-type": "CodeCommit Pull Request State Change",
  "detail": {
    "event": "pullRequestCreated",
    "callerUserArn": "arn:aws:iam::111111111111:user/bob",
    "pullRequestId": "42",
    "title": "Add login",
    "sourceReference": "refs/heads/feature/login",
    "destinationReference": "refs/heads/master",
    "sourceCommit": "abc123"
  }
}`

func TestParsePipelineJob(t *testing.T) {
	ev, err := Parse([]byte(pipelineEvent))
	require.NoError(t, err)

	assert.Equal(t, KindPipelineJob, ev.Kind)
	require.NotNil(t, ev.PipelineJob)
	assert.Equal(t, "11111111-abcd-1111-abcd-111111abcdef", ev.PipelineJob.ID)
	assert.Equal(t, "Prod", ev.PipelineJob.UserParameters)
	assert.NotNil(t, ev.Raw)
}

func TestParsePipelineJobWithoutIDIsInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"CodePipeline.job": {"data": {}}}`))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestParsePush(t *testing.T) {
	ev, err := Parse([]byte(pushEvent))
	require.NoError(t, err)

	assert.Equal(t, KindPush, ev.Kind)
	require.NotNil(t, ev.Push)
	assert.Equal(t, "alice", ev.Push.User())
	assert.Equal(t, "web", ev.Push.Repository())
	assert.Equal(t, "feature/login", ev.Push.Branch())
	assert.Equal(t, "5c4ef1049f1d27deadbeef0313e0730b67d0a5c0", ev.Push.CommitID)
}

func TestParsePullRequest(t *testing.T) {
	ev, err := Parse([]byte(pullRequestEvent))
	require.NoError(t, err)

	assert.Equal(t, KindPullRequest, ev.Kind)
	require.NotNil(t, ev.PullRequest)
	pr := ev.PullRequest
	assert.Equal(t, "pullRequestCreated", pr.Event)
	assert.Equal(t, "bob", pr.User())
	assert.Equal(t, "42", pr.ID)
	assert.Equal(t, "Add login", pr.Title)
	assert.Empty(t, pr.Description)
	assert.Equal(t, "feature/login", BranchName(pr.SourceRef))
	assert.Equal(t, "master", BranchName(pr.DestinationRef))
}

func TestParseComments(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind Kind
	}{
		{
			name: "pull request comment",
			payload: `{"source":"aws.codecommit","detail-type":"CodeCommit Comment on Pull Request",
				"detail":{"event":"commentOnPullRequestCreated","callerUserArn":"arn:aws:iam::1:user/carol","commentId":"c-1","pullRequestId":"7"}}`,
			wantKind: KindPullRequestComment,
		},
		{
			name: "commit comment",
			payload: `{"source":"aws.codecommit","detail-type":"CodeCommit Comment on Commit",
				"detail":{"event":"commentOnCommitCreated","callerUserArn":"arn:aws:iam::1:user/carol","commentId":"c-1","afterCommitId":"def456"}}`,
			wantKind: KindCommitComment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Parse([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, ev.Kind)
			require.NotNil(t, ev.Comment)
			assert.Equal(t, "carol", ev.Comment.User())
			assert.Equal(t, "c-1", ev.Comment.CommentID)
		})
	}
}

func TestParseScheduledAndUnknown(t *testing.T) {
	ev, err := Parse([]byte(`{"source":"aws.events","detail-type":"Scheduled Event","detail":{}}`))
	require.NoError(t, err)
	assert.Equal(t, KindScheduled, ev.Kind)

	for _, payload := range []string{``, `null`, `{}`, `[1,2]`, `{"source":"aws.health","detail-type":"AWS Health Event"}`} {
		ev, err := Parse([]byte(payload))
		require.NoError(t, err, payload)
		assert.Equal(t, KindUnknown, ev.Kind, payload)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"source":`))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBranchName(t *testing.T) {
	assert.Equal(t, "main", BranchName("refs/heads/main"))
	assert.Equal(t, "v1.0", BranchName("v1.0"))
}
