package cloudwatch

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

type fakeAPI struct {
	streams []types.LogStream
	descErr error
	putErr  error
	puts    []*cloudwatchlogs.PutLogEventsInput
}

func (f *fakeAPI) DescribeLogStreams(_ context.Context, in *cloudwatchlogs.DescribeLogStreamsInput,
	_ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	if f.descErr != nil {
		return nil, f.descErr
	}
	return &cloudwatchlogs.DescribeLogStreamsOutput{LogStreams: f.streams}, nil
}

func (f *fakeAPI) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput,
	_ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &cloudwatchlogs.PutLogEventsOutput{NextSequenceToken: aws.String("next")}, nil
}

var stream = model.LogStream{Group: "ops", Stream: "relay"}

func TestDescribeStream(t *testing.T) {
	api := &fakeAPI{streams: []types.LogStream{
		{LogStreamName: aws.String("relay-old"), UploadSequenceToken: aws.String("nope")},
		{LogStreamName: aws.String("relay"), UploadSequenceToken: aws.String("4961")},
	}}

	desc, err := NewBackend(api).DescribeStream(context.Background(), stream)

	require.NoError(t, err)
	assert.True(t, desc.Exists)
	assert.Equal(t, "4961", aws.ToString(desc.SequenceToken))
}

func TestDescribeStreamNeverWritten(t *testing.T) {
	api := &fakeAPI{streams: []types.LogStream{{LogStreamName: aws.String("relay")}}}

	desc, err := NewBackend(api).DescribeStream(context.Background(), stream)

	require.NoError(t, err)
	assert.False(t, desc.Exists)
	assert.Nil(t, desc.SequenceToken)
}

func TestDescribeStreamMissing(t *testing.T) {
	_, err := NewBackend(&fakeAPI{}).DescribeStream(context.Background(), stream)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPutEventsOmitsNilToken(t *testing.T) {
	api := &fakeAPI{}
	entries := []model.LogEntry{{Timestamp: 1700000000000, Message: "[START] Starting Script"}}

	require.NoError(t, NewBackend(api).PutEvents(context.Background(), stream, entries, nil))

	require.Len(t, api.puts, 1)
	in := api.puts[0]
	assert.Nil(t, in.SequenceToken)
	assert.Equal(t, "ops", aws.ToString(in.LogGroupName))
	assert.Equal(t, "relay", aws.ToString(in.LogStreamName))
	require.Len(t, in.LogEvents, 1)
	assert.Equal(t, "[START] Starting Script", aws.ToString(in.LogEvents[0].Message))
	assert.Equal(t, int64(1700000000000), aws.ToInt64(in.LogEvents[0].Timestamp))
}

func TestPutEventsCarriesToken(t *testing.T) {
	api := &fakeAPI{}
	require.NoError(t, NewBackend(api).PutEvents(context.Background(), stream, nil, aws.String("4961")))
	assert.Equal(t, "4961", aws.ToString(api.puts[0].SequenceToken))
}

func TestPutEventsStaleToken(t *testing.T) {
	api := &fakeAPI{putErr: &types.InvalidSequenceTokenException{
		Message:               aws.String("The given sequenceToken is invalid"),
		ExpectedSequenceToken: aws.String("4962"),
	}}

	err := NewBackend(api).PutEvents(context.Background(), stream, nil, aws.String("4961"))

	require.Error(t, err)
	assert.True(t, apperrors.IsStaleToken(err))
	expected, ok := ExpectedToken(err)
	assert.True(t, ok)
	assert.Equal(t, "4962", expected)
}

func TestPutEventsAlreadyAccepted(t *testing.T) {
	api := &fakeAPI{putErr: &types.DataAlreadyAcceptedException{Message: aws.String("already accepted")}}
	assert.NoError(t, NewBackend(api).PutEvents(context.Background(), stream, nil, aws.String("4961")))
}

func TestPutEventsOtherErrorPassesThrough(t *testing.T) {
	boom := errors.New("throttled")
	err := NewBackend(&fakeAPI{putErr: boom}).PutEvents(context.Background(), stream, nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, apperrors.IsStaleToken(err))
}
