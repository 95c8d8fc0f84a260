// Package cloudwatch implements the durable log backend on CloudWatch Logs.
package cloudwatch

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

const (
	codeInvalidSequenceToken = "InvalidSequenceTokenException"
	codeDataAlreadyAccepted  = "DataAlreadyAcceptedException"
)

// API is the subset of the CloudWatch Logs client used by Backend.
type API interface {
	DescribeLogStreams(ctx context.Context, in *cloudwatchlogs.DescribeLogStreamsInput,
		optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput,
		optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// Backend implements core.LogBackend.
type Backend struct {
	api API
}

var _ core.LogBackend = (*Backend)(nil)

// NewBackend wraps a CloudWatch Logs client.
func NewBackend(api API) *Backend {
	return &Backend{api: api}
}

// DescribeStream looks the stream up by name within its group.
func (b *Backend) DescribeStream(ctx context.Context, stream model.LogStream) (model.StreamDescription, error) {
	out, err := b.api.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName:        aws.String(stream.Group),
		LogStreamNamePrefix: aws.String(stream.Stream),
	})
	if err != nil {
		return model.StreamDescription{}, err
	}

	for _, s := range out.LogStreams {
		if aws.ToString(s.LogStreamName) != stream.Stream {
			continue
		}
		desc := model.StreamDescription{SequenceToken: s.UploadSequenceToken}
		desc.Exists = desc.HasToken()
		return desc, nil
	}
	return model.StreamDescription{}, apperrors.NotFoundf("log stream %s/%s", stream.Group, stream.Stream)
}

// PutEvents appends entries. A nil token omits the sequence token field.
func (b *Backend) PutEvents(ctx context.Context, stream model.LogStream, entries []model.LogEntry, token *string) error {
	events := make([]types.InputLogEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, types.InputLogEvent{
			Message:   aws.String(e.Message),
			Timestamp: aws.Int64(e.Timestamp),
		})
	}

	in := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(stream.Group),
		LogStreamName: aws.String(stream.Stream),
		LogEvents:     events,
	}
	if token != nil && *token != "" {
		in.SequenceToken = token
	}

	_, err := b.api.PutLogEvents(ctx, in)
	switch {
	case err == nil:
		return nil
	case errorCode(err) == codeDataAlreadyAccepted:
		return nil
	case errorCode(err) == codeInvalidSequenceToken:
		return apperrors.StaleToken(stream.Stream, err)
	}
	return err
}

// ExpectedToken returns the sequence token the service reported with a stale-token rejection.
func ExpectedToken(err error) (string, bool) {
	var stale *types.InvalidSequenceTokenException
	if errors.As(err, &stale) && stale.ExpectedSequenceToken != nil {
		return *stale.ExpectedSequenceToken, true
	}
	return "", false
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
