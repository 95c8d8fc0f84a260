// Package sns publishes notifications to an SNS topic, typically fanned out to e-mail.
package sns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/target/opsrelay/internal/observability/notify"
)

// maxSubjectLen is the SNS limit for e-mail subjects.
const maxSubjectLen = 100

// PublishAPI is the subset of the SNS client used here.
type PublishAPI interface {
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// Config describes the destination topic.
type Config struct {
	API      PublishAPI
	TopicARN string
	Subject  string
	// FailuresOnly drops messages whose severity is info.
	FailuresOnly bool
}

// Publisher is a notify.Sink backed by SNS.
type Publisher struct {
	api          PublishAPI
	topicARN     string
	subject      string
	failuresOnly bool
}

var _ notify.Sink = (*Publisher)(nil)

// NewPublisher validates cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.API == nil {
		return nil, errors.New("sns client is required")
	}
	topic := strings.TrimSpace(cfg.TopicARN)
	if topic == "" {
		return nil, errors.New("sns topic arn is required")
	}
	return &Publisher{
		api:          cfg.API,
		topicARN:     topic,
		subject:      strings.TrimSpace(cfg.Subject),
		failuresOnly: cfg.FailuresOnly,
	}, nil
}

// Send publishes msg once.
func (p *Publisher) Send(ctx context.Context, msg notify.Message) error {
	if p.failuresOnly && !msg.IsFailure() {
		return nil
	}
	body := msg.Body()
	if strings.TrimSpace(body) == "" {
		return nil
	}

	in := &awssns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(body),
	}
	if subject := p.subjectFor(msg); subject != "" {
		in.Subject = aws.String(subject)
	}
	if msg.Severity != "" {
		in.MessageAttributes = map[string]types.MessageAttributeValue{
			"severity": {DataType: aws.String("String"), StringValue: aws.String(msg.Severity)},
		}
	}

	if _, err := p.api.Publish(ctx, in); err != nil {
		return fmt.Errorf("sns publish to %s: %w", p.topicARN, err)
	}
	return nil
}

func (p *Publisher) subjectFor(msg notify.Message) string {
	subject := p.subject
	if t := strings.TrimSpace(msg.Title); t != "" {
		if subject == "" {
			subject = t
		} else {
			subject += ": " + t
		}
	}
	// Subjects must be single-line ASCII-ish text under the limit.
	subject = strings.Join(strings.Fields(subject), " ")
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}
	return subject
}
