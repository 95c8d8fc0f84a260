package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/domain/model"
	"github.com/target/opsrelay/internal/testutil"
)

// runningInstance reports one healthy, running instance.
type runningInstance struct {
	starts int
}

func (f *runningInstance) DescribeInstances(_ context.Context, in *awsec2.DescribeInstancesInput,
	_ ...func(*awsec2.Options)) (*awsec2.DescribeInstancesOutput, error) {
	return &awsec2.DescribeInstancesOutput{Reservations: []types.Reservation{{Instances: []types.Instance{{
		InstanceId: aws.String(in.InstanceIds[0]),
		State:      &types.InstanceState{Name: types.InstanceStateNameRunning},
	}}}}}, nil
}

func (f *runningInstance) DescribeInstanceStatus(_ context.Context, in *awsec2.DescribeInstanceStatusInput,
	_ ...func(*awsec2.Options)) (*awsec2.DescribeInstanceStatusOutput, error) {
	return &awsec2.DescribeInstanceStatusOutput{InstanceStatuses: []types.InstanceStatus{{
		InstanceId:     aws.String(in.InstanceIds[0]),
		InstanceState:  &types.InstanceState{Name: types.InstanceStateNameRunning},
		InstanceStatus: &types.InstanceStatusSummary{Status: types.SummaryStatusOk},
		SystemStatus:   &types.InstanceStatusSummary{Status: types.SummaryStatusOk},
	}}}, nil
}

func (f *runningInstance) StartInstances(context.Context, *awsec2.StartInstancesInput,
	...func(*awsec2.Options)) (*awsec2.StartInstancesOutput, error) {
	f.starts++
	return &awsec2.StartInstancesOutput{}, nil
}

func (f *runningInstance) StopInstances(context.Context, *awsec2.StopInstancesInput,
	...func(*awsec2.Options)) (*awsec2.StopInstancesOutput, error) {
	return &awsec2.StopInstancesOutput{}, nil
}

func baseConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		Action: config.ActionAuto,
		Region: "ap-northeast-1",
		Logs:   config.LogsConfig{FallbackOnly: true},
	}
	cfg.Sanitize()
	return cfg
}

func TestBuildServices_RequiresConfig(t *testing.T) {
	_, err := BuildServices(ServiceDeps{})
	require.Error(t, err)
}

func TestBuildServices_WiresConfiguredWorkflowsOnly(t *testing.T) {
	cfg := baseConfig()
	cfg.Instance.ID = "i-0abc123"
	ec2API := &runningInstance{}

	svc, err := BuildServices(ServiceDeps{
		Config: cfg,
		AWS:    AWSClients{EC2: ec2API},
		Clock:  testutil.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.NotNil(t, svc.Dispatcher)
	assert.Nil(t, svc.Runs)

	status := svc.Dispatcher.HandleAction(context.Background(), config.ActionInstanceStart, []byte(`{}`))
	assert.Equal(t, model.ExitOK, status)
	assert.Zero(t, ec2API.starts, "a running instance is not started again")

	// Deploy settings are absent, so the workflow is rejected as misconfigured.
	status = svc.Dispatcher.HandleAction(context.Background(), config.ActionDeploy, []byte(`{}`))
	assert.Equal(t, model.ExitInternal, status)
}

func TestBuildSinks(t *testing.T) {
	cfg := baseConfig()
	cfg.Notifications = config.NotificationsConfig{
		Chat:  config.ChatNotificationConfig{Enabled: true, URL: "https://chat.example.com/v2", Token: "tok", Room: "42"},
		Slack: config.SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.example.com/T/B/x"},
		SNS:   config.SNSNotificationConfig{Enabled: true, TopicARN: "arn:aws:sns:ap-northeast-1:1:ops"},
	}
	cfg.Notifications.Sanitize()

	withoutSNSClient := buildSinks(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, ServiceDeps{Config: cfg})

	names := make([]string, 0, len(withoutSNSClient))
	for _, s := range withoutSNSClient {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"chatwork", "slack"}, names)
}
