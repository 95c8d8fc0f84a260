package bootstrap

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	awscodecommit "github.com/aws/aws-sdk-go-v2/service/codecommit"
	awscodedeploy "github.com/aws/aws-sdk-go-v2/service/codedeploy"
	awscodepipeline "github.com/aws/aws-sdk-go-v2/service/codepipeline"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/target/opsrelay/internal/adapters/cloudwatch"
	"github.com/target/opsrelay/internal/adapters/codecommit"
	"github.com/target/opsrelay/internal/adapters/codedeploy"
	"github.com/target/opsrelay/internal/adapters/codepipeline"
	"github.com/target/opsrelay/internal/adapters/ec2"
	"github.com/target/opsrelay/internal/adapters/elasticsearch"
	"github.com/target/opsrelay/internal/observability/notify/sns"
)

// AWSClients holds the provider APIs each adapter needs. Tests substitute fakes.
type AWSClients struct {
	Logs          cloudwatch.API
	Pipeline      codepipeline.API
	Deploy        codedeploy.API
	Commits       codecommit.API
	EC2           ec2.API
	Elasticsearch elasticsearch.API
	SNS           sns.PublishAPI
}

// NewAWSClients resolves credentials through the default chain and builds one client per service.
func NewAWSClients(ctx context.Context, region string) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return AWSClients{}, fmt.Errorf("load aws config: %w", err)
	}
	return AWSClients{
		Logs:          cloudwatchlogs.NewFromConfig(cfg),
		Pipeline:      awscodepipeline.NewFromConfig(cfg),
		Deploy:        awscodedeploy.NewFromConfig(cfg),
		Commits:       awscodecommit.NewFromConfig(cfg),
		EC2:           awsec2.NewFromConfig(cfg),
		Elasticsearch: elasticsearchservice.NewFromConfig(cfg),
		SNS:           awssns.NewFromConfig(cfg),
	}, nil
}
