// Package elasticsearch lists, describes and resizes Amazon Elasticsearch Service domains.
package elasticsearch

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	"github.com/aws/aws-sdk-go-v2/service/elasticsearchservice/types"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

// API is the subset of the Elasticsearch Service client used here.
type API interface {
	ListDomainNames(ctx context.Context, in *elasticsearchservice.ListDomainNamesInput,
		optFns ...func(*elasticsearchservice.Options)) (*elasticsearchservice.ListDomainNamesOutput, error)
	DescribeElasticsearchDomain(ctx context.Context, in *elasticsearchservice.DescribeElasticsearchDomainInput,
		optFns ...func(*elasticsearchservice.Options)) (*elasticsearchservice.DescribeElasticsearchDomainOutput, error)
	DescribeElasticsearchDomainConfig(ctx context.Context, in *elasticsearchservice.DescribeElasticsearchDomainConfigInput,
		optFns ...func(*elasticsearchservice.Options)) (*elasticsearchservice.DescribeElasticsearchDomainConfigOutput, error)
	UpdateElasticsearchDomainConfig(ctx context.Context, in *elasticsearchservice.UpdateElasticsearchDomainConfigInput,
		optFns ...func(*elasticsearchservice.Options)) (*elasticsearchservice.UpdateElasticsearchDomainConfigOutput, error)
}

// Manager implements core.DomainManager.
type Manager struct {
	api API
}

var _ core.DomainManager = (*Manager)(nil)

// NewManager wraps an Elasticsearch Service client.
func NewManager(api API) *Manager {
	return &Manager{api: api}
}

// ListDomains returns the sorted names of domains containing contains.
func (m *Manager) ListDomains(ctx context.Context, contains string) ([]string, error) {
	out, err := m.api.ListDomainNames(ctx, &elasticsearchservice.ListDomainNamesInput{})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, d := range out.DomainNames {
		name := aws.ToString(d.DomainName)
		if strings.Contains(name, contains) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// DomainSummary is the diagnostic view of a domain before modification.
type DomainSummary struct {
	Name          string `json:"name"`
	ARN           string `json:"arn"`
	Version       string `json:"version"`
	InstanceType  string `json:"instance_type"`
	InstanceCount int32  `json:"instance_count"`
	Processing    bool   `json:"processing"`
}

// DescribeDomain returns a DomainSummary for name.
func (m *Manager) DescribeDomain(ctx context.Context, name string) (any, error) {
	out, err := m.api.DescribeElasticsearchDomain(ctx, &elasticsearchservice.DescribeElasticsearchDomainInput{
		DomainName: aws.String(name),
	})
	if err != nil {
		return nil, err
	}
	st := out.DomainStatus
	if st == nil {
		return nil, apperrors.NotFoundf("domain %s", name)
	}
	summary := DomainSummary{
		Name:       aws.ToString(st.DomainName),
		ARN:        aws.ToString(st.ARN),
		Version:    aws.ToString(st.ElasticsearchVersion),
		Processing: aws.ToBool(st.Processing),
	}
	if cc := st.ElasticsearchClusterConfig; cc != nil {
		summary.InstanceType = string(cc.InstanceType)
		summary.InstanceCount = aws.ToInt32(cc.InstanceCount)
	}
	return summary, nil
}

// UpdateInstanceType changes the data-node instance type of name.
func (m *Manager) UpdateInstanceType(ctx context.Context, name, instanceType string) error {
	_, err := m.api.UpdateElasticsearchDomainConfig(ctx, &elasticsearchservice.UpdateElasticsearchDomainConfigInput{
		DomainName: aws.String(name),
		ElasticsearchClusterConfig: &types.ElasticsearchClusterConfig{
			InstanceType: types.ESPartitionInstanceType(instanceType),
		},
	})
	return err
}

// ConfigProbe reports the cluster configuration option state
// ("Processing", "Active", ...).
type ConfigProbe struct {
	api  API
	name string
}

var _ core.StatusProbe = (*ConfigProbe)(nil)

// NewConfigProbe binds a probe to one domain.
func NewConfigProbe(api API, name string) *ConfigProbe {
	return &ConfigProbe{api: api, name: name}
}

// Poll reads the domain configuration once.
func (p *ConfigProbe) Poll(ctx context.Context) (model.StatusSnapshot, error) {
	out, err := p.api.DescribeElasticsearchDomainConfig(ctx, &elasticsearchservice.DescribeElasticsearchDomainConfigInput{
		DomainName: aws.String(p.name),
	})
	if err != nil {
		return model.StatusSnapshot{}, apperrors.Probe(err, p.name)
	}

	snap := model.StatusSnapshot{OperationID: p.name}
	if out.DomainConfig == nil || out.DomainConfig.ElasticsearchClusterConfig == nil {
		return snap, nil
	}
	cc := out.DomainConfig.ElasticsearchClusterConfig
	if cc.Status != nil {
		snap.Status = string(cc.Status.State)
	}
	if cc.Options != nil {
		snap.Detail = map[string]string{"instance_type": string(cc.Options.InstanceType)}
	}
	return snap, nil
}

// ConfigProbes returns a ConfigProbe constructor bound to api.
func ConfigProbes(api API) func(name string) core.StatusProbe {
	return func(name string) core.StatusProbe { return NewConfigProbe(api, name) }
}
