package config

import (
	"sort"
	"strings"

	apperrors "github.com/target/opsrelay/internal/errors"
)

// DeployConfig describes the CodePipeline/CodeDeploy pair watched by the deploy action.
type DeployConfig struct {
	Application string `env:"DEPLOY_APPLICATION"`

	// Groups maps the pipeline's UserParameters value to a deployment group,
	// e.g. DEPLOY_GROUPS=Dev:web-dev,Prod:web-prod.
	Groups map[string]string `env:"DEPLOY_GROUPS" envSeparator:"," envKeyValSeparator:":"`

	Pipeline string `env:"DEPLOY_PIPELINE"`

	// StartParameter is the UserParameters value that relays a production approval.
	StartParameter string `env:"DEPLOY_START_PARAMETER" envDefault:"PROD_START"`

	// ApprovalStage and ApprovalAction locate the manual approval by name.
	// An empty ApprovalAction selects the first action of the stage.
	ApprovalStage  string `env:"DEPLOY_APPROVAL_STAGE"  envDefault:"Approval"`
	ApprovalAction string `env:"DEPLOY_APPROVAL_ACTION"`
}

// Sanitize trims names and drops empty group mappings.
func (c *DeployConfig) Sanitize() {
	c.Application = strings.TrimSpace(c.Application)
	c.Pipeline = strings.TrimSpace(c.Pipeline)
	c.StartParameter = strings.TrimSpace(c.StartParameter)
	c.ApprovalStage = strings.TrimSpace(c.ApprovalStage)
	c.ApprovalAction = strings.TrimSpace(c.ApprovalAction)

	cleaned := make(map[string]string, len(c.Groups))
	for env, group := range c.Groups {
		env, group = strings.TrimSpace(env), strings.TrimSpace(group)
		if env == "" || group == "" {
			continue
		}
		cleaned[env] = group
	}
	c.Groups = cleaned
}

// Validate requires the application and at least one group.
func (c *DeployConfig) Validate() error {
	if c.Application == "" {
		return apperrors.Configuration("DEPLOY_APPLICATION", "DEPLOY_APPLICATION is required")
	}
	if len(c.Groups) == 0 {
		return apperrors.Configuration("DEPLOY_GROUPS", "DEPLOY_GROUPS must map at least one environment")
	}
	return nil
}

// Environments returns the configured environment names in stable order.
func (c *DeployConfig) Environments() []string {
	envs := make([]string, 0, len(c.Groups))
	for env := range c.Groups {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return envs
}

// InstanceConfig names the EC2 instance driven by instance-start/instance-stop.
type InstanceConfig struct {
	ID string `env:"INSTANCE_ID"`
}

// Sanitize trims the id.
func (c *InstanceConfig) Sanitize() {
	c.ID = strings.TrimSpace(c.ID)
}

// Validate requires the instance id.
func (c *InstanceConfig) Validate() error {
	if c.ID == "" {
		return apperrors.Configuration("INSTANCE_ID", "INSTANCE_ID is required")
	}
	return nil
}

// DomainConfig selects Elasticsearch domains to resize.
type DomainConfig struct {
	// NameFilter selects every domain whose name contains it.
	NameFilter   string `env:"DOMAIN_NAME_FILTER"`
	InstanceType string `env:"DOMAIN_INSTANCE_TYPE"`
}

// Sanitize trims values.
func (c *DomainConfig) Sanitize() {
	c.NameFilter = strings.TrimSpace(c.NameFilter)
	c.InstanceType = strings.TrimSpace(c.InstanceType)
}

// Validate requires both the filter and the target instance type.
func (c *DomainConfig) Validate() error {
	if c.NameFilter == "" {
		return apperrors.Configuration("DOMAIN_NAME_FILTER", "DOMAIN_NAME_FILTER is required")
	}
	if c.InstanceType == "" {
		return apperrors.Configuration("DOMAIN_INSTANCE_TYPE", "DOMAIN_INSTANCE_TYPE is required")
	}
	return nil
}

// VCSConfig controls links in version-control relay messages.
type VCSConfig struct {
	// ConsoleBaseURL is the repository console URL, e.g.
	// https://console.aws.amazon.com/codesuite/codecommit/repositories/web/
	ConsoleBaseURL string `env:"VCS_CONSOLE_BASE_URL"`
	ConsoleRegion  string `env:"VCS_CONSOLE_REGION"`
}

// Sanitize ensures a trailing slash and defaults the console region.
func (c *VCSConfig) Sanitize(region string) {
	c.ConsoleBaseURL = strings.TrimSpace(c.ConsoleBaseURL)
	if c.ConsoleBaseURL != "" && !strings.HasSuffix(c.ConsoleBaseURL, "/") {
		c.ConsoleBaseURL += "/"
	}
	if c.ConsoleRegion = strings.TrimSpace(c.ConsoleRegion); c.ConsoleRegion == "" {
		c.ConsoleRegion = region
	}
}

// Validate requires the console base URL used to build links.
func (c *VCSConfig) Validate() error {
	if c.ConsoleBaseURL == "" {
		return apperrors.Configuration("VCS_CONSOLE_BASE_URL", "VCS_CONSOLE_BASE_URL is required")
	}
	return nil
}
