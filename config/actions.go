package config

import (
	"fmt"
	"strings"
)

// Action represents the workflow an invocation runs.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Action string

const (
	// ActionAuto infers the workflow from the inbound event.
	ActionAuto Action = "auto"
	// ActionDeploy watches a CodeDeploy group for a CodePipeline job.
	ActionDeploy Action = "deploy"
	// ActionVCS relays CodeCommit push, pull request and comment events.
	ActionVCS Action = "vcs"
	// ActionInstanceStart starts an EC2 instance and waits for it to pass health checks.
	ActionInstanceStart Action = "instance-start"
	// ActionInstanceStop stops an EC2 instance and waits for it to stop.
	ActionInstanceStop Action = "instance-stop"
	// ActionDomainResize changes the instance type of matching Elasticsearch domains.
	ActionDomainResize Action = "domain-resize"
)

// ValidActions returns all valid action names.
func ValidActions() []Action {
	return []Action{
		ActionAuto,
		ActionDeploy,
		ActionVCS,
		ActionInstanceStart,
		ActionInstanceStop,
		ActionDomainResize,
	}
}

// Valid returns true if the action is known.
func (a Action) Valid() bool {
	for _, v := range ValidActions() {
		if a == v {
			return true
		}
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (a *Action) UnmarshalText(text []byte) error {
	v := Action(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		v = ActionAuto
	}
	if !v.Valid() {
		return fmt.Errorf(
			"invalid action: %q (valid options: auto, deploy, vcs, instance-start, instance-stop, domain-resize)",
			string(text),
		)
	}
	*a = v
	return nil
}
