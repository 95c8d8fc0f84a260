package model

import (
	"strings"
	"time"
)

// Approval describes the latest execution of a manual approval action.
type Approval struct {
	Stage  string
	Action string
	// ApprovedBy is the caller ARN recorded by the pipeline.
	ApprovedBy string
	Summary    string
	Status     string
	UpdatedAt  time.Time
}

// PrincipalName extracts the last segment of an ARN-like principal
// ("arn:aws:iam::123:user/alice" → "alice"). Non-ARN values are returned unchanged.
func PrincipalName(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) < 6 {
		return arn
	}
	resource := strings.Join(parts[5:], ":")
	if i := strings.LastIndex(resource, "/"); i >= 0 {
		return resource[i+1:]
	}
	return resource
}
