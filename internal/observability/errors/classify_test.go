package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/opsrelay/internal/errors"
)

type throttledError struct{}

func (throttledError) Error() string { return "throttled" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error code", err: apperrors.Probe(fmt.Errorf("boom"), "instance:i-1"), want: "probe"},
		{name: "wrapped app error", err: fmt.Errorf("ctx: %w", apperrors.StaleToken("s", nil)), want: "stale_token"},
		{name: "deadline", err: fmt.Errorf("poll: %w", context.DeadlineExceeded), want: "deadline_exceeded"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "concrete type", err: fmt.Errorf("wrap: %w", throttledError{}), want: "errors_throttlederror"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
