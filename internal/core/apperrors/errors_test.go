package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestGatewayErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
		wantGateway   bool
	}{
		{
			name:          "retryable",
			err:           Retryable("summarize", context.DeadlineExceeded),
			wantRetryable: true,
			wantGateway:   true,
		},
		{
			name:          "fatal",
			err:           Fatal("export", errors.New("401 unauthorized")),
			wantRetryable: false,
			wantGateway:   true,
		},
		{
			name:          "wrapped retryable",
			err:           fmt.Errorf("block 7: %w", Retryable("summarize", errors.New("throttled"))),
			wantRetryable: true,
			wantGateway:   true,
		},
		{
			name:          "plain error",
			err:           errors.New("boom"),
			wantRetryable: false,
			wantGateway:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.wantRetryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.wantRetryable)
			}
			if got := IsGateway(tt.err); got != tt.wantGateway {
				t.Errorf("IsGateway() = %v, want %v", got, tt.wantGateway)
			}
		})
	}
}

func TestGatewayErrorUnwrap(t *testing.T) {
	err := Retryable("summarize", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected errors.Is to find context.DeadlineExceeded in %v", err)
	}
}

func TestSentinelHelpers(t *testing.T) {
	if err := Invalid("event %d has no timestamp", 3); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Invalid() = %v, want ErrInvalidInput", err)
	}
	if err := Misconfigured("monthly budget %s is negative", "-1h"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Misconfigured() = %v, want ErrConfiguration", err)
	}
}
