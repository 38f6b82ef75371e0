package hue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lampgrid/lampgrid-core/internal/infrastructure/config"
)

func TestRetryPolicy_Do_TransientRetried(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}

	calls := 0
	err := policy.Do(context.Background(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return &TransportError{Op: "test", Err: errors.New("connection refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryPolicy_Do_ExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}

	calls := 0
	transient := &TransportError{Op: "test", Err: errors.New("timeout")}
	err := policy.Do(context.Background(), func(_ context.Context) error {
		calls++
		return transient
	})

	if !errors.Is(err, transient.Err) && !IsTransient(err) {
		t.Errorf("Do() error = %v, want the transport error", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryPolicy_Do_BridgeErrorNotRetried(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
	}

	calls := 0
	err := policy.Do(context.Background(), func(_ context.Context) error {
		calls++
		return &APIError{Type: CodeResourceUnavailable, Description: "not available"}
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want *APIError", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (bridge rejections are final)", calls)
	}
}

func TestRetryPolicy_Do_ContextCancelled(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:    10,
		InitialBackoff: time.Hour, // never elapses
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, func(_ context.Context) error {
		return &TransportError{Op: "test", Err: errors.New("timeout")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestRetryPolicy_Do_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := RetryPolicy{}.Do(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryPolicyFromConfig(t *testing.T) {
	p := RetryPolicyFromConfig(config.RetryConfig{})
	if p != DefaultRetryPolicy() {
		t.Errorf("empty config should yield defaults, got %+v", p)
	}

	p = RetryPolicyFromConfig(config.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 100,
		MaxBackoff:     1000,
	})
	if p.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", p.MaxAttempts)
	}
	if p.InitialBackoff != 100*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 100ms", p.InitialBackoff)
	}
	if p.MaxBackoff != time.Second {
		t.Errorf("MaxBackoff = %v, want 1s", p.MaxBackoff)
	}
}
