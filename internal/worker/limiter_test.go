package worker

import (
	"context"
	"testing"
)

func TestLimiter_DefaultBurst(t *testing.T) {
	if l := NewLimiter(10, -1); l.burst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.burst)
	}
	if l := NewLimiter(10, 2); l.burst != 2 {
		t.Errorf("expected burst 2, got %d", l.burst)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if limiter.Allow("openai") {
		t.Error("expected openai bucket to be exhausted")
	}
	if !limiter.Allow("anthropic") {
		t.Error("expected a fresh bucket for another provider")
	}
}

func TestLimiter_Wait_CancelledContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	if !limiter.Allow("openai") {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(ctx, "openai"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestLimiter_WaitURL(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "https://evidence.example.com/a.jpg"); err != nil {
		t.Fatalf("WaitURL failed: %v", err)
	}

	// host bucket is shared across paths
	if limiter.Allow("evidence.example.com") {
		t.Error("expected host bucket to be exhausted")
	}

	for _, bad := range []string{"not a url", "::invalid"} {
		if err := limiter.WaitURL(ctx, bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
