package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestAllowEnforcesBurst(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("admission %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow() {
		t.Error("admission past the burst capacity should be denied")
	}
}

func TestAllowReplenishes(t *testing.T) {
	limiter := New(100, 1)

	if !limiter.Allow() {
		t.Fatal("first admission should be allowed")
	}
	if limiter.Allow() {
		t.Fatal("second immediate admission should be denied")
	}

	// At 100/s a token returns within 10ms.
	time.Sleep(25 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("admission after replenish interval should be allowed")
	}
}

func TestUnlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 10_000; i++ {
		if !limiter.Allow() {
			t.Fatalf("unlimited limiter denied admission %d", i)
		}
	}
}

func TestWaitRespectsCancellation(t *testing.T) {
	limiter := New(1, 1)
	limiter.Allow() // drain the only token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Error("Wait should fail once the context deadline passes")
	}
}
