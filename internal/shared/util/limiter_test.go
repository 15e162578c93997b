package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	// Refill effectively stalled after the single burst token.
	l := NewLimiter(0.001, 1)

	if !l.Allow(1) {
		t.Fatal("expected initial burst token")
	}
	if l.Allow(1) {
		t.Fatal("expected refill to be stalled at the old rate")
	}

	l.SetRate(1000, 2)
	time.Sleep(20 * time.Millisecond)
	if !l.Allow(1) || !l.Allow(1) {
		t.Error("expected the new rate and burst to refill two tokens")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1) // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx, 1)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Wait returned too early")
	}
}
