package gateway

import (
	"testing"
	"time"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	b := NewTokenBucket(2, 1000) // capacity 2, refill so fast a sleep clearly tops it back up

	if !b.Allow() {
		t.Fatal("expected first token to be available")
	}
	if !b.Allow() {
		t.Fatal("expected second token to be available")
	}
	if b.Allow() {
		t.Fatal("expected bucket to be exhausted after capacity consumed")
	}

	time.Sleep(5 * time.Millisecond)
	if !b.Allow() {
		t.Error("expected a token to have refilled after a short sleep")
	}
}

func TestTokenBucketNeverExceedsCapacity(t *testing.T) {
	b := NewTokenBucket(1, 1000)
	time.Sleep(10 * time.Millisecond) // plenty of time to overfill if uncapped

	allowed := 0
	for i := 0; i < 5; i++ {
		if b.Allow() {
			allowed++
		}
	}
	if allowed != 1 {
		t.Errorf("allowed = %d draws immediately after refill, want 1 (capacity cap)", allowed)
	}
}
