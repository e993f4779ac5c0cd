package freshness

import (
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsOpenBoundary(t *testing.T) {
	policy := NewPolicy(fixedClock{now: time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)}, 0)

	tests := []struct {
		name string
		end  time.Time
		open bool
	}{
		{"yesterday is closed", date(2024, 6, 14), false},
		{"today is open", date(2024, 6, 15), true},
		{"today late evening is open", time.Date(2024, 6, 15, 23, 59, 0, 0, time.UTC), true},
		{"tomorrow is open", date(2024, 6, 16), true},
		{"far past is closed", date(2023, 1, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsOpen(tt.end); got != tt.open {
				t.Fatalf("IsOpen(%v) = %v, want %v", tt.end, got, tt.open)
			}
		})
	}
}

func TestExpiry(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	policy := NewPolicy(fixedClock{now: now}, 0)

	if got := policy.Expiry(date(2024, 6, 14), 0); got != nil {
		t.Fatalf("closed range must never expire, got %v", got)
	}

	got := policy.Expiry(date(2024, 6, 15), 0)
	if got == nil {
		t.Fatal("open range must get a finite expiry")
	}
	if want := now.Add(DefaultTTL); !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}

	got = policy.Expiry(date(2024, 6, 16), 60*time.Second)
	if got == nil || !got.Equal(now.Add(60*time.Second)) {
		t.Fatalf("per-op ttl not applied: %v", got)
	}
}

func TestUsable(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	policy := NewPolicy(fixedClock{now: now}, 0)

	if !policy.Usable(nil) {
		t.Fatal("nil expiry must be usable forever")
	}
	future := now.Add(time.Minute)
	if !policy.Usable(&future) {
		t.Fatal("future expiry must be usable")
	}
	past := now.Add(-time.Minute)
	if policy.Usable(&past) {
		t.Fatal("past expiry must not be usable")
	}
	if policy.Usable(&now) {
		t.Fatal("expiry at exactly now must not be usable")
	}
}
