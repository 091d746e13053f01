package activity

import (
	"context"
	"testing"
	"time"
)

func TestSampleComputesSecondsSinceLastActivity(t *testing.T) {
	tracker := NewTracker(time.Unix(1000, 0))
	s := NewSampler(tracker, time.Second)

	tick := s.sample(time.Unix(1037, 0))
	if tick.SecondsSinceActive != 37 {
		t.Fatalf("expected 37 seconds since activity, got %d", tick.SecondsSinceActive)
	}
}

func TestSampleClampsNegativeSkew(t *testing.T) {
	tracker := NewTracker(time.Unix(1000, 0))
	s := NewSampler(tracker, time.Second)

	// A clock that runs slightly behind the tracker's last mark must not
	// produce a negative reading.
	tick := s.sample(time.Unix(999, 0))
	if tick.SecondsSinceActive != 0 {
		t.Fatalf("expected clamped 0, got %d", tick.SecondsSinceActive)
	}
}

func TestSampleReflectsMostRecentMark(t *testing.T) {
	tracker := NewTracker(time.Unix(1000, 0))
	tracker.Mark(time.Unix(1020, 0))
	s := NewSampler(tracker, time.Second)

	tick := s.sample(time.Unix(1025, 0))
	if tick.SecondsSinceActive != 5 {
		t.Fatalf("expected 5 seconds since the later mark, got %d", tick.SecondsSinceActive)
	}
}

func TestRunEmitsTicksUntilContextCancelled(t *testing.T) {
	tracker := NewTracker(time.Now())
	s := NewSampler(tracker, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Tick)

	done := make(chan struct{})
	go func() {
		s.Run(ctx, out)
		close(done)
	}()

	<-out
	cancel()

	for range out {
	}
	<-done
}
