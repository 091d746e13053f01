package report

import (
	"errors"
	"testing"
	"time"

	"github.com/kasl-dev/kasl/internal/kerrors"
)

func TestInsertPauseAtMidpointOfLongestInterval(t *testing.T) {
	a, store := newTestAggregator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	end := time.Date(2026, 3, 2, 17, 0, 0, 0, time.Local)
	seedWorkday(t, store, "2026-03-02", start, end, nil)

	if err := a.InsertPause("2026-03-02", nil, 30*time.Minute); err != nil {
		t.Fatalf("insert pause: %v", err)
	}

	pauses, err := store.ListCompletedPausesByDate("2026-03-02")
	if err != nil {
		t.Fatalf("list pauses: %v", err)
	}
	if len(pauses) != 1 {
		t.Fatalf("expected 1 pause, got %d", len(pauses))
	}
	wantStart := time.Date(2026, 3, 2, 13, 0, 0, 0, time.Local)
	if !pauses[0].Start.Equal(wantStart) {
		t.Fatalf("expected midpoint pause start %v, got %v", wantStart, pauses[0].Start)
	}
	if pauses[0].Duration == nil || *pauses[0].Duration != int64(30*time.Minute/time.Second) {
		t.Fatalf("expected manual pause duration of exactly 1800s (no threshold subtraction), got %v", pauses[0].Duration)
	}
}

func TestInsertPauseRejectsOverlap(t *testing.T) {
	a, store := newTestAggregator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	end := time.Date(2026, 3, 2, 17, 0, 0, 0, time.Local)
	seedWorkday(t, store, "2026-03-02", start, end, nil)

	if err := a.InsertPause("2026-03-02", nil, 30*time.Minute); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := a.InsertPause("2026-03-02", nil, 30*time.Minute)
	if !errors.Is(err, kerrors.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation on overlapping re-issue, got %v", err)
	}

	pauses, err := store.ListCompletedPausesByDate("2026-03-02")
	if err != nil {
		t.Fatalf("list pauses: %v", err)
	}
	if len(pauses) != 1 {
		t.Fatalf("rejected adjustment must not mutate state, got %d pauses", len(pauses))
	}
}

func TestTrimStartRejectsPastFirstPause(t *testing.T) {
	a, store := newTestAggregator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	end := time.Date(2026, 3, 2, 17, 0, 0, 0, time.Local)
	pauseStart := time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local)
	pauseEnd := time.Date(2026, 3, 2, 9, 45, 0, 0, time.Local)
	seedWorkday(t, store, "2026-03-02", start, end, [][2]time.Time{{pauseStart, pauseEnd}})

	err := a.TrimStart("2026-03-02", time.Hour)
	if !errors.Is(err, kerrors.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}

	wd, err := store.GetWorkdayByDate("2026-03-02")
	if err != nil {
		t.Fatalf("get workday: %v", err)
	}
	if !wd.Start.Equal(start) {
		t.Fatalf("rejected trim must not mutate start, got %v", wd.Start)
	}
}

func TestTrimEndShortensWorkday(t *testing.T) {
	a, store := newTestAggregator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	end := time.Date(2026, 3, 2, 17, 0, 0, 0, time.Local)
	seedWorkday(t, store, "2026-03-02", start, end, nil)

	if err := a.TrimEnd("2026-03-02", time.Hour); err != nil {
		t.Fatalf("trim end: %v", err)
	}

	wd, err := store.GetWorkdayByDate("2026-03-02")
	if err != nil {
		t.Fatalf("get workday: %v", err)
	}
	wantEnd := end.Add(-time.Hour)
	if wd.End == nil || !wd.End.Equal(wantEnd) {
		t.Fatalf("expected end %v, got %v", wantEnd, wd.End)
	}
}

func TestTrimEndRejectsPastLastPauseEnd(t *testing.T) {
	a, store := newTestAggregator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	end := time.Date(2026, 3, 2, 17, 0, 0, 0, time.Local)
	pauseStart := time.Date(2026, 3, 2, 16, 0, 0, 0, time.Local)
	pauseEnd := time.Date(2026, 3, 2, 16, 45, 0, 0, time.Local)
	seedWorkday(t, store, "2026-03-02", start, end, [][2]time.Time{{pauseStart, pauseEnd}})

	err := a.TrimEnd("2026-03-02", time.Hour)
	if !errors.Is(err, kerrors.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}
