package statemachine

import (
	"testing"
	"time"

	"github.com/kasl-dev/kasl/internal/activity"
	"github.com/kasl-dev/kasl/internal/config"
	"github.com/kasl-dev/kasl/internal/db"
)

func newTestMachine(t *testing.T) (*Machine, *db.Store, time.Time) {
	t.Helper()
	store, err := db.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	m, err := New(store, config.Defaults().Monitor, base, nil)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m, store, base
}

func feed(t *testing.T, m *Machine, now time.Time, sa int64) {
	t.Helper()
	if err := m.Process(activity.Tick{Now: now, SecondsSinceActive: sa}); err != nil {
		t.Fatalf("process tick at %v: %v", now, err)
	}
}

func TestActivityThresholdBoundaryOpensWorkday(t *testing.T) {
	m, store, base := newTestMachine(t)

	feed(t, m, base, 0) // Idle -> Warming
	if m.State() != Warming {
		t.Fatalf("expected Warming, got %v", m.State())
	}

	justBefore := base.Add(29 * time.Second)
	feed(t, m, justBefore, 0)
	if m.State() != Warming {
		t.Fatalf("one second before threshold must not open a workday, got %v", m.State())
	}

	atThreshold := base.Add(30 * time.Second)
	feed(t, m, atThreshold, 0)
	if m.State() != Working {
		t.Fatalf("expected Working exactly at activity_threshold, got %v", m.State())
	}

	wd, err := store.GetWorkdayByDate("2026-03-02")
	if err != nil {
		t.Fatalf("get workday: %v", err)
	}
	if wd == nil {
		t.Fatal("expected workday to exist")
	}
	if !wd.Start.Equal(base) {
		t.Fatalf("expected start %v, got %v", base, wd.Start)
	}
}

func TestWarmingInterruptedDiscardsProgress(t *testing.T) {
	m, _, base := newTestMachine(t)
	feed(t, m, base, 0)
	feed(t, m, base.Add(10*time.Second), 1) // interrupted before threshold
	if m.State() != Idle {
		t.Fatalf("expected Idle after interruption, got %v", m.State())
	}
}

func TestSubThresholdInterruptionProducesNoPause(t *testing.T) {
	m, store, base := newTestMachine(t)
	feed(t, m, base, 0)
	feed(t, m, base.Add(30*time.Second), 0) // opens workday
	if m.State() != Working {
		t.Fatalf("expected Working, got %v", m.State())
	}

	gap := base.Add(2 * time.Hour)
	feed(t, m, gap, 30) // sub-threshold gap (pause_threshold default is 60s)
	if m.State() != Working {
		t.Fatalf("sub-threshold gap must not pause, got %v", m.State())
	}
	feed(t, m, gap.Add(31*time.Second), 0) // activity resumes
	if m.State() != Working {
		t.Fatalf("expected still Working, got %v", m.State())
	}

	pauses, err := store.ListPausesByDate("2026-03-02")
	if err != nil {
		t.Fatalf("list pauses: %v", err)
	}
	if len(pauses) != 0 {
		t.Fatalf("expected no pauses, got %d", len(pauses))
	}
}

func TestPauseThresholdBoundaryOpensPause(t *testing.T) {
	m, store, base := newTestMachine(t)
	feed(t, m, base, 0)
	feed(t, m, base.Add(30*time.Second), 0)

	almostPause := base.Add(time.Hour)
	feed(t, m, almostPause, 59)
	if m.State() != Working {
		t.Fatalf("59s inactivity must not pause, got %v", m.State())
	}

	feed(t, m, almostPause.Add(time.Second), 60)
	if m.State() != Paused {
		t.Fatalf("expected Paused exactly at pause_threshold, got %v", m.State())
	}

	pauses, err := store.ListPausesByDate("2026-03-02")
	if err != nil {
		t.Fatalf("list pauses: %v", err)
	}
	if len(pauses) != 1 {
		t.Fatalf("expected 1 open pause, got %d", len(pauses))
	}
	if pauses[0].End != nil {
		t.Fatalf("pause should still be open")
	}
}

func TestOneLunchBreakScenario(t *testing.T) {
	m, store, base := newTestMachine(t) // base = 09:00:00

	feed(t, m, base, 0)
	feed(t, m, base.Add(30*time.Second), 0) // workday opens at 09:00:00

	noon := base.Add(3 * time.Hour) // 12:00:00, still active
	feed(t, m, noon, 0)

	afterThreshold := noon.Add(60 * time.Second) // 12:01:00, inactivity hits 60s
	feed(t, m, afterThreshold, 60)
	if m.State() != Paused {
		t.Fatalf("expected Paused, got %v", m.State())
	}

	resume := base.Add(3*time.Hour + 45*time.Minute) // 12:45:00
	feed(t, m, resume, 0)
	if m.State() != Working {
		t.Fatalf("expected Working after resume, got %v", m.State())
	}

	end := base.Add(8 * time.Hour) // 17:00:00
	feed(t, m, end, 0)

	pauses, err := store.ListCompletedPausesByDate("2026-03-02")
	if err != nil {
		t.Fatalf("list completed pauses: %v", err)
	}
	if len(pauses) != 1 {
		t.Fatalf("expected 1 completed pause, got %d", len(pauses))
	}
	p := pauses[0]
	if !p.Start.Equal(noon) {
		t.Fatalf("expected pause start 12:00:00, got %v", p.Start)
	}
	if !p.End.Equal(resume) {
		t.Fatalf("expected pause end 12:45:00, got %v", p.End)
	}
	wantDuration := int64(45*time.Minute/time.Second) - 60
	if p.Duration == nil || *p.Duration != wantDuration {
		t.Fatalf("expected duration %d, got %v", wantDuration, p.Duration)
	}

	wd, err := store.GetWorkdayByDate("2026-03-02")
	if err != nil {
		t.Fatalf("get workday: %v", err)
	}
	if !wd.Start.Equal(base) || wd.End == nil || !wd.End.Equal(end) {
		t.Fatalf("expected workday 09:00:00-17:00:00, got start=%v end=%v", wd.Start, wd.End)
	}
}

func TestCrashMidPauseRestartsIntoPausedWithoutDuplicating(t *testing.T) {
	store, err := db.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	m, err := New(store, config.Defaults().Monitor, base, nil)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	feed(t, m, base, 0)
	feed(t, m, base.Add(30*time.Second), 0)

	pauseAt := time.Date(2026, 3, 2, 14, 0, 0, 0, time.Local)
	feed(t, m, pauseAt.Add(60*time.Second), 60) // pause start recorded at 14:00:00
	if m.State() != Paused {
		t.Fatalf("expected Paused, got %v", m.State())
	}

	// Simulate a crash and restart at 14:30; the daemon is re-constructed
	// from persistence only.
	restartAt := time.Date(2026, 3, 2, 14, 30, 0, 0, time.Local)
	m2, err := New(store, config.Defaults().Monitor, restartAt, nil)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if m2.State() != Paused {
		t.Fatalf("expected restart into Paused, got %v", m2.State())
	}

	feed(t, m2, restartAt, 0) // immediate activity resumes work
	if m2.State() != Working {
		t.Fatalf("expected Working after resume, got %v", m2.State())
	}

	pauses, err := store.ListCompletedPausesByDate("2026-03-02")
	if err != nil {
		t.Fatalf("list completed pauses: %v", err)
	}
	if len(pauses) != 1 {
		t.Fatalf("expected exactly 1 completed pause (no duplicate), got %d", len(pauses))
	}
	if !pauses[0].Start.Equal(pauseAt) {
		t.Fatalf("expected preserved pause start %v, got %v", pauseAt, pauses[0].Start)
	}
	wantDuration := int64(restartAt.Sub(pauseAt).Seconds()) - 60
	if pauses[0].Duration == nil || *pauses[0].Duration != wantDuration {
		t.Fatalf("expected duration %d, got %v", wantDuration, pauses[0].Duration)
	}
}

func TestFinalizeClosesOpenPauseAndWorkday(t *testing.T) {
	m, store, base := newTestMachine(t)
	feed(t, m, base, 0)
	feed(t, m, base.Add(30*time.Second), 0)
	feed(t, m, base.Add(2*time.Hour), 60)
	if m.State() != Paused {
		t.Fatalf("expected Paused, got %v", m.State())
	}

	finalizeAt := base.Add(3 * time.Hour)
	if err := m.Finalize(finalizeAt); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if m.State() != Idle {
		t.Fatalf("expected Idle after finalize, got %v", m.State())
	}

	pauses, err := store.ListCompletedPausesByDate("2026-03-02")
	if err != nil {
		t.Fatalf("list completed pauses: %v", err)
	}
	if len(pauses) != 1 {
		t.Fatalf("expected pause to be closed by finalize, got %d completed", len(pauses))
	}

	wd, err := store.GetWorkdayByDate("2026-03-02")
	if err != nil {
		t.Fatalf("get workday: %v", err)
	}
	if wd.End == nil || !wd.End.Equal(finalizeAt) {
		t.Fatalf("expected workday end %v, got %v", finalizeAt, wd.End)
	}
}
