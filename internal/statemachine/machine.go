// Package statemachine implements the Workday/Pause state machine from
// Idle -> Warming -> Working <-> Paused, driven by sampler ticks and
// persisted through internal/db.
package statemachine

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasl-dev/kasl/internal/activity"
	"github.com/kasl-dev/kasl/internal/config"
	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/kerrors"
)

// State is one of the four workday/pause tracking states.
type State int

const (
	Idle State = iota
	Warming
	Working
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Warming:
		return "warming"
	case Working:
		return "working"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Machine is the single-threaded state machine: ticks arrive in order and
// are processed one at a time. It owns all workday/pause bookkeeping
// and is the only thing that writes workday and pause rows while the
// daemon runs.
type Machine struct {
	store  *db.Store
	cfg    config.Monitor
	logger *slog.Logger

	state        State
	warmingSince time.Time
	openPauseID  int64
}

// New constructs a Machine, restoring its initial state from persistence:
// reload into Working (or Paused if a pause is open) if a workday row
// exists for today; otherwise Idle.
func New(store *db.Store, cfg config.Monitor, now time.Time, logger *slog.Logger) (*Machine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{store: store, cfg: cfg, logger: logger, state: Idle}

	today := dateOf(now)
	wd, err := store.GetWorkdayByDate(today)
	if err != nil {
		return nil, fmt.Errorf("%w: restore state: %v", kerrors.ErrStorageError, err)
	}
	if wd == nil {
		// No workday row for today yet: nothing to resume into.
		return m, nil
	}
	// A workday's end is advanced alongside its creation and on every
	// active tick thereafter, so it is never actually NULL by the time a
	// restart observes it; the open-pause check below is the operative
	// signal for whether to resume Paused or Working.

	open, err := store.GetOpenPause(today)
	if err != nil {
		return nil, fmt.Errorf("%w: restore state: %v", kerrors.ErrStorageError, err)
	}
	if open != nil {
		m.state = Paused
		m.openPauseID = open.ID
		logger.Info("restored into paused state", "date", today, "pause_start", open.Start)
		return m, nil
	}

	m.state = Working
	logger.Info("restored into working state", "date", today)
	return m, nil
}

// State returns the machine's current state.
func (m *Machine) State() State {
	return m.state
}

// Process applies one sampler tick according to the current state's
// transition rules. All writes happen inside one transaction per
// transition.
func (m *Machine) Process(tick activity.Tick) error {
	sa := time.Duration(tick.SecondsSinceActive) * time.Second

	switch m.state {
	case Idle:
		if sa == 0 {
			m.warmingSince = tick.Now
			m.state = Warming
			m.logger.Debug("idle -> warming", "at", tick.Now)
		}

	case Warming:
		if sa > 0 {
			m.warmingSince = time.Time{}
			m.state = Idle
			m.logger.Debug("warming -> idle", "at", tick.Now)
			return nil
		}
		if tick.Now.Sub(m.warmingSince) >= time.Duration(m.cfg.ActivityThreshold)*time.Second {
			if err := m.openWorkday(m.warmingSince, tick.Now); err != nil {
				return err
			}
			m.state = Working
			m.logger.Info("warming -> working", "date", dateOf(m.warmingSince), "start", m.warmingSince)
		}
		// else: stay Warming, accumulating toward activity_threshold.

	case Working:
		if sa >= time.Duration(m.cfg.PauseThreshold)*time.Second {
			pauseStart := tick.Now.Add(-time.Duration(m.cfg.PauseThreshold) * time.Second)
			id, err := m.openPause(pauseStart)
			if err != nil {
				return err
			}
			m.openPauseID = id
			m.state = Paused
			m.logger.Info("working -> paused", "pause_start", pauseStart)
		} else if sa == 0 {
			if err := m.extendWorkday(tick.Now); err != nil {
				return err
			}
		}
		// else: mid-gap, wait to learn whether this is a pause.

	case Paused:
		if sa == 0 {
			if err := m.closePause(tick.Now); err != nil {
				return err
			}
			m.state = Working
			m.logger.Info("paused -> working", "resumed_at", tick.Now)
		}
		// else: stay Paused.
	}
	return nil
}

// Finalize drives a synthetic "inactivity" tick that closes any open pause
// and finalizes the workday end, used by the daemon supervisor on
// shutdown and by the `end` command.
func (m *Machine) Finalize(now time.Time) error {
	switch m.state {
	case Paused:
		if err := m.closePause(now); err != nil {
			return err
		}
	case Working:
		if err := m.extendWorkday(now); err != nil {
			return err
		}
	case Warming, Idle:
		// Nothing persisted yet for this state; nothing to finalize.
	}
	m.state = Idle
	m.warmingSince = time.Time{}
	return nil
}

func (m *Machine) openWorkday(start, end time.Time) error {
	return m.withTx(func(tx *sql.Tx) error {
		date := dateOf(start)
		if err := db.UpsertWorkdayStart(tx, date, start); err != nil {
			return err
		}
		return db.SetWorkdayEnd(tx, date, end)
	})
}

func (m *Machine) extendWorkday(now time.Time) error {
	return m.withTx(func(tx *sql.Tx) error {
		return db.SetWorkdayEnd(tx, dateOf(now), now)
	})
}

func (m *Machine) openPause(start time.Time) (int64, error) {
	var id int64
	err := m.withTx(func(tx *sql.Tx) error {
		var err error
		id, err = db.InsertPauseStart(tx, start)
		return err
	})
	return id, err
}

func (m *Machine) closePause(now time.Time) error {
	return m.withTx(func(tx *sql.Tx) error {
		open, err := db.GetOpenPause(tx, dateOf(now))
		if err != nil {
			return err
		}
		if open == nil {
			// Nothing to close (e.g. Finalize called twice); no-op.
			return nil
		}
		duration := int64(now.Sub(open.Start).Seconds()) - int64(m.cfg.PauseThreshold)
		if duration < 0 {
			duration = 0
		}
		if err := db.CompletePause(tx, open.ID, now, duration); err != nil {
			return err
		}
		return db.SetWorkdayEnd(tx, dateOf(now), now)
	})
}

// withTx runs fn inside a transaction, promoting any storage failure to
// ErrStorageError ("the state-machine thread never
// silently swallows storage errors").
func (m *Machine) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := m.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", kerrors.ErrStorageError, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", kerrors.ErrStorageError, err)
	}
	return nil
}

func dateOf(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
