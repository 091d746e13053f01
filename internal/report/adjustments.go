package report

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/kerrors"
)

// TrimStart moves Workday.start forward by delta, validated so the new
// start stays strictly before Workday.end and before the first pause, if
// any.
func (a *Aggregator) TrimStart(date string, delta time.Duration) error {
	return a.withTx(func(tx *sql.Tx) error {
		wd, pauses, err := loadDay(tx, date)
		if err != nil {
			return err
		}
		if wd == nil {
			return fmt.Errorf("%w: no workday for %s", kerrors.ErrNoOpenWorkday, date)
		}

		newStart := wd.Start.Add(delta)
		if wd.End == nil || !newStart.Before(*wd.End) {
			return fmt.Errorf("%w: new start %v not before workday end", kerrors.ErrInvariantViolation, newStart)
		}
		if first := earliestPauseStart(pauses); first != nil && !newStart.Before(*first) {
			return fmt.Errorf("%w: new start %v not before first pause", kerrors.ErrInvariantViolation, newStart)
		}

		if err := db.SetWorkdayStartRaw(tx, date, newStart); err != nil {
			return err
		}
		return checkInvariants(tx, date)
	})
}

// TrimEnd moves Workday.end backward by delta, validated so the new end
// stays strictly after Workday.start and after the last completed
// pause's end, if any.
func (a *Aggregator) TrimEnd(date string, delta time.Duration) error {
	return a.withTx(func(tx *sql.Tx) error {
		wd, pauses, err := loadDay(tx, date)
		if err != nil {
			return err
		}
		if wd == nil || wd.End == nil {
			return fmt.Errorf("%w: no workday for %s", kerrors.ErrNoOpenWorkday, date)
		}

		newEnd := wd.End.Add(-delta)
		if !newEnd.After(wd.Start) {
			return fmt.Errorf("%w: new end %v not after workday start", kerrors.ErrInvariantViolation, newEnd)
		}
		if last := latestPauseEnd(pauses); last != nil && !newEnd.After(*last) {
			return fmt.Errorf("%w: new end %v not after last pause end", kerrors.ErrInvariantViolation, newEnd)
		}

		if err := db.SetWorkdayEndRaw(tx, date, newEnd); err != nil {
			return err
		}
		return checkInvariants(tx, date)
	})
}

// InsertPause inserts a new completed pause [at, at+delta] (or, when at
// is nil, at the midpoint of the longest interval between sampler-detected
// pauses; see longestIntervalMidpoint),
// rejecting placements that fall outside the workday or overlap an
// existing pause. Manual pauses record duration = delta verbatim: unlike
// sampler-detected pauses, there is no pause_threshold to subtract.
func (a *Aggregator) InsertPause(date string, at *time.Time, delta time.Duration) error {
	return a.withTx(func(tx *sql.Tx) error {
		wd, pauses, err := loadDay(tx, date)
		if err != nil {
			return err
		}
		if wd == nil || wd.End == nil {
			return fmt.Errorf("%w: no workday for %s", kerrors.ErrNoOpenWorkday, date)
		}

		start := at
		if start == nil {
			mid, err := longestIntervalMidpoint(wd.Start, *wd.End, pauses)
			if err != nil {
				return err
			}
			start = &mid
		}
		end := start.Add(delta)

		if start.Before(wd.Start) || end.After(*wd.End) {
			return fmt.Errorf("%w: pause [%v,%v] outside workday", kerrors.ErrInvariantViolation, start, end)
		}
		for _, p := range pauses {
			if p.End == nil {
				continue
			}
			if start.Before(*p.End) && p.Start.Before(end) {
				return fmt.Errorf("%w: pause [%v,%v] overlaps existing pause", kerrors.ErrInvariantViolation, start, end)
			}
		}

		durationSeconds := int64(delta.Seconds())
		if _, err := db.InsertCompletedPause(tx, *start, end, durationSeconds, true); err != nil {
			return err
		}
		return checkInvariants(tx, date)
	})
}

func (a *Aggregator) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := a.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", kerrors.ErrStorageError, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", kerrors.ErrStorageError, err)
	}
	return nil
}

func loadDay(tx *sql.Tx, date string) (*db.Workday, []db.Pause, error) {
	wd, err := db.GetWorkdayByDateTx(tx, date)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}
	pauses, err := db.ListPausesByDateTx(tx, date)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}
	return wd, pauses, nil
}

func earliestPauseStart(pauses []db.Pause) *time.Time {
	if len(pauses) == 0 {
		return nil
	}
	sorted := append([]db.Pause(nil), pauses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	return &sorted[0].Start
}

func latestPauseEnd(pauses []db.Pause) *time.Time {
	var latest *time.Time
	for i := range pauses {
		if pauses[i].End == nil {
			continue
		}
		if latest == nil || pauses[i].End.After(*latest) {
			latest = pauses[i].End
		}
	}
	return latest
}

// longestIntervalMidpoint picks the midpoint of the longest interval in
// the day's natural structure, derived only from sampler-detected pauses,
// never from previously manually-inserted ones. A manual pause changes
// what gets displayed but must not change where the next auto-placed
// manual pause lands: otherwise re-issuing the same "insert at midpoint"
// command after the first one committed would silently pick a different,
// non-overlapping slot instead of colliding with it.
func longestIntervalMidpoint(start, end time.Time, pauses []db.Pause) (time.Time, error) {
	var natural []db.Pause
	for _, p := range pauses {
		if !p.Manual {
			natural = append(natural, p)
		}
	}

	intervals := rawIntervals(start, end, natural)
	if len(intervals) == 0 {
		return time.Time{}, fmt.Errorf("%w: no displayed interval to place a pause in", kerrors.ErrInvariantViolation)
	}
	longest := intervals[0]
	for _, iv := range intervals[1:] {
		if iv.Duration > longest.Duration {
			longest = iv
		}
	}
	return longest.Start.Add(longest.Duration / 2), nil
}

// checkInvariants re-verifies workday/pause consistency for date against
// the committed-so-far transaction state, returning
// ErrInvariantViolation on any failure.
func checkInvariants(tx *sql.Tx, date string) error {
	wd, err := db.GetWorkdayByDateTx(tx, date)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}
	if wd == nil {
		return fmt.Errorf("%w: workday vanished mid-adjustment", kerrors.ErrInvariantViolation)
	}

	pauses, err := db.ListPausesByDateTx(tx, date)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}

	var open int
	completed := make([]db.Pause, 0, len(pauses))
	for _, p := range pauses {
		if p.End == nil {
			open++
			continue
		}
		if wd.End == nil || p.Start.Before(wd.Start) || !p.Start.Before(*p.End) || p.End.After(*wd.End) {
			return fmt.Errorf("%w: pause %d out of workday bounds", kerrors.ErrInvariantViolation, p.ID)
		}
		completed = append(completed, p)
	}
	if open > 1 {
		return fmt.Errorf("%w: more than one open pause on %s", kerrors.ErrInvariantViolation, date)
	}

	sort.Slice(completed, func(i, j int) bool { return completed[i].Start.Before(completed[j].Start) })
	for i := 1; i < len(completed); i++ {
		if completed[i].Start.Before(*completed[i-1].End) {
			return fmt.Errorf("%w: overlapping pauses on %s", kerrors.ErrInvariantViolation, date)
		}
	}
	return nil
}
