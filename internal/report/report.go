// Package report implements the read-time aggregation over workdays and
// pauses: interval derivation, short-interval filtering, productivity,
// monthly rollups, and write-time manual adjustments.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/kasl-dev/kasl/internal/config"
	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/kerrors"
)

// DefaultRestDayDuration is the placeholder duration credited to a date
// flagged as a rest day by an external collaborator, in the absence of
// any recorded activity for that date.
const DefaultRestDayDuration = 8 * time.Hour

// Interval is one displayed span of active work.
type Interval struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// DailyReport is the aggregation result for a single date.
type DailyReport struct {
	Date                  string
	Workday               db.Workday
	Intervals             []Interval
	FilteredCount         int
	FilteredTotalDuration time.Duration
	GrossDuration         time.Duration
	NetDuration           time.Duration
	Productivity          float64
	Tasks                 []db.Task
}

// DailyAggregate is one day's contribution to a MonthlyReport.
type DailyAggregate struct {
	Date         string
	NetDuration  time.Duration
	Productivity float64
	RestDay      bool
}

// MonthlyReport aggregates daily net durations and productivity over a
// calendar month.
type MonthlyReport struct {
	Year          int
	Month         time.Month
	Days          []DailyAggregate
	TotalDuration time.Duration
	Productivity  float64
}

// RestDaySource returns, for a given (year, month), the set of dates
// (formatted "2006-01-02") considered non-working. Failures are
// non-fatal: Monthly proceeds without rest-day annotation.
type RestDaySource interface {
	RestDays(ctx context.Context, year int, month time.Month) (map[string]bool, error)
}

// ReportSink accepts a serialized report for external submission.
// Transport, authentication, and retry are the sink's responsibility.
type ReportSink interface {
	Send(ctx context.Context, report any) error
}

// Aggregator computes reports and applies manual adjustments over a
// store.
type Aggregator struct {
	store  *db.Store
	cfg    config.Config
	logger *slog.Logger
}

// NewAggregator builds an Aggregator over store using cfg's
// min_work_interval and productivity settings.
func NewAggregator(store *db.Store, cfg config.Config, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: store, cfg: cfg, logger: logger}
}

// Daily produces the DailyReport for date ("2006-01-02"). A date with no
// recorded workday yields a zero-valued report, not an error.
func (a *Aggregator) Daily(date string) (*DailyReport, error) {
	wd, err := a.store.GetWorkdayByDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}
	if wd == nil {
		tasks, err := a.store.ListTasksByDate(date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
		}
		return &DailyReport{Date: date, Tasks: tasks}, nil
	}

	end := wd.End
	if end == nil {
		// A still-open workday (today, daemon currently running) is
		// reported as of now rather than treated as an error, so `report`
		// remains usable for a live day.
		now := time.Now()
		end = &now
	}

	pauses, err := a.store.ListCompletedPausesByDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}

	raw := rawIntervals(wd.Start, *end, pauses)
	displayed, filteredCount, filteredTotal := filterShort(raw, a.cfg.MinWorkIntervalDuration())

	gross := end.Sub(wd.Start)
	var net time.Duration
	for _, iv := range displayed {
		net += iv.Duration
	}

	tasks, err := a.store.ListTasksByDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}

	return &DailyReport{
		Date:                  date,
		Workday:               *wd,
		Intervals:             displayed,
		FilteredCount:         filteredCount,
		FilteredTotalDuration: filteredTotal,
		GrossDuration:         gross,
		NetDuration:           net,
		Productivity:          productivity(net, gross),
		Tasks:                 tasks,
	}, nil
}

// Monthly aggregates daily reports across every day of (year, month) that
// has a recorded workday or is flagged as a rest day. RestDaySource
// failures are logged and treated as "no rest days known".
func (a *Aggregator) Monthly(ctx context.Context, year int, month time.Month, restDays RestDaySource) (*MonthlyReport, error) {
	workdays, err := a.store.ListWorkdaysInMonth(time.Date(year, month, 1, 0, 0, 0, 0, time.Local))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}

	restSet := map[string]bool{}
	if restDays != nil {
		set, err := restDays.RestDays(ctx, year, month)
		if err != nil {
			a.logger.Warn("rest day source failed, proceeding without annotation", "error", err)
		} else {
			restSet = set
		}
	}

	var days []DailyAggregate
	var totalDuration time.Duration
	var weightedSum float64
	var workedDuration time.Duration

	for _, wd := range workdays {
		daily, err := a.Daily(wd.Date)
		if err != nil {
			return nil, err
		}
		days = append(days, DailyAggregate{
			Date:         wd.Date,
			NetDuration:  daily.NetDuration,
			Productivity: daily.Productivity,
		})
		totalDuration += daily.NetDuration
		workedDuration += daily.NetDuration
		weightedSum += daily.Productivity * daily.NetDuration.Hours()
		delete(restSet, wd.Date)
	}

	// Remaining flagged rest days had no recorded workday at all.
	for date := range restSet {
		days = append(days, DailyAggregate{Date: date, NetDuration: DefaultRestDayDuration, RestDay: true})
		totalDuration += DefaultRestDayDuration
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	monthly := &MonthlyReport{Year: year, Month: month, Days: days, TotalDuration: totalDuration}
	if workedDuration > 0 {
		monthly.Productivity = round1(weightedSum / workedDuration.Hours())
	}
	return monthly, nil
}

// BelowThreshold reports whether productivity falls below the
// configured minimum, gating `sum --send` unless forced.
func (a *Aggregator) BelowThreshold(productivity float64) bool {
	return productivity < a.cfg.Productivity.MinProductivityThreshold
}

// rawIntervals derives the complement of completed pauses inside
// [start, end]: the raw active spans before any display filtering.
func rawIntervals(start, end time.Time, pauses []db.Pause) []Interval {
	sort.Slice(pauses, func(i, j int) bool { return pauses[i].Start.Before(pauses[j].Start) })

	var intervals []Interval
	cursor := start
	for _, p := range pauses {
		if p.Start.After(cursor) {
			intervals = append(intervals, newInterval(cursor, p.Start))
		}
		if p.End != nil && p.End.After(cursor) {
			cursor = *p.End
		}
	}
	if end.After(cursor) {
		intervals = append(intervals, newInterval(cursor, end))
	}
	return intervals
}

func newInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end, Duration: end.Sub(start)}
}

// filterShort removes displayed intervals below minWorkInterval. Removal
// is display-only: callers never mutate persisted rows based on it.
func filterShort(raw []Interval, minWorkInterval time.Duration) (displayed []Interval, filteredCount int, filteredTotal time.Duration) {
	for _, iv := range raw {
		if iv.Duration < minWorkInterval {
			filteredCount++
			filteredTotal += iv.Duration
			continue
		}
		displayed = append(displayed, iv)
	}
	return displayed, filteredCount, filteredTotal
}

func productivity(net, gross time.Duration) float64 {
	if gross <= 0 {
		return 0
	}
	return round1(100 * net.Seconds() / gross.Seconds())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
