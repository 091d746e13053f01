// Package facade exposes the CLI surface the core implements: watch,
// end, report, adjust, pauses, sum. Everything else (task/tag/template
// CRUD, export, self-update) is a thin wrapper over internal/db that
// does not go through this package.
package facade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasl-dev/kasl/internal/config"
	"github.com/kasl-dev/kasl/internal/daemon"
	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/kerrors"
	"github.com/kasl-dev/kasl/internal/report"
	"github.com/kasl-dev/kasl/internal/statemachine"
)

// Facade wires the daemon supervisor, store, and report aggregator
// behind the six core commands.
type Facade struct {
	Store      *db.Store
	Config     config.Config
	Logger     *slog.Logger
	Supervisor *daemon.Supervisor
	Aggregator *report.Aggregator
	RestDays   report.RestDaySource
	Sink       report.ReportSink
}

// New builds a Facade from its constituent parts, filling in a
// no-op logger if none is given.
func New(store *db.Store, cfg config.Config, logger *slog.Logger, supervisor *daemon.Supervisor, restDays report.RestDaySource, sink report.ReportSink) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		Store:      store,
		Config:     cfg,
		Logger:     logger,
		Supervisor: supervisor,
		Aggregator: report.NewAggregator(store, cfg, logger),
		RestDays:   restDays,
		Sink:       sink,
	}
}

// WatchOptions controls the `watch` command's three modes.
type WatchOptions struct {
	Foreground bool
	Stop       bool
}

// Watch starts the daemon (auto-restarting any running instance first),
// stops it, or runs the worker set in-process for debugging, per opts.
func (f *Facade) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Stop {
		return f.Supervisor.Stop()
	}
	if opts.Foreground {
		return daemon.RunForeground(ctx, f.Store, f.Config, f.Logger)
	}
	return f.Supervisor.StartWithAutoRestart()
}

// End finalizes today's workday immediately, as if the daemon had
// received a shutdown signal at this instant.
func (f *Facade) End() error {
	now := time.Now()
	machine, err := statemachine.New(f.Store, f.Config.Monitor, now, f.Logger)
	if err != nil {
		return err
	}
	if machine.State() == statemachine.Idle {
		return kerrors.ErrNoOpenWorkday
	}
	return machine.Finalize(now)
}

// ReportOptions selects daily or monthly reporting.
type ReportOptions struct {
	Last  bool
	Month bool
	Date  string // "2006-01-02"; defaults to today when empty and !Last
}

// ReportResult holds exactly one of Daily or Monthly, leaving rendering
// to the caller.
type ReportResult struct {
	Daily   *report.DailyReport
	Monthly *report.MonthlyReport
}

// Report produces a daily or monthly report per opts.
func (f *Facade) Report(ctx context.Context, opts ReportOptions) (*ReportResult, error) {
	if opts.Month {
		now := time.Now()
		monthly, err := f.Aggregator.Monthly(ctx, now.Year(), now.Month(), f.RestDays)
		if err != nil {
			return nil, err
		}
		return &ReportResult{Monthly: monthly}, nil
	}

	date := opts.Date
	if date == "" {
		target := time.Now()
		if opts.Last {
			target = target.AddDate(0, 0, -1)
		}
		date = target.Format("2006-01-02")
	}
	daily, err := f.Aggregator.Daily(date)
	if err != nil {
		return nil, err
	}
	return &ReportResult{Daily: daily}, nil
}

// AdjustOptions parametrizes a single trim/insert adjustment.
type AdjustOptions struct {
	Mode    string // "start", "end", or "pause"
	Minutes int
	Date    string // defaults to today when empty
	Force   bool
}

// Adjust applies a trim-start, trim-end, or insert-pause adjustment.
func (f *Facade) Adjust(opts AdjustOptions) error {
	date := opts.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	delta := time.Duration(opts.Minutes) * time.Minute

	switch opts.Mode {
	case "start":
		return f.Aggregator.TrimStart(date, delta)
	case "end":
		return f.Aggregator.TrimEnd(date, delta)
	case "pause":
		if !opts.Force {
			min := f.Config.Productivity.MinBreakDuration
			max := f.Config.Productivity.MaxBreakDuration
			if min > 0 && opts.Minutes < min {
				return fmt.Errorf("%w: pause shorter than min_break_duration (%dm)", kerrors.ErrInvariantViolation, min)
			}
			if max > 0 && opts.Minutes > max {
				return fmt.Errorf("%w: pause longer than max_break_duration (%dm)", kerrors.ErrInvariantViolation, max)
			}
		}
		return f.Aggregator.InsertPause(date, nil, delta)
	default:
		return fmt.Errorf("%w: unknown adjust mode %q", kerrors.ErrInvariantViolation, opts.Mode)
	}
}

// PausesOptions selects and filters the pause list for one date.
type PausesOptions struct {
	Date        string // defaults to today when empty
	MinDuration int    // minutes; defaults to monitor.min_pause_duration when zero
}

// Pauses lists the pauses recorded for a date, dropping completed pauses
// shorter than the minimum duration. An in-progress (open) pause is
// always included, since its eventual duration is not yet known.
func (f *Facade) Pauses(opts PausesOptions) ([]db.Pause, error) {
	date := opts.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	minDuration := opts.MinDuration
	if minDuration == 0 {
		minDuration = f.Config.Monitor.MinPauseDuration
	}
	minSeconds := int64(minDuration) * 60

	all, err := f.Store.ListPausesByDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStorageError, err)
	}

	var out []db.Pause
	for _, p := range all {
		if p.Duration != nil && *p.Duration < minSeconds {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// SumOptions controls the `sum` command's optional remote submission.
type SumOptions struct {
	Send  bool
	Force bool
}

// Sum computes the current month's aggregate and, if requested, submits
// it to the report sink. Submission is gated on the productivity
// threshold unless Force is set; a gated or failed submission never
// mutates persisted state.
func (f *Facade) Sum(ctx context.Context, opts SumOptions) (*report.MonthlyReport, error) {
	now := time.Now()
	monthly, err := f.Aggregator.Monthly(ctx, now.Year(), now.Month(), f.RestDays)
	if err != nil {
		return nil, err
	}
	if !opts.Send {
		return monthly, nil
	}
	if !opts.Force && f.Aggregator.BelowThreshold(monthly.Productivity) {
		return monthly, kerrors.ErrBelowThreshold
	}
	if f.Sink == nil {
		return monthly, fmt.Errorf("%w: no report sink configured", kerrors.ErrRemoteUnavailable)
	}
	if err := f.Sink.Send(ctx, monthly); err != nil {
		return monthly, err
	}
	return monthly, nil
}
