package daemon

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/kasl-dev/kasl/internal/activity"
	"github.com/kasl-dev/kasl/internal/config"
	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/statemachine"
)

// RunForeground runs the daemon's worker set in-process until a
// termination signal arrives or a worker fails: one worker owns the
// blocking input hook, a second runs the sampler loop, a third consumes
// ticks through the state machine. On any exit path the state machine
// is driven through a final synthetic inactivity tick before the store
// is closed.
func RunForeground(parent context.Context, store *db.Store, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracker := activity.NewTracker(time.Now())
	hook := activity.NewPollHook(activity.NewInterruptIdleProvider(), cfg.PollIntervalDuration())
	sampler := activity.NewSampler(tracker, cfg.PollIntervalDuration())

	machine, err := statemachine.New(store, cfg.Monitor, time.Now(), logger)
	if err != nil {
		return err
	}

	ticks := make(chan activity.Tick, 1)
	coord := NewCoordinator(logger)

	coord.AddWorker("input-hook", func(context.Context) error {
		return activity.Listen(hook, tracker)
	})
	coord.AddWorker("hook-watchdog", func(ctx context.Context) error {
		<-ctx.Done()
		return hook.Close()
	})
	coord.AddWorker("sampler", func(ctx context.Context) error {
		sampler.Run(ctx, ticks)
		return nil
	})
	coord.AddWorker("state-machine", func(ctx context.Context) error {
		for {
			select {
			case tick, ok := <-ticks:
				if !ok {
					return nil
				}
				if err := machine.Process(tick); err != nil {
					return err
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	coord.AddCleanup("finalize-workday", func(context.Context) error {
		return machine.Finalize(time.Now())
	})

	housekeeping := NewHousekeeping(store, logger)
	if err := housekeeping.Schedule(); err != nil {
		return err
	}
	coord.AddWorker("housekeeping", housekeeping.Worker)

	return coord.Run(ctx)
}
