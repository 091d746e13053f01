package daemon

import (
	"context"
	"log/slog"

	"github.com/kasl-dev/kasl/internal/db"
	"github.com/robfig/cron/v3"
)

// Housekeeping runs low-priority maintenance on a cron schedule
// alongside the daemon's main worker set: it does not touch
// workday/pause bookkeeping, only store upkeep that is safe to run
// concurrently with the state machine's own transactions.
type Housekeeping struct {
	store  *db.Store
	logger *slog.Logger
	cron   *cron.Cron
}

// NewHousekeeping builds a Housekeeping runner over store.
func NewHousekeeping(store *db.Store, logger *slog.Logger) *Housekeeping {
	if logger == nil {
		logger = slog.Default()
	}
	return &Housekeeping{store: store, logger: logger, cron: cron.New()}
}

// Schedule registers the default maintenance jobs: a nightly integrity
// check and an hourly WAL checkpoint.
func (h *Housekeeping) Schedule() error {
	if _, err := h.cron.AddFunc("@daily", h.runIntegrityCheck); err != nil {
		return err
	}
	if _, err := h.cron.AddFunc("@hourly", h.runCheckpoint); err != nil {
		return err
	}
	return nil
}

// Worker adapts Housekeeping to the Coordinator's worker shape: it runs
// the cron scheduler until ctx is cancelled.
func (h *Housekeeping) Worker(ctx context.Context) error {
	h.cron.Start()
	<-ctx.Done()
	stopCtx := h.cron.Stop()
	<-stopCtx.Done()
	return nil
}

func (h *Housekeeping) runIntegrityCheck() {
	migrations, err := h.store.AppliedMigrations()
	if err != nil {
		h.logger.Error("housekeeping: integrity check failed", "error", err)
		return
	}
	h.logger.Info("housekeeping: integrity check ok", "migrations_applied", len(migrations))
}

func (h *Housekeeping) runCheckpoint() {
	if _, err := h.store.DB().Exec("PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		h.logger.Error("housekeeping: wal checkpoint failed", "error", err)
	}
}
