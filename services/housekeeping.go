package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"streamvault/database"
)

// Housekeeper runs periodic cleanup: expired reset tokens and stale cache
// entries.
type Housekeeper struct {
	cron   *cron.Cron
	store  *database.Store
	resets *PasswordResetService
}

func NewHousekeeper(store *database.Store, resets *PasswordResetService) *Housekeeper {
	return &Housekeeper{
		cron:   cron.New(),
		store:  store,
		resets: resets,
	}
}

// Start schedules the cleanup every hour on the hour.
func (h *Housekeeper) Start() error {
	slog.Info("Starting housekeeping scheduler")
	if _, err := h.cron.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		h.RunOnce(ctx)
	}); err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

// Stop halts the scheduler and returns a context that is done once a
// running job has finished.
func (h *Housekeeper) Stop() context.Context {
	return h.cron.Stop()
}

func (h *Housekeeper) RunOnce(ctx context.Context) {
	slog.Debug("Running scheduled housekeeping")

	if n, err := h.resets.PurgeExpired(ctx); err != nil {
		slog.Error("Error purging password reset tokens", "error", err)
	} else if n > 0 {
		slog.Info("Purged password reset tokens", "count", n)
	}

	if n := h.store.PurgeCache(); n > 0 {
		slog.Debug("Purged stale cache entries", "count", n)
	}
}
