package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/sirupsen/logrus"
)

// AlertFetcher retrieves the current police alerts for the configured
// bounding box.
type AlertFetcher interface {
	FetchPoliceAlerts(ctx context.Context) ([]models.Alert, error)
}

// AlertStore persists the full alert batch between poll cycles.
type AlertStore interface {
	Load(ctx context.Context) ([]models.Alert, error)
	Save(ctx context.Context, alerts []models.Alert) error
}

// ImageResolver fetches or reuses the local map snapshot of an alert.
type ImageResolver interface {
	Resolve(ctx context.Context, alert models.Alert) (string, error)
	Remove(path string) error
}

// Notifier delivers one formatted alert with its snapshot attached.
type Notifier interface {
	Notify(ctx context.Context, alert models.Alert) error
}

// Watcher orchestrates the poll cycle: fetch, dedup, snapshot, notify,
// persist. One cycle runs at a time; all I/O inside a cycle is sequential.
type Watcher struct {
	fetcher  AlertFetcher
	store    AlertStore
	images   ImageResolver
	notifier Notifier
	logger   *logrus.Logger
	interval time.Duration

	// now is stubbed in tests.
	now func() time.Time
}

// NewWatcher creates a watcher polling on the given fixed interval.
func NewWatcher(fetcher AlertFetcher, store AlertStore, images ImageResolver, notifier Notifier, logger *logrus.Logger, interval time.Duration) *Watcher {
	return &Watcher{
		fetcher:  fetcher,
		store:    store,
		images:   images,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// RunCycle executes one complete fetch-filter-notify-persist iteration and
// reports its outcome. The continue/stop policy on failure belongs to the
// caller.
func (w *Watcher) RunCycle(ctx context.Context) error {
	log := w.logger.WithFields(logrus.Fields{
		"service":  "watcher",
		"method":   "RunCycle",
		"cycle_id": uuid.New().String(),
	})
	log.Info("Starting poll cycle")

	batch, err := w.fetcher.FetchPoliceAlerts(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to fetch alerts: %w", err)
	}

	prior, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to load prior batch: %w", err)
	}

	fresh := Dedup(w.now(), batch, prior)
	if len(fresh) == 0 {
		// The previous batch stays in place on a quiet cycle, so the
		// suppression window is bounded by the last batch that carried
		// new alerts.
		log.WithField("batch_size", len(batch)).Info("No new alerts found")
		return nil
	}

	log.WithFields(logrus.Fields{
		"batch_size": len(batch),
		"prior_size": len(prior),
		"new_alerts": len(fresh),
	}).Info("New alerts detected")

	for _, alert := range fresh {
		path, err := w.images.Resolve(ctx, alert)
		if err != nil {
			return fmt.Errorf("service: failed to resolve snapshot for alert %s: %w", alert.ID, err)
		}
		alert.Image = path

		if err := w.notifier.Notify(ctx, alert); err != nil {
			return fmt.Errorf("service: failed to notify alert %s: %w", alert.ID, err)
		}

		if err := w.images.Remove(path); err != nil {
			log.WithError(err).WithField("alert_id", alert.ID).Warn("Failed to remove delivered snapshot")
		}
		alert.Image = ""
	}

	if err := w.store.Save(ctx, batch); err != nil {
		return fmt.Errorf("service: failed to persist batch: %w", err)
	}

	log.Info("Poll cycle completed")
	return nil
}

// Run executes poll cycles on a fixed delay until the context is
// cancelled. A failed cycle is logged and the next tick proceeds; cycles
// never overlap because each one is run to completion before the delay
// starts.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.WithField("interval", w.interval.String()).Info("Starting alert watcher")

	for {
		if err := w.RunCycle(ctx); err != nil {
			w.logger.WithError(err).Error("Poll cycle failed")
		}

		select {
		case <-ctx.Done():
			w.logger.Info("Stopping alert watcher")
			return
		case <-time.After(w.interval):
		}
	}
}
