// Package updater refreshes data sources on a fixed interval.
package updater

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
)

// Func refreshes one data source.
type Func func(ctx context.Context) error

// Updater runs a Func periodically
type Updater struct {
	name     string
	interval time.Duration
	update   Func
}

func New(name string, interval time.Duration, update Func) *Updater {
	return &Updater{
		name:     name,
		interval: interval,
		update:   update,
	}
}

// Update runs the refresh once.
func (u *Updater) Update(ctx context.Context) error {
	log := logging.WithContext(ctx).With(zap.String("updater", u.name))
	start := time.Now()

	if err := u.update(ctx); err != nil {
		log.Warn("Update failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return fmt.Errorf("update %s: %w", u.name, err)
	}

	log.Info("Updated", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Run calls Update every interval until ctx is done. Failures are
// logged and retried on the next tick. A non-positive interval disables
// the loop.
func (u *Updater) Run(ctx context.Context) error {
	if u.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			u.Update(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
