package memory

import (
	"context"
	"time"

	"github.com/sandevgo/teleai/pkg/log"
)

// Monitor health-checks a connected store periodically and marks it unavailable
// when the check fails. It never reconnects.
type Monitor struct {
	mgr      *Manager
	interval time.Duration
}

func NewMonitor(mgr *Manager, interval time.Duration) *Monitor {
	return &Monitor{mgr: mgr, interval: interval}
}

func (w *Monitor) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "store_monitor").Logger()
	if w.interval <= 0 {
		logger.Debug().Msg("store health monitor disabled")
		return nil
	}
	logger.Info().Dur("interval", w.interval).Msg("starting store health monitor")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down store health monitor")
			return nil
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Monitor) Shutdown(ctx context.Context) error {
	return nil
}

func (w *Monitor) check(ctx context.Context) {
	if w.mgr.State() != StateConnected {
		return
	}

	hctx, cancel := context.WithTimeout(ctx, w.mgr.timeout)
	defer cancel()
	if err := w.mgr.store.Health(hctx); err != nil {
		w.mgr.MarkUnavailable(ctx, err)
	}
}
