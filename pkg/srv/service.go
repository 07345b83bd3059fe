package srv

import (
	"context"
	"time"

	"github.com/sandevgo/teleai/pkg/log"
)

// StopTimeout bounds the whole shutdown sequence.
const StopTimeout = 10 * time.Second

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartServices runs every service in its own goroutine. A failed start
// is fatal.
func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

// ShutdownServices blocks until ctx is cancelled, then stops the services.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	StopServices(ctx, services)
}

// StopServices shuts services down in reverse start order. It keeps the
// logger of ctx but not its cancellation, so it works after a signal.
func StopServices(ctx context.Context, services []Service) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), StopTimeout)
	defer cancel()

	logger := log.FromCtx(ctx)
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(stopCtx); err != nil {
			logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
	}
}
