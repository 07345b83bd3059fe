package srv

import (
	"context"
	"sync"
)

// cleanupService runs a release function once on shutdown.
type cleanupService struct {
	once    sync.Once
	cleanup func() error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		if c.cleanup != nil {
			err = c.cleanup()
		}
	})
	return err
}

// NewCleanup wraps fn as a Service whose Shutdown calls fn at most once.
func NewCleanup(fn func() error) Service {
	return &cleanupService{cleanup: fn}
}
