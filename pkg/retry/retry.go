package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type Operation = func() error

type Config struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
}

// NewFixedConfig makes exactly attempts calls spaced by delay.
func NewFixedConfig(attempts int, delay time.Duration) *Config {
	if attempts < 1 {
		attempts = 1
	}
	return &Config{
		MaxRetries:    attempts - 1,
		BackoffFactor: 1,
		InitialDelay:  delay,
		MaxDelay:      delay,
	}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retrier is safe for concurrent use.
type Retrier struct {
	config *Config
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{config: config}
}

// Do runs op until it succeeds, returns a Permanent error, the retries
// run out or ctx is done.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	delay := r.config.InitialDelay

	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= r.config.MaxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.withJitter(delay)):
		}

		delay = min(time.Duration(float64(delay)*r.config.BackoffFactor), r.config.MaxDelay)
	}
}

func (r *Retrier) withJitter(delay time.Duration) time.Duration {
	delay = min(delay, r.config.MaxDelay)
	if r.config.Jitter > 0 {
		delay += time.Duration(rand.Float64() * float64(r.config.Jitter))
	}
	return delay
}
