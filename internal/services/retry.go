package services

import (
	"context"
	"errors"
	"time"

	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

// RetryPolicy configures upstream calls.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	// BaseDelay is the wait before the second attempt. It doubles after every attempt.
	BaseDelay time.Duration
	// AttemptTimeout bounds every single call.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy returns the production defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       3,
		BaseDelay:      200 * time.Millisecond,
		AttemptTimeout: 5 * time.Second,
	}
}

// Do calls fn until it succeeds, the attempts run out, ctx is done or fn fails
// with a permanent *models.UpstreamError. It returns the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay

	var err error
	for i := 1; i <= attempts; i++ {
		err = p.attempt(ctx, fn)
		if err == nil {
			return nil
		}

		var upErr *models.UpstreamError
		if errors.As(err, &upErr) && upErr.Permanent() {
			logger.Log.Warnw("upstream refused the call, not retrying", "attempt", i, "status", upErr.StatusCode)
			return err
		}
		if i == attempts {
			break
		}

		logger.Log.Debugw("upstream call failed, retrying", "attempt", i, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return fn(actx)
}
