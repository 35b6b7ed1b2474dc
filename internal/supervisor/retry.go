package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrRetriesExhausted a bounded policy ran out of attempts
var ErrRetriesExhausted = errors.New("retries exhausted")

// SleepFunc waits d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy fixed-delay retry. MaxAttempts 0 retries until ctx is cancelled.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       SleepFunc
}

// Sleep is the default SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs op until it succeeds, attempts run out or ctx is done
func (p RetryPolicy) Retry(ctx context.Context, logger *zap.Logger, name string, op func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; p.MaxAttempts <= 0 || attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("connected after retry", zap.String("target", name), zap.Int("attempt", attempt))
			}
			return nil
		}

		fields := []zap.Field{
			zap.String("target", name),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", p.Delay),
			zap.Error(lastErr),
		}
		if p.MaxAttempts > 0 {
			fields = append(fields, zap.Int("max_attempts", p.MaxAttempts))
		}
		logger.Warn("connection attempt failed", fields...)
		if p.MaxAttempts > 0 && attempt == p.MaxAttempts {
			break
		}

		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: %w after %d attempts: %w", name, ErrRetriesExhausted, p.MaxAttempts, lastErr)
}
