package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/shared"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Backoff retries calls that fail with [KindRateLimited].
//
// The n-th retry waits Base^n seconds, capped at Max.
// Once the retry count passes MaxRetries the call fails with [shared.ErrMaxRetriesExceeded].
// Quota exhaustion and every other failure are returned on the first occurrence.
type Backoff struct {
	MaxRetries int
	Base       time.Duration
	Max        time.Duration
	Sleep      SleepFunc
	Logger     *log.Logger
}

// NewBackoff builds a Backoff from retry settings using a real sleep.
func NewBackoff(cfg shared.RetryConfig, logger *log.Logger) *Backoff {
	return &Backoff{
		MaxRetries: cfg.MaxRetries,
		Base:       cfg.BaseSleep(),
		Max:        cfg.MaxSleep(),
		Sleep:      Sleep,
		Logger:     logger,
	}
}

// Delay returns the wait before the given retry (1-based).
func (b *Backoff) Delay(retry int) time.Duration {
	seconds := math.Pow(b.Base.Seconds(), float64(retry))
	if b.Max > 0 && seconds >= b.Max.Seconds() {
		return b.Max
	}
	return time.Duration(seconds * float64(time.Second))
}

// Do runs fn until it succeeds, fails with a non-retryable error, or exhausts its retries.
// Errors returned by fn are passed through [Classify].
func (b *Backoff) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	retries := 0
	for {
		err := Classify(fn(ctx))
		if err == nil {
			return nil
		}
		if KindOf(err) != KindRateLimited {
			return err
		}

		retries++
		if retries > b.MaxRetries {
			b.logger().Error("max retries exceeded", "op", op, "max_retries", b.MaxRetries)
			return fmt.Errorf("%w: %s: %w", shared.ErrMaxRetriesExceeded, op, err)
		}

		delay := b.Delay(retries)
		b.logger().Warn("rate limited, retrying", "op", op, "retry", retries, "sleep", delay)
		if err := b.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (b *Backoff) sleep(ctx context.Context, d time.Duration) error {
	if b.Sleep == nil {
		return Sleep(ctx, d)
	}
	return b.Sleep(ctx, d)
}

func (b *Backoff) logger() *log.Logger {
	if b.Logger == nil {
		return log.Default()
	}
	return b.Logger
}

// Sleep waits for d unless ctx is cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
