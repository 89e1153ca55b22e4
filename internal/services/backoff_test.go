package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/foxhole/internal/shared"
	"google.golang.org/api/googleapi"
)

func rateLimited() error {
	return &googleapi.Error{Code: http.StatusTooManyRequests, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}}
}

func quotaExceeded() error {
	return &googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}}}
}

type sleepRecorder struct {
	sleeps []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	return nil
}

func (s *sleepRecorder) total() time.Duration {
	var total time.Duration
	for _, d := range s.sleeps {
		total += d
	}
	return total
}

func newTestBackoff(maxRetries int, rec *sleepRecorder) *Backoff {
	return &Backoff{
		MaxRetries: maxRetries,
		Base:       10 * time.Second,
		Max:        5400 * time.Second,
		Sleep:      rec.Sleep,
		Logger:     shared.NewLogger(io.Discard),
	}
}

func TestBackoff(t *testing.T) {
	t.Run("Delay", func(t *testing.T) {
		b := newTestBackoff(8, &sleepRecorder{})
		tests := []struct {
			retry int
			want  time.Duration
		}{
			{1, 10 * time.Second},
			{2, 100 * time.Second},
			{3, 1000 * time.Second},
			{4, 5400 * time.Second},
			{8, 5400 * time.Second},
		}
		for _, tt := range tests {
			if got := b.Delay(tt.retry); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.retry, got, tt.want)
			}
		}
	})

	t.Run("succeeds after two rate limits", func(t *testing.T) {
		rec := &sleepRecorder{}
		b := newTestBackoff(8, rec)

		attempts := 0
		err := b.Do(context.Background(), "playlists.insert", func(context.Context) error {
			attempts++
			if attempts <= 2 {
				return rateLimited()
			}
			return nil
		})

		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
		if want := 10*time.Second + 100*time.Second; rec.total() != want {
			t.Errorf("expected total sleep %v, got %v", want, rec.total())
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		rec := &sleepRecorder{}
		b := newTestBackoff(2, rec)

		attempts := 0
		err := b.Do(context.Background(), "playlists.insert", func(context.Context) error {
			attempts++
			return rateLimited()
		})

		if !errors.Is(err, shared.ErrMaxRetriesExceeded) {
			t.Fatalf("expected ErrMaxRetriesExceeded, got %v", err)
		}
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Error("the last rate limit error should stay in the chain")
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
		if len(rec.sleeps) != 2 {
			t.Errorf("expected 2 sleeps, got %d", len(rec.sleeps))
		}
	})

	t.Run("quota is not retried", func(t *testing.T) {
		rec := &sleepRecorder{}
		b := newTestBackoff(8, rec)

		attempts := 0
		err := b.Do(context.Background(), "playlists.insert", func(context.Context) error {
			attempts++
			return quotaExceeded()
		})

		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Fatalf("expected ErrQuotaExhausted, got %v", err)
		}
		if attempts != 1 || len(rec.sleeps) != 0 {
			t.Errorf("expected a single attempt without sleeping, got %d attempts, %d sleeps", attempts, len(rec.sleeps))
		}
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		rec := &sleepRecorder{}
		b := newTestBackoff(8, rec)
		boom := errors.New("boom")

		err := b.Do(context.Background(), "op", func(context.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if len(rec.sleeps) != 0 {
			t.Error("should not sleep")
		}
	})

	t.Run("cancelled sleep stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		b := newTestBackoff(8, &sleepRecorder{})
		b.Sleep = Sleep

		err := b.Do(ctx, "op", func(context.Context) error { return rateLimited() })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
