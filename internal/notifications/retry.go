package notifications

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/ngeni/portal/internal/domain/lead"
)

// ErrRejected marks a send the provider refused outright. Retrying it cannot help.
var ErrRejected = errors.New("notification rejected")

type RetryConfig struct {
	Attempts int           // total tries, including the first
	Base     time.Duration // delay before the second try, doubled after each failure
	Cap      time.Duration
}

// RetryingNotifier retries transient send failures with exponential backoff.
type RetryingNotifier struct {
	inner Notifier
	cfg   RetryConfig
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryingNotifier(inner Notifier, cfg RetryConfig) *RetryingNotifier {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Base <= 0 {
		cfg.Base = time.Second
	}
	if cfg.Cap <= 0 {
		cfg.Cap = 30 * time.Second
	}
	return &RetryingNotifier{inner: inner, cfg: cfg, sleep: sleepCtx}
}

func (n *RetryingNotifier) NotifyNewLead(ctx context.Context, l lead.Lead) error {
	var err error
	for attempt := 0; attempt < n.cfg.Attempts; attempt++ {
		if attempt > 0 {
			if serr := n.sleep(ctx, n.backoff(attempt-1)); serr != nil {
				return errors.Join(err, serr)
			}
		}

		err = n.inner.NotifyNewLead(ctx, l)
		if err == nil || errors.Is(err, ErrRejected) || errors.Is(err, ErrCircuitOpen) {
			return err
		}
	}
	return err
}

// backoff: attempt=0 => Base, attempt=1 => 2*Base, ... capped, plus up to 250ms jitter.
func (n *RetryingNotifier) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(n.cfg.Base) * math.Pow(2, float64(attempt)))
	if delay > n.cfg.Cap {
		delay = n.cfg.Cap
	}
	return delay + time.Duration(rand.Intn(250))*time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
