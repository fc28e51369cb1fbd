package remote

import (
	"context"
	"time"
)

// MaxBackoff caps the delay between reconnect attempts.
const MaxBackoff = 30 * time.Second

// Backoff doubles base for every consecutive failure, capped at MaxBackoff.
func Backoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= MaxBackoff {
			return MaxBackoff
		}
	}
	return delay
}

// Reconnect runs attempt until ctx is done. Each failed attempt is reported to
// onError, and every return is followed by a Backoff delay. attempt calls reset once it is
// connected so the next failure starts again from base.
func Reconnect(ctx context.Context, base time.Duration, attempt func(ctx context.Context, reset func()) error, onError func(error)) error {
	failures := 0
	reset := func() { failures = 0 }
	for {
		err := attempt(ctx, reset)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && onError != nil {
			onError(err)
		}
		timer := time.NewTimer(Backoff(failures, base))
		failures++
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
