// Package retry implements the time-budgeted, interval-paced polling loop
// every action in this module is wrapped in (spec §4.3): invoke a fallible
// thunk once immediately, and if it fails, keep retrying on a fixed
// interval until a deadline elapses.
package retry

import (
	"context"
	"time"

	"github.com/appthrust/kest/pkg/duration"
	"github.com/appthrust/kest/pkg/event"
	"github.com/appthrust/kest/pkg/kesterr"
	"github.com/appthrust/kest/pkg/logging"
)

const (
	// DefaultTimeout is the retry budget used when a caller does not
	// specify one.
	DefaultTimeout = 5 * time.Second
	// DefaultInterval is the pause between attempts used when a caller
	// does not specify one.
	DefaultInterval = 200 * time.Millisecond
)

// Config is the per-call retry budget (spec §4.3: "{timeout = 5s,
// interval = 200ms, recorder?}").
type Config struct {
	Timeout  time.Duration
	Interval time.Duration
	Recorder *event.Recorder
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout, Interval: DefaultInterval}
}

// Thunk is the fallible operation being retried.
type Thunk[T any] func(ctx context.Context) (T, error)

// Until runs thunk under cfg's time budget, following spec §4.3's algorithm
// exactly: one unconditional first call with no retry events recorded, and
// then — only once that call has failed — a RetryStart/RetryAttempt...
// RetryEnd bracket on the recorder, if one is set.
func Until[T any](ctx context.Context, cfg Config, thunk Thunk[T]) (T, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	now := time.Now()
	deadline := now.Add(cfg.Timeout)

	value, err := thunk(ctx)
	if err == nil {
		return value, nil
	}

	if cfg.Timeout <= 0 {
		// Boundary behavior (spec §8): timeout = 0 performs exactly one
		// invocation and records no retry events.
		return value, err
	}

	lastErr := err
	lastValue := value

	if cfg.Recorder != nil {
		cfg.Recorder.Record(event.KindRetryStart, event.RetryStart{})
	}
	logging.Debug("Retry", "first attempt failed, entering retry loop: %v", err)

	attempt := 0
retryLoop:
	for time.Now().Before(deadline) {
		remaining := deadline.Sub(time.Now())
		sleep := cfg.Interval
		if remaining < sleep {
			sleep = remaining
		}
		if sleep <= 0 {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retryLoop
		case <-time.After(sleep):
		}
		if !time.Now().Before(deadline) {
			break
		}

		attempt++
		if cfg.Recorder != nil {
			cfg.Recorder.Record(event.KindRetryAttempt, event.RetryAttempt{Attempt: attempt})
		}

		lastValue, lastErr = thunk(ctx)
		if lastErr == nil {
			if cfg.Recorder != nil {
				cfg.Recorder.Record(event.KindRetryEnd, event.RetryEnd{
					Attempts: attempt,
					Success:  true,
					Reason:   event.RetryReasonSuccess,
				})
			}
			return lastValue, nil
		}
	}

	finalErr := &kesterr.Timeout{After: duration.FromTimeDuration(cfg.Timeout).String(), Cause: lastErr}

	if cfg.Recorder != nil {
		cfg.Recorder.Record(event.KindRetryEnd, event.RetryEnd{
			Attempts: attempt,
			Success:  false,
			Reason:   event.RetryReasonTimeout,
			Error:    kesterr.Summarize(finalErr),
		})
	}

	return lastValue, finalErr
}
