// internal/wait/wait.go
//
// Package wait provides the two synchronization primitives every blocking
// page-object operation is built on: scoped implicit-wait overrides and
// explicit polling of a predicate until it holds or a deadline passes.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/xkilldash9x/testlab/internal/driver"
)

var (
	// ErrTimedOut is returned when a predicate never held before the deadline.
	ErrTimedOut = errors.New("timed out waiting for condition")
	// ErrStaleOrMissing is returned when the polled target vanished mid-wait.
	ErrStaleOrMissing = errors.New("target became stale or missing while waiting")
)

// DefaultInterval is the polling cadence used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// ImplicitWaiter is the slice of a session the scoped override needs.
type ImplicitWaiter interface {
	ImplicitWait() time.Duration
	SetImplicitWait(d time.Duration)
}

// WithImplicitWait sets w's implicit wait to d for the duration of fn and
// restores the value observed immediately before on every exit path,
// including a panic inside fn.
func WithImplicitWait(w ImplicitWaiter, d time.Duration, fn func() error) error {
	previous := w.ImplicitWait()
	w.SetImplicitWait(d)
	defer w.SetImplicitWait(previous)
	return fn()
}

// NoWait runs fn with a zero implicit wait. Presence and absence probes use
// it so a negative lookup returns immediately instead of stalling.
func NoWait(w ImplicitWaiter, fn func() error) error {
	return WithImplicitWait(w, 0, fn)
}

// Predicate evaluates the current state. ok=false means "not yet". A non-nil
// error ends the wait unless it is retryable.
type Predicate[T any] func(ctx context.Context) (value T, ok bool, err error)

// TimeoutError carries the deadline and the last error observed while polling.
type TimeoutError struct {
	Timeout time.Duration
	Last    error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%v after %v (last error: %v)", ErrTimedOut, e.Timeout, e.Last)
	}
	return fmt.Sprintf("%v after %v", ErrTimedOut, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimedOut }

// Until polls pred at a fixed interval until it reports ok, the timeout
// elapses, or the target goes stale. The predicate is always evaluated at
// least once, so a zero timeout is a single check.
//
// Outcomes are distinguishable with errors.Is: ErrTimedOut when the deadline
// passed, ErrStaleOrMissing when pred returned driver.ErrStaleElement or
// driver.ErrNoSuchElement. Any other predicate error is returned wrapped.
func Until[T any](ctx context.Context, timeout, interval time.Duration, pred Predicate[T]) (T, error) {
	var zero T
	if interval <= 0 {
		interval = DefaultInterval
	}

	deadline := time.Now().Add(timeout)
	// Burst 1: the first evaluation runs immediately, later ones on the cadence.
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			// Wait fails early when the next token lands after the ctx deadline.
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, &TimeoutError{Timeout: timeout}
		}

		value, ok, err := pred(ctx)
		switch {
		case err != nil && driver.IsStaleOrMissing(err):
			return zero, fmt.Errorf("%w: %w", ErrStaleOrMissing, err)
		case err != nil:
			return zero, fmt.Errorf("wait predicate failed: %w", err)
		case ok:
			return value, nil
		}

		if !time.Now().Add(interval).Before(deadline) {
			// Not enough time left for another poll.
			if remaining := time.Until(deadline); remaining > 0 {
				if err := sleep(ctx, remaining); err != nil {
					return zero, err
				}
				if value, ok, err := pred(ctx); err == nil && ok {
					return value, nil
				}
			}
			return zero, &TimeoutError{Timeout: timeout}
		}
	}
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session is what a Controller drives: a search root that also owns the
// implicit wait.
type Session interface {
	ImplicitWaiter
	driver.SearchContext
}

// Controller binds a session to its default timeout and polling cadence.
type Controller struct {
	session  Session
	timeout  time.Duration
	interval time.Duration
}

// NewController returns a Controller that polls session every interval and
// gives up after timeout unless a call overrides it.
func NewController(session Session, timeout, interval time.Duration) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{session: session, timeout: timeout, interval: interval}
}

func (c *Controller) Timeout() time.Duration  { return c.timeout }
func (c *Controller) Interval() time.Duration { return c.interval }
func (c *Controller) Session() Session        { return c.session }

// NoWait runs fn with the session's implicit wait at zero.
func (c *Controller) NoWait(fn func() error) error {
	return NoWait(c.session, fn)
}

// For polls pred with the controller's cadence. A non-positive timeout
// falls back to the controller default.
func For[T any](ctx context.Context, c *Controller, timeout time.Duration, pred Predicate[T]) (T, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	return Until(ctx, timeout, c.interval, pred)
}
