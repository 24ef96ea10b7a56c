// internal/report/report.go
//
// Package report is the hand-off point between page objects and whatever
// records a test run. Page objects open a step per operation, describe every
// verification failure as an AssertionError, and pass captures along; the
// sinks decide how that is stored.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrAssertion is matched by every AssertionError via errors.Is.
var ErrAssertion = errors.New("assertion failed")

// AssertionError is the structured message attached to a failed verification.
type AssertionError struct {
	// Subject names the element or collection under test.
	Subject  string
	Message  string
	Expected interface{}
	Actual   interface{}
	URL      string
	// Diff is an optional human-readable difference between Expected and Actual.
	Diff string
	// Cause is the underlying wait or driver error, if any.
	Cause error
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Subject != "" {
		fmt.Fprintf(&b, " [%s]", e.Subject)
	}
	if e.Expected != nil || e.Actual != nil {
		fmt.Fprintf(&b, ": expected %v, actual %v", e.Expected, e.Actual)
	}
	if e.Diff != "" {
		fmt.Fprintf(&b, "\n%s", e.Diff)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " (url: %s)", e.URL)
	}
	return b.String()
}

func (e *AssertionError) Is(target error) bool { return target == ErrAssertion }
func (e *AssertionError) Unwrap() error        { return e.Cause }

// Capture is an image produced by an element; it only carries bytes.
type Capture struct {
	Name string
	PNG  []byte
}

// Sink receives steps, failures and captures.
type Sink interface {
	// Step marks the start of an operation. The returned func must be called
	// exactly once with the operation's outcome.
	Step(ctx context.Context, title string) func(err error)
	Failure(ctx context.Context, failure *AssertionError)
	Attach(ctx context.Context, capture Capture) error
}

// Nop returns a Sink that discards everything.
func Nop() Sink { return nopSink{} }

type nopSink struct{}

func (nopSink) Step(context.Context, string) func(error) { return func(error) {} }
func (nopSink) Failure(context.Context, *AssertionError) {}
func (nopSink) Attach(context.Context, Capture) error    { return nil }

// Multi fans every call out to sinks in order.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Step(ctx context.Context, title string) func(error) {
	ends := make([]func(error), 0, len(m))
	for _, s := range m {
		ends = append(ends, s.Step(ctx, title))
	}
	return func(err error) {
		// Close in reverse so nested sinks unwind like deferred calls.
		for i := len(ends) - 1; i >= 0; i-- {
			ends[i](err)
		}
	}
}

func (m multiSink) Failure(ctx context.Context, failure *AssertionError) {
	for _, s := range m {
		s.Failure(ctx, failure)
	}
}

func (m multiSink) Attach(ctx context.Context, capture Capture) error {
	var errs []error
	for _, s := range m {
		if err := s.Attach(ctx, capture); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isAssertion(err error) bool { return errors.Is(err, ErrAssertion) }
