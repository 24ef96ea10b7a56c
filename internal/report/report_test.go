// internal/report/report_test.go
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestAssertionError(t *testing.T) {
	err := &AssertionError{
		Subject:  "Orders table",
		Message:  "row count mismatch",
		Expected: 2,
		Actual:   3,
		URL:      "http://localhost/orders",
	}

	msg := err.Error()
	assert.Contains(t, msg, "Orders table")
	assert.Contains(t, msg, "expected 2, actual 3")
	assert.Contains(t, msg, "http://localhost/orders")

	wrapped := fmt.Errorf("step failed: %w", err)
	assert.ErrorIs(t, wrapped, ErrAssertion)
	var ae *AssertionError
	require.ErrorAs(t, wrapped, &ae)
	assert.Equal(t, 3, ae.Actual)
}

// recordingSink remembers calls in order.
type recordingSink struct {
	name  string
	calls *[]string
}

func (r recordingSink) Step(_ context.Context, title string) func(error) {
	*r.calls = append(*r.calls, r.name+" start "+title)
	return func(err error) { *r.calls = append(*r.calls, r.name+" end "+title) }
}

func (r recordingSink) Failure(_ context.Context, f *AssertionError) {
	*r.calls = append(*r.calls, r.name+" failure "+f.Subject)
}

func (r recordingSink) Attach(context.Context, Capture) error {
	return errors.New(r.name + " attach failed")
}

func TestMulti(t *testing.T) {
	var calls []string
	sink := Multi(recordingSink{"a", &calls}, recordingSink{"b", &calls})

	end := sink.Step(context.Background(), "Click")
	sink.Failure(context.Background(), &AssertionError{Subject: "button"})
	end(nil)

	assert.Equal(t, []string{
		"a start Click", "b start Click",
		"a failure button", "b failure button",
		"b end Click", "a end Click",
	}, calls)

	err := sink.Attach(context.Background(), Capture{Name: "x"})
	assert.ErrorContains(t, err, "a attach failed")
	assert.ErrorContains(t, err, "b attach failed")
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	sink := NewLogSink(zap.New(core))

	sink.Step(context.Background(), "Type into login")(errors.New("boom"))
	sink.Failure(context.Background(), &AssertionError{Subject: "login", Message: "text mismatch"})

	require.Equal(t, 1, logs.FilterMessage("Step failed.").Len())
	failure := logs.FilterMessage("Assertion failed.").All()
	require.Len(t, failure, 1)
	assert.Equal(t, "login", failure[0].ContextMap()["subject"])
}

func TestResultsSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	sink, err := NewResultsSink(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	sink.now = func() time.Time { return time.Unix(1700000000, 0) }

	ctx := context.Background()
	sink.Step(ctx, "Click Save")(nil)
	sink.Step(ctx, "Check title")(&AssertionError{Message: "title mismatch"})
	sink.Step(ctx, "Open page")(errors.New("connection refused"))
	require.NoError(t, sink.Attach(ctx, Capture{Name: `Logo "main"`, PNG: []byte{0x89, 'P', 'N', 'G'}}))
	require.NoError(t, sink.Attach(ctx, Capture{Name: `Logo "main"`, PNG: []byte{0x89, 'P', 'N', 'G'}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	statuses := map[string]string{}
	var pngs []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			pngs = append(pngs, e.Name())
			continue
		}
		require.True(t, strings.HasSuffix(e.Name(), "-result.json"))
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		var res StepResult
		require.NoError(t, json.Unmarshal(data, &res))
		statuses[res.Name] = res.Status
	}

	assert.Equal(t, StatusPassed, statuses["Click Save"])
	assert.Equal(t, StatusFailed, statuses["Check title"])
	assert.Equal(t, StatusBroken, statuses["Open page"])
	assert.Equal(t, StatusPassed, statuses[`Capture Logo "main"`])
	require.Len(t, pngs, 2, "same-second captures of one name do not overwrite each other")
	for _, name := range pngs {
		assert.Regexp(t, `^logo_main_1700000000_[0-9a-f]{8}\.png$`, name)
	}
	assert.NotEqual(t, pngs[0], pngs[1])
}

func TestCaptureFileName(t *testing.T) {
	at := time.Unix(42, 0)
	assert.Equal(t, "submit_button_42_a1b2.png", CaptureFileName("Submit Button", at, "a1b2"))
	assert.Equal(t, "rows_-_item_0_42_a1b2.png", CaptureFileName("Rows - item #0", at, "a1b2"))
	assert.Equal(t, "capture_42_ff.png", CaptureFileName("", at, "ff"))
}

func TestNopSink(t *testing.T) {
	sink := Nop()
	sink.Step(context.Background(), "anything")(errors.New("ignored"))
	sink.Failure(context.Background(), &AssertionError{})
	assert.NoError(t, sink.Attach(context.Background(), Capture{}))
}
