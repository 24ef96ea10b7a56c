// internal/report/results_sink.go
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Step statuses as written to result files.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
	StatusBroken = "broken"
)

// StepResult is one result file.
type StepResult struct {
	UUID          string         `json:"uuid"`
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	StatusDetails *StatusDetails `json:"statusDetails,omitempty"`
	Start         int64          `json:"start"`
	Stop          int64          `json:"stop"`
	Attachments   []Attachment   `json:"attachments,omitempty"`
}

// StatusDetails holds the failure message of a step.
type StatusDetails struct {
	Message string `json:"message"`
}

// Attachment references a capture file next to the results.
type Attachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// ResultsSink writes one JSON file per step into a results directory, in the
// layout report generators that read "<uuid>-result.json" expect. Captures
// are written as PNG files next to them.
type ResultsSink struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewResultsSink creates dir (expanding a leading "~") and returns a sink
// writing into it.
func NewResultsSink(dir string, logger *zap.Logger) (*ResultsSink, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand results dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results dir %q: %w", expanded, err)
	}
	return &ResultsSink{dir: expanded, logger: logger.Named("results"), now: time.Now}, nil
}

// Dir returns the expanded results directory.
func (s *ResultsSink) Dir() string { return s.dir }

func (s *ResultsSink) Step(_ context.Context, title string) func(error) {
	result := StepResult{
		UUID:  uuid.NewString(),
		Name:  title,
		Start: s.now().UnixMilli(),
	}
	return func(err error) {
		result.Stop = s.now().UnixMilli()
		result.Status = statusOf(err)
		if err != nil {
			result.StatusDetails = &StatusDetails{Message: err.Error()}
		}
		if werr := s.writeJSON(result.UUID+"-result.json", result); werr != nil {
			s.logger.Warn("Failed to write step result.", zap.String("step", title), zap.Error(werr))
		}
	}
}

// Failure is recorded through the failing step's status; the sink keeps no
// separate failure file.
func (s *ResultsSink) Failure(context.Context, *AssertionError) {}

func (s *ResultsSink) Attach(_ context.Context, capture Capture) error {
	name := CaptureFileName(capture.Name, s.now(), uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, capture.PNG, 0o644); err != nil {
		return fmt.Errorf("failed to write capture %q: %w", path, err)
	}
	attachment := StepResult{
		UUID:        uuid.NewString(),
		Name:        "Capture " + capture.Name,
		Status:      StatusPassed,
		Start:       s.now().UnixMilli(),
		Stop:        s.now().UnixMilli(),
		Attachments: []Attachment{{Name: capture.Name, Source: name, Type: "image/png"}},
	}
	return s.writeJSON(attachment.UUID+"-result.json", attachment)
}

func (s *ResultsSink) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// CaptureFileName derives "<name>_<unix>_<suffix>.png" from an element name:
// lowercased, spaces to underscores, quotes dropped. suffix keeps captures
// of the same name within one second apart.
func CaptureFileName(elementName string, at time.Time, suffix string) string {
	base := strings.ToLower(elementName)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.NewReplacer(`"`, "", "'", "", "/", "_", "#", "").Replace(base)
	if base == "" {
		base = "capture"
	}
	return fmt.Sprintf("%s_%d_%s.png", base, at.Unix(), suffix)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusPassed
	case isAssertion(err):
		return StatusFailed
	default:
		return StatusBroken
	}
}
