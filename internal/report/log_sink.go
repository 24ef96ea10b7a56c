// internal/report/log_sink.go
package report

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogSink writes steps and failures to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a Sink that logs through logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("report")}
}

func (s *LogSink) Step(_ context.Context, title string) func(error) {
	start := time.Now()
	s.logger.Debug("Step started.", zap.String("step", title))
	return func(err error) {
		fields := []zap.Field{zap.String("step", title), zap.Duration("elapsed", time.Since(start))}
		if err != nil {
			s.logger.Warn("Step failed.", append(fields, zap.Error(err))...)
			return
		}
		s.logger.Debug("Step passed.", fields...)
	}
}

func (s *LogSink) Failure(_ context.Context, failure *AssertionError) {
	s.logger.Error("Assertion failed.",
		zap.String("subject", failure.Subject),
		zap.String("message", failure.Message),
		zap.Any("expected", failure.Expected),
		zap.Any("actual", failure.Actual),
		zap.String("url", failure.URL),
	)
}

func (s *LogSink) Attach(_ context.Context, capture Capture) error {
	s.logger.Info("Capture produced.", zap.String("name", capture.Name), zap.Int("bytes", len(capture.PNG)))
	return nil
}
