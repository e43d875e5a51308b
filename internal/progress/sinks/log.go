package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/WakiJi/wmscan/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. Probe events
// log at debug level to keep long runs readable; lifecycle milestones log at
// info.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("date", evt.Date),
			zap.String("url", evt.URL),
			zap.Int("status", evt.StatusCode),
			zap.String("status_class", string(evt.StatusClass)),
			zap.Bool("valid", evt.Valid),
			zap.Duration("dur", evt.Dur),
			zap.Int64("probes", evt.Probes),
			zap.Int64("hits", evt.Hits),
			zap.String("note", evt.Note),
		}
		if evt.Stage == progress.StageProbeDone {
			s.logger.Debug("progress event", fields...)
			continue
		}
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
