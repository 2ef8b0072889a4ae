package observability

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
)

// NewLogger builds the process logger. Verbose mode enables debug level and
// full timestamps.
func NewLogger(out io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: verbose})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// LogSink forwards model-call telemetry events to the structured log.
type LogSink struct {
	log *logrus.Entry
}

func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log.WithField("component", "telemetry")}
}

func (s *LogSink) Record(ev llm.CallEvent) {
	fields := logrus.Fields{
		"backend":   ev.Backend,
		"model":     ev.Model,
		"latencyMs": ev.LatencyMs,
		"success":   ev.Success,
	}
	if ev.Meta.JobID != "" {
		fields["job"] = ev.Meta.JobID
	}
	if ev.Meta.Purpose != "" {
		fields["purpose"] = ev.Meta.Purpose
	}
	if ev.Meta.Combination != "" {
		fields["combination"] = ev.Meta.Combination
	}
	if ev.Usage.TotalTokens > 0 {
		fields["tokens"] = ev.Usage.TotalTokens
	}
	s.log.WithFields(fields).Debug("model call")
}
