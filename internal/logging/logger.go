package logging

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type ContextLogger struct {
	*logrus.Logger
}

type Options struct {
	Name   string
	Level  string
	Format string
	Output io.Writer
}

var (
	initOnce sync.Once
	shared   *ContextLogger
)

// Init configures the process-wide logger. Only the first call has any effect;
// every call returns the same logger.
func Init(opts Options) *ContextLogger {
	initOnce.Do(func() {
		shared = NewLogger(opts)
	})
	return shared
}

// ForTests initialises the process-wide logger for test binaries. Output goes to
// stdout when TEST_LOG is set and is discarded otherwise.
func ForTests(name string) *ContextLogger {
	out := io.Discard
	if _, ok := os.LookupEnv("TEST_LOG"); ok {
		out = os.Stdout
	}
	return Init(Options{Name: name, Level: "debug", Output: out})
}

func NewLogger(opts Options) *ContextLogger {
	logger := logrus.New()
	if opts.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "15:04:05",
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if opts.Name != "" {
		logger.AddHook(serviceHook(opts.Name))
	}

	return &ContextLogger{Logger: logger}
}

// serviceHook stamps every entry with the service name.
type serviceHook string

func (h serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = string(h)
	}
	return nil
}

func (l *ContextLogger) WithTracing(ctx context.Context) *logrus.Entry {
	entry := l.WithContext(ctx)

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		entry = entry.WithFields(logrus.Fields{
			"trace_id": spanCtx.TraceID().String(),
			"span_id":  spanCtx.SpanID().String(),
		})
	}

	if rid, ok := RequestIDFromContext(ctx); ok {
		entry = entry.WithField("request_id", rid)
	}

	return entry
}

func (l *ContextLogger) InfoWithTracing(ctx context.Context, msg string, fields logrus.Fields) {
	entry := l.WithTracing(ctx)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Info(msg)
}

func (l *ContextLogger) ErrorWithTracing(ctx context.Context, msg string, err error, fields logrus.Fields) {
	entry := l.WithTracing(ctx)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (l *ContextLogger) WarnWithTracing(ctx context.Context, msg string, fields logrus.Fields) {
	entry := l.WithTracing(ctx)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Warn(msg)
}
