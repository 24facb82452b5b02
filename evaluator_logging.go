package tagloader

import (
	"fmt"

	"go.uber.org/zap"
)

// LogEvent describes a resolution or injection step for logging.
type LogEvent struct {
	// Stage is "load" for the advisory line emitted before injection, or
	// "rule", "resolve", "inject" or "activity" for failures.
	Stage   string
	TagType string
	Variant ResolvedVariant
	Err     error
}

// Message renders the human-readable line for the event.
func (e LogEvent) Message() string {
	if e.Err != nil {
		return fmt.Sprintf("tagloader %s: %v", e.Stage, e.Err)
	}
	tagType := e.TagType
	if tagType == "" {
		tagType = "default"
	}
	return fmt.Sprintf("loading %s [tag-type=%s] from %s (first-party=%t)",
		e.Variant.Kind, tagType, e.Variant.ScriptDomain, e.Variant.FirstParty)
}

// Logger records loader events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// ZapLogger writes events to l: the advisory line at info, failures at warn.
func ZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return zapLogger{l: l}
}

type zapLogger struct {
	l *zap.Logger
}

func (z zapLogger) Log(event LogEvent) {
	fields := []zap.Field{
		zap.String("stage", event.Stage),
		zap.Stringer("loader", event.Variant.Kind),
		zap.String("script_domain", event.Variant.ScriptDomain),
		zap.Bool("first_party", event.Variant.FirstParty),
	}
	if event.Err != nil {
		z.l.Warn(event.Message(), append(fields, zap.Error(event.Err))...)
		return
	}
	z.l.Info(event.Message(), fields...)
}

// WithLogger attaches a logger. Passing nil silences logging. Without this
// option events go to zap's global logger.
func WithLogger(logger Logger) Option {
	return func(cfg *loaderConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
