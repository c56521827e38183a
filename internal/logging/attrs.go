package logging

import (
	"context"
	"log/slog"
	"time"
)

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func String(key, value string) slog.Attr { return slog.String(key, value) }

// Error renders err under the "error" key. A nil error still produces the
// key so warnings stay greppable.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with the component name, falling back to a
// no-op logger when nil.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// Defaults applied to library warnings that do not carry their own hint or
// impact. Most warnings come from bookkeeping that runs after the file
// already landed, so the default impact says so.
var warnDefaults = []slog.Attr{
	slog.String(FieldErrorHint, "check permissions and free space under the library folder"),
	slog.String(FieldImpact, "file was placed; follow-up bookkeeping was skipped"),
}

// WarnWithContext logs a warning tagged with eventType, filling in the
// error_hint and impact fields when the caller did not supply them.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	args := make([]any, 0, len(attrs)+len(warnDefaults)+1)
	seen := make(map[string]bool, len(attrs))
	for _, attr := range attrs {
		seen[attr.Key] = true
		args = append(args, attr)
	}
	if !seen[FieldEventType] {
		args = append(args, slog.String(FieldEventType, eventType))
	}
	for _, attr := range warnDefaults {
		if !seen[attr.Key] {
			args = append(args, attr)
		}
	}
	logger.Warn(msg, args...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
