// Package log configures slog for the subtrack binaries. Every logger is
// tagged with the component it belongs to so worker and server output can be
// told apart when aggregated.
package log

import (
	"log/slog"
	"os"
)

// Logger is a component-tagged slog.Logger. The component attribute is baked
// into the handler chain once, so log calls pay no extra allocation.
type Logger struct {
	*slog.Logger
	component string
}

// Config controls handler, level and component tag. A nil Handler means a
// text handler on stdout at the configured level.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.Level,
		})
	}

	component := cfg.Component
	if component == "" {
		component = ComponentApp
	}

	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}
}

// With returns a Logger carrying additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a Logger tagged with a different component. The new
// tag is added alongside the original so the provenance stays visible.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// Component returns the component tag this logger was built with.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as the process-wide slog default so that
// packages logging through slog.Default inherit the component tag.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
