// Package logging provides keyscope's structured logging over bolt.
//
// The CLI prints browsing results on stdout, so log output defaults to
// stderr and stays out of pipelines. Components attach typed fields
// (connection, pattern, cursor) through the LogEvent chain in fields.go.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

// Config configures the shared logger.
type Config struct {
	// Level is the minimum level emitted (trace, debug, info, warn,
	// error). Anything unrecognized falls back to info.
	Level string

	// Format selects the handler: "json" for machine-readable output,
	// anything else for the console handler.
	Format string

	// Output receives log lines. Defaults to stderr so key listings on
	// stdout stay pipeable.
	Output io.Writer
}

var (
	shared *bolt.Logger
	once   sync.Once
)

// Init builds the shared logger from the configuration. The first call
// wins; later calls are no-ops so every component sees one logger.
func Init(cfg Config) {
	once.Do(func() {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}

		var handler bolt.Handler
		if cfg.Format == "json" {
			handler = bolt.NewJSONHandler(out)
		} else {
			handler = bolt.NewConsoleHandler(out)
		}

		shared = bolt.New(handler).SetLevel(levelOf(cfg.Level))
	})
}

// Get returns the shared logger, initializing at info level if Init was
// never called.
func Get() *bolt.Logger {
	if shared == nil {
		Init(Config{})
	}
	return shared
}

func levelOf(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// LogEvent chains typed fields onto a bolt event.
type LogEvent struct {
	event *bolt.Event
}

// Add applies a field and returns the event for further chaining.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg emits the event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Trace starts a trace-level event on the shared logger.
func Trace() *LogEvent { return &LogEvent{event: Get().Trace()} }

// Debug starts a debug-level event on the shared logger.
func Debug() *LogEvent { return &LogEvent{event: Get().Debug()} }

// Info starts an info-level event on the shared logger.
func Info() *LogEvent { return &LogEvent{event: Get().Info()} }

// Warn starts a warn-level event on the shared logger.
func Warn() *LogEvent { return &LogEvent{event: Get().Warn()} }

// Error starts an error-level event on the shared logger.
func Error() *LogEvent { return &LogEvent{event: Get().Error()} }
