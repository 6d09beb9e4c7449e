// Package logger is the structured logging layer shared by the API, the
// importer and background jobs. It wraps zerolog with a map-of-fields API.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger.
type Logger struct {
	zlog zerolog.Logger
}

type options struct {
	out io.Writer
}

// Option customises New.
type Option func(*options)

// WithOutput sends log lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// New creates a Logger for env. Development gets colored console output at
// debug level; every other environment gets JSON lines at info level.
func New(env string, opts ...Option) *Logger {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	zerolog.TimeFieldFormat = time.RFC3339

	out := o.out
	level := zerolog.InfoLevel
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: o.out, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	return &Logger{
		zlog: zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// SetLevel overrides the environment's default level.
// An empty level keeps the current one.
func (l *Logger) SetLevel(level string) error {
	if level == "" {
		return nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.zlog = l.zlog.Level(parsed)
	return nil
}

// Level reports the active level name.
func (l *Logger) Level() string {
	return l.zlog.GetLevel().String()
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	emit(l.zlog.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	emit(l.zlog.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	emit(l.zlog.Warn(), msg, fields)
}

// Error logs msg with err attached under the "error" key.
func (l *Logger) Error(msg string, err error, fields map[string]interface{}) {
	emit(l.zlog.Error().Err(err), msg, fields)
}

// Fatal logs and exits the process with status 1.
func (l *Logger) Fatal(msg string, err error, fields map[string]interface{}) {
	emit(l.zlog.Fatal().Err(err), msg, fields)
}

// emit writes fields in key order so lines are stable across runs.
func emit(e *zerolog.Event, msg string, fields map[string]interface{}) {
	if !e.Enabled() {
		return
	}
	for _, k := range sortedKeys(fields) {
		e = e.Interface(k, fields[k])
	}
	e.Msg(msg)
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With creates a child logger carrying fields on every line.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for _, k := range sortedKeys(fields) {
		ctx = ctx.Interface(k, fields[k])
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithRequestID tags lines with the HTTP request id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("request_id", requestID).Logger()}
}

// WithUser tags lines with the caller's user id.
func (l *Logger) WithUser(userID string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("user_id", userID).Logger()}
}

// WithComponent tags lines with a subsystem name such as "scheduler".
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}
