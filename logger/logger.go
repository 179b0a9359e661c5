// Package logger wraps zerolog behind the small printf-style interface the
// rest of the module logs through.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	// New returns a logger for a sub-service sharing the same output.
	New(service string) Logger
	SetLogLevel(level string)
	LogLevel() zerolog.Level
}

type Options struct {
	level  string
	writer io.Writer
	pretty bool
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		level:  "INFO",
		writer: os.Stdout,
		pretty: true,
	}
}

func WithLevel(level string) Option {
	return func(o *Options) {
		o.level = level
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}

// WithPretty switches between a console writer and JSON lines.
func WithPretty(pretty bool) Option {
	return func(o *Options) {
		o.pretty = pretty
	}
}

type ZLogger struct {
	zerolog.Logger
	service string
	opts    Options
}

func New(service string, options ...Option) *ZLogger {
	if service == "" {
		service = "scrooge"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	w := opts.writer
	if opts.pretty {
		cw := zerolog.ConsoleWriter{
			Out:        opts.writer,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}
		cw.FormatMessage = func(i interface{}) string {
			return fmt.Sprintf("| %-8s| %s", service, i)
		}
		w = cw
	}

	z := &ZLogger{
		Logger:  zerolog.New(w).With().Timestamp().Str("service", service).Logger(),
		service: service,
		opts:    *opts,
	}
	z.SetLogLevel(opts.level)

	return z
}

// NewNop discards everything.
func NewNop() *ZLogger {
	return &ZLogger{Logger: zerolog.Nop(), service: "nop"}
}

func (z *ZLogger) New(service string) Logger {
	if z.opts.writer == nil {
		return NewNop()
	}

	child := New(service,
		WithLevel(z.LogLevel().String()),
		WithWriter(z.opts.writer),
		WithPretty(z.opts.pretty),
	)
	return child
}

func (z *ZLogger) LogLevel() zerolog.Level {
	return z.Logger.GetLevel()
}

func (z *ZLogger) SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	z.Logger = z.Logger.Level(lvl)
}

func (z *ZLogger) Debugf(format string, args ...interface{}) {
	z.Logger.Debug().Msgf(format, args...)
}

func (z *ZLogger) Infof(format string, args ...interface{}) {
	z.Logger.Info().Msgf(format, args...)
}

func (z *ZLogger) Warnf(format string, args ...interface{}) {
	z.Logger.Warn().Msgf(format, args...)
}

func (z *ZLogger) Errorf(format string, args ...interface{}) {
	z.Logger.Error().Msgf(format, args...)
}
