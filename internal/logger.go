package internal

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var logLevel = new(slog.LevelVar)

// SetLogLevel sets the minimum level of every logger.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// ParseLogLevel parses one of debug, info, warn or error.
// An empty string is the info level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Newf("unknown log level %q", s)
}

func newHandler() slog.Handler {
	var w io.Writer
	noColor := false

	if runtime.GOOS == "windows" {
		w = colorable.NewColorableStdout()
	} else {
		w = os.Stderr
		noColor = !isatty.IsTerminal(os.Stderr.Fd())
	}

	return tint.NewHandler(w, &tint.Options{
		Level:   logLevel,
		NoColor: noColor,
	})
}

// Logger is a structured logger bound to a component.
// Every record carries the kind and the name of the component.
type Logger struct {
	*slog.Logger

	kind string
	name string
}

// NewLogger returns a logger for the component with the given kind and name.
func NewLogger(kind, name string) *Logger {
	return &Logger{
		Logger: slog.New(newHandler()),

		kind: kind,
		name: name,
	}
}

func (l *Logger) getInfo() slog.Attr {
	return slog.Group("info", slog.String("kind", l.kind), slog.String("name", l.name))
}

func (l *Logger) getArgs(args ...any) []any {
	return append([]any{l.getInfo()}, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, l.getArgs(args...)...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, l.getArgs(args...)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, l.getArgs(args...)...)
}

func (l *Logger) Error(msg string, err error, args ...any) {
	tmpArgs := append([]any{tint.Err(err)}, args...)
	l.Logger.Error(msg, l.getArgs(tmpArgs...)...)
}
