package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes structured events. Call sites pass a message tag shaped like
// "Component:Method:Step" followed by alternating key/value pairs.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing to out (stderr when nil). pretty switches to the console writer.
func New(level string, pretty bool, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	return &Logger{zl: zl}
}

// Nop discards everything; handy for tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string, kv ...any) { l.emit(l.zl.Debug(), msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.emit(l.zl.Info(), msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.emit(l.zl.Warn(), msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.emit(l.zl.Error(), msg, kv) }

// With returns a child logger that always carries the given pairs.
func (l *Logger) With(kv ...any) *Logger {
	ctx := l.zl.With()
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			ctx = ctx.Interface("extra", kv[i])
			break
		}
		ctx = ctx.Interface(keyOf(kv[i]), kv[i+1])
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) emit(event *zerolog.Event, msg string, kv []any) {
	if event == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		// A lone trailing value is common at call sites like logger.Error("X:Y", err).
		if i+1 >= len(kv) {
			if err, ok := kv[i].(error); ok {
				event = event.Err(err)
			} else {
				event = event.Interface("extra", kv[i])
			}
			break
		}
		key := keyOf(kv[i])
		if err, ok := kv[i+1].(error); ok {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, kv[i+1])
	}
	event.Msg(msg)
}

func keyOf(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

var std atomic.Pointer[Logger]

func init() {
	std.Store(New("info", false, os.Stderr))
}

// SetDefault replaces the process-wide logger used by the package-level helpers.
func SetDefault(l *Logger) {
	if l != nil {
		std.Store(l)
	}
}

func Default() *Logger {
	return std.Load()
}

// OrDefault returns l, or the process default when l is nil.
func OrDefault(l *Logger) *Logger {
	if l != nil {
		return l
	}
	return Default()
}

func Debug(msg string, kv ...any) { Default().Debug(msg, kv...) }
func Info(msg string, kv ...any)  { Default().Info(msg, kv...) }
func Warn(msg string, kv ...any)  { Default().Warn(msg, kv...) }
func Error(msg string, kv ...any) { Default().Error(msg, kv...) }
