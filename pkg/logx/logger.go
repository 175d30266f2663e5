package logx

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02 15:04:05.000"

func init() {
	zerolog.ErrorFieldName = "err"
}

// Logger is a value type; the zero value discards everything. A Logger
// obtained from a Service follows that Service's current level and sinks.
type Logger struct {
	src    source
	fields []Field
}

type source interface {
	current() *zerolog.Logger
}

type fixed struct{ zl zerolog.Logger }

func (f fixed) current() *zerolog.Logger { return &f.zl }

func Nop() Logger { return Logger{src: fixed{zl: zerolog.Nop()}} }

// NewConsole is a standalone console logger for CLI subcommands.
func NewConsole(level string) Logger {
	return Logger{src: fixed{zl: build(consoleWriter(os.Stderr), levelOr(level, LevelInfo))}}
}

// New writes JSON lines to w.
func New(w io.Writer, level string) Logger {
	return Logger{src: fixed{zl: build(w, levelOr(level, LevelInfo))}}
}

func build(w io.Writer, lvl Level) zerolog.Logger {
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func (l Logger) IsZero() bool { return l.src == nil && len(l.fields) == 0 }

func (l Logger) zl() *zerolog.Logger {
	if l.src == nil {
		return nil
	}
	return l.src.current()
}

// Enabled reports whether level would be written.
func (l Logger) Enabled(level Level) bool {
	zl := l.zl()
	return zl != nil && level >= zl.GetLevel()
}

// With returns a logger that adds fields to every event.
func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	out := l
	out.fields = make([]Field, 0, len(l.fields)+len(fields))
	out.fields = append(append(out.fields, l.fields...), fields...)
	return out
}

func (l Logger) Trace(msg string, fields ...Field) { l.write(LevelTrace, msg, fields) }
func (l Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l Logger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l Logger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }
func (l Logger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

func (l Logger) write(level Level, msg string, fields []Field) {
	zl := l.zl()
	if zl == nil {
		return
	}
	e := zl.WithLevel(level)
	if e == nil {
		return
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.Str(zerolog.CallerFieldName, filepath.Base(file)+":"+strconv.Itoa(line))
	}
	for _, set := range [][]Field{l.fields, fields} {
		for _, f := range set {
			if f != nil {
				f(e)
			}
		}
	}
	e.Msg(msg)
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:          w,
		TimeFormat:   consoleTimeFormat,
		FormatCaller: func(i any) string { s, _ := i.(string); return s },
	}
}
