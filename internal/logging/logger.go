// Package logging provides leveled, optionally colored console logging on
// top of zerolog, with an optional plain-text or JSON file sink.
//
// Console lines look like "2006-01-02 15:04:05 [INFO] message key=value".
// ERROR lines go to stderr; everything else goes to stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"

	"github.com/backmassage/pngtone/internal/config"
	"github.com/backmassage/pngtone/internal/term"
)

const timeFormat = "2006-01-02 15:04:05"

// successLevel is written into the level field of Success events. zerolog
// has no such level, so these events are logged without one and tagged.
const successLevel = "success"

// Logger provides leveled logging with optional file sink. Safe for
// concurrent use.
type Logger struct {
	zl   zerolog.Logger
	file io.Closer
}

// NewLogger configures terminal colors from cfg, writes console output to
// stdout and stderr, and optionally opens cfg.LogFile for appending. Call
// Close() when done if LogFile was set.
func NewLogger(cfg *config.Config, stdout, stderr io.Writer) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	return newLogger(cfg, stdout, stderr)
}

// Console wraps a terminal file so ANSI sequences render on Windows too.
func Console(f *os.File) io.Writer { return colorable.NewColorable(f) }

func newLogger(cfg *config.Config, stdout, stderr io.Writer) (*Logger, error) {
	color := term.Enabled()
	writers := []io.Writer{levelSplit{
		out: consoleWriter(stdout, color),
		err: consoleWriter(stderr, color),
	}}

	l := &Logger{}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		if cfg.LogJSON {
			writers = append(writers, zerolog.SyncWriter(f))
		} else {
			writers = append(writers, consoleWriter(zerolog.SyncWriter(f), false))
		}
	}

	l.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return l, nil
}

func consoleWriter(out io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     !color,
		TimeFormat:  timeFormat,
		FormatLevel: levelFormatter(color),
	}
}

// levelFormatter renders the level field as a bracketed, upper-case tag.
func levelFormatter(color bool) zerolog.Formatter {
	return func(i interface{}) string {
		lvl, _ := i.(string)
		tag := "[" + strings.ToUpper(lvl) + "]"
		if !color {
			return tag
		}
		var c string
		switch lvl {
		case zerolog.LevelInfoValue:
			c = term.Blue
		case successLevel:
			c = term.Green
		case zerolog.LevelWarnValue:
			c = term.Yellow
		case zerolog.LevelErrorValue:
			c = term.Red
		case zerolog.LevelDebugValue:
			c = term.Cyan
		}
		return c + tag + term.NC
	}
}

// levelSplit routes error-and-above events to err, everything else to out.
type levelSplit struct {
	out, err io.Writer
}

func (s levelSplit) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s levelSplit) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel {
		return s.err.Write(p)
	}
	return s.out.Write(p)
}

// With returns a child logger that adds key=value to every line.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Close closes the log file if one was opened. Children created by With
// share the parent's file and must not be used after Close.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Log().Str(zerolog.LevelFieldName, successLevel).Msg(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red) to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose; no-op otherwise.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}
