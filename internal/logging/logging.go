// Package logging provides a small leveled logger for the CLI and server.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Level represents logging verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = map[Level]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

var levelColors = map[Level]func(format string, a ...interface{}) string{
	LevelError: color.RedString,
	LevelWarn:  color.YellowString,
	LevelInfo:  color.CyanString,
	LevelDebug: color.MagentaString,
	LevelTrace: color.HiBlackString,
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a name such as "debug" to a Level. Unknown names yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	case "TRACE":
		return LevelTrace
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging.
type Logger struct {
	level Level
	out   *log.Logger
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// NewDefault creates a stderr logger. An empty level falls back to LOG_LEVEL.
func NewDefault(level string) *Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	return New(os.Stderr, ParseLevel(level))
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return New(io.Discard, LevelError) }

// Level returns the configured verbosity.
func (l *Logger) Level() Level { return l.level }

// SetLevel changes the verbosity.
func (l *Logger) SetLevel(level Level) { l.level = level }

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool { return l != nil && l.level >= level }

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	tag := levelColors[level]("[%s]", level)
	l.out.Printf(tag+" "+format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) { l.logf(LevelError, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Trace(format string, args ...interface{}) { l.logf(LevelTrace, format, args...) }
