// Package logging is a thin leveled wrapper over fmt.Fprintf(os.Stderr, ...),
// the only logging idiom present anywhere in the retrieved corpus, so the
// render driver, the KD-tree builder, and the CLI share one sink and one
// verbosity flag instead of three ad hoc Fprintf call sites.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Level orders verbosity; a Logger only writes entries at or above its
// configured Level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled, timestamped lines to a single sink.
type Logger struct {
	out   io.Writer
	level Level
}

// New builds a Logger writing to os.Stderr at the given minimum level.
func New(level Level) *Logger {
	return &Logger{out: os.Stderr, level: level}
}

// Default is the process-wide logger the CLI, render driver, and KD-tree
// builder share, matching the original demo CLI's single-stream diagnostics.
var Default = New(LevelInfo)

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	fmt.Fprintf(l.out, "%s [%s] %s\n", time.Now().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }
