package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger provides leveled, timestamped logging throughout the application.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	level  Level
	color  bool
}

// NewLogger creates a Logger writing info/warn/debug to stdout and errors to
// stderr, at info level.
func NewLogger() *Logger {
	return &Logger{out: os.Stdout, errOut: os.Stderr, level: LevelInfo, color: true}
}

// NewLoggerTo creates an uncoloured Logger writing every level to w.
func NewLoggerTo(w io.Writer, level Level) *Logger {
	return &Logger{out: w, errOut: w, level: level}
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) log(level Level, tag, color string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}
	w := l.out
	if level == LevelError {
		w = l.errOut
	}
	if l.color {
		tag = color + tag + "\033[0m"
	}
	fmt.Fprintf(w, "[%s] %s %s\n", l.timestamp(), tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, "INFO ", "\033[32m", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, "WARN ", "\033[33m", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, "ERROR", "\033[31m", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, "DEBUG", "\033[36m", format, args...)
}
