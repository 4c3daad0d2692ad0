// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// currentLevel holds the current global log level atomically.
var currentLevel atomic.Uint32

// logger writes date, time with microseconds to stderr unless redirected.
var logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// SetOutput redirects every logger, including component loggers. The terminal
// preview uses it to keep log lines off the alternate screen.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func shouldLog(level LogLevel) bool {
	return level >= GetLevel()
}

func output(level LogLevel, prefix, msg string) {
	if !shouldLog(level) {
		return
	}
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	if level == LevelFatal {
		logger.Fatalf("[%s] %s", level, msg)
	}
	logger.Printf("[%s] %s", level, msg)
}

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) { output(LevelDebug, "", fmt.Sprintf(format, v...)) }

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) { output(LevelInfo, "", fmt.Sprintf(format, v...)) }

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) { output(LevelWarn, "", fmt.Sprintf(format, v...)) }

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) { output(LevelError, "", fmt.Sprintf(format, v...)) }

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) { output(LevelFatal, "", fmt.Sprintf(format, v...)) }

// Logger tags every message with the name of the component that produced
// it, e.g. "capture: audio buffer has overflowed 3 times".
type Logger struct {
	component string
}

// For returns a Logger for the named component.
func For(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Debugf(format string, v ...any) {
	output(LevelDebug, l.component, fmt.Sprintf(format, v...))
}

func (l *Logger) Infof(format string, v ...any) {
	output(LevelInfo, l.component, fmt.Sprintf(format, v...))
}

func (l *Logger) Warnf(format string, v ...any) {
	output(LevelWarn, l.component, fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(format string, v ...any) {
	output(LevelError, l.component, fmt.Sprintf(format, v...))
}
