package utils

import (
	"fmt"
	"log"
	"os"
	"sort"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is a leveled logger with optional key=value fields.
type Logger struct {
	*log.Logger
	level  LogLevel
	fields map[string]interface{}
}

// NewLogger creates a logger writing to stdout at the given level.
func NewLogger(level LogLevel) *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", 0),
		level:  level,
	}
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// WithField returns a copy of the logger that appends key=value to every line.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{Logger: l.Logger, level: l.level, fields: fields}
}

func (l *Logger) logf(level LogLevel, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, v...)
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg += fmt.Sprintf(" %s=%v", k, l.fields[k])
		}
	}
	l.Printf("[%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05"), level, msg)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) { l.logf(DEBUG, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) { l.logf(INFO, format, v...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) { l.logf(WARN, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) { l.logf(ERROR, format, v...) }

// Global logger instance
var Log = NewLogger(INFO)
