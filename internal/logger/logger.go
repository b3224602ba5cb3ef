// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// Log levels
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the level name
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a level name such as "debug" or "WARN" to a LogLevel
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", name)
}

// sink is a writer that receives messages at or above min
type sink struct {
	min    LogLevel
	writer io.Writer
}

// core is shared between a logger and its named children
type core struct {
	mu         sync.Mutex
	level      LogLevel
	sinks      []sink
	closers    []io.Closer
	showFile   bool
	timeFormat string
}

// Logger represents a logger instance
type Logger struct {
	core *core
	name string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the default logger instance. It writes WARN and above to
// stderr until reconfigured.
func GetLogger() *Logger {
	once.Do(func() {
		defaultLogger = NewLogger(INFO)
		defaultLogger.AddOutput(WARN, os.Stderr)
	})
	return defaultLogger
}

// NewLogger creates a new logger instance with the specified minimum log level
func NewLogger(level LogLevel) *Logger {
	return &Logger{
		core: &core{
			level:      level,
			timeFormat: "2006-01-02 15:04:05",
			showFile:   true,
		},
	}
}

// Named returns a child logger that prefixes messages with name and shares
// outputs and level with its parent
func (l *Logger) Named(name string) *Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return &Logger{core: l.core, name: name}
}

// SetLevel changes the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// SetTimeFormat sets the time format string used in log messages
func (l *Logger) SetTimeFormat(format string) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.timeFormat = format
}

// SetShowFile enables or disables showing file and line information in logs
func (l *Logger) SetShowFile(show bool) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.showFile = show
}

// AddOutput adds a writer that receives messages at min level and above
func (l *Logger) AddOutput(min LogLevel, w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.sinks = append(l.core.sinks, sink{min: min, writer: w})
}

// ResetOutputs drops every configured writer and closes files opened by
// AddFileOutput
func (l *Logger) ResetOutputs() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	var firstErr error
	for _, c := range l.core.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.core.sinks = nil
	l.core.closers = nil
	return firstErr
}

// AddFileOutput appends messages at min level and above to filename
func (l *Logger) AddFileOutput(min LogLevel, filename string) error {
	// Ensure directory exists
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.AddOutput(min, file)
	l.core.mu.Lock()
	l.core.closers = append(l.core.closers, file)
	l.core.mu.Unlock()
	return nil
}

// getCallerInfo returns the file and line number of the caller
func getCallerInfo() string {
	_, file, line, ok := runtime.Caller(4) // Skip getCallerInfo, formatMessage, log, and the level method
	if !ok {
		return "???:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// formatMessage formats a log message with timestamp, level, name and caller info
func (l *Logger) formatMessage(level LogLevel, msg string) string {
	var b strings.Builder
	b.WriteString(time.Now().Format(l.core.timeFormat))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("]")
	if l.core.showFile {
		b.WriteString(" ")
		b.WriteString(getCallerInfo())
	}
	if l.name != "" {
		b.WriteString(" ")
		b.WriteString(l.name)
	}
	b.WriteString(" - ")
	b.WriteString(msg)
	return b.String()
}

// log writes a message to every sink accepting the given level
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if level < l.core.level {
		return
	}

	var msg string
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	} else {
		msg = format
	}

	formattedMsg := l.formatMessage(level, msg)
	for _, s := range l.core.sinks {
		if level >= s.min {
			fmt.Fprintln(s.writer, formattedMsg)
		}
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Discard returns a logger with no outputs
func Discard() *Logger {
	return NewLogger(ERROR + 1)
}
