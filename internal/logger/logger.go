// Package logger provides leveled logging for heroku-auto-ssl.
//
// Log records go to stderr, separate from the user-facing output on stdout,
// so verbose debugging never interferes with normal CLI output or JSON.
// Records are written by a zap core; additional sinks (such as the hook log
// file) can be attached with AddFile and receive every record.
//
// # Log Levels
//
// Four log levels are supported, in order of severity:
//   - Debug: Detailed information for debugging
//   - Info: General operational information
//   - Warn: Warning conditions that don't prevent operation
//   - Error: Error conditions that affect operation
//
// # Initialization
//
//	logger.Init(verbose)  // verbose=true enables Debug level
//
// By default (verbose=false), only Warn and Error messages are shown on the
// console. File sinks always record Debug and above.
//
// # Usage
//
//	logger.Debug("Loading sites from %s", path)
//	logger.Info("Logged in as %s", user)
//	logger.Warn("Could not parse heroku version %q", out)
//	logger.Error("certs:update failed for %s: %v", app, err)
//
//	logger.InfoFields("handled", map[string]interface{}{
//	    "hook.name": "deploy_cert",
//	    "run.id":    runID,
//	})
//
// # Output Format
//
//	YYYY-MM-DD HH:MM:SS [LEVEL] message key=value ...
//	2026-02-03 10:30:45 [DEBUG] Loading sites from sites.json
//
// Field keys are sorted.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging severity level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
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

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// Logger fans records out to the console and any attached files.
type Logger struct {
	mu      sync.Mutex
	level   Level
	atom    zap.AtomicLevel
	console zapcore.WriteSyncer
	files   []*os.File
	z       *zap.Logger
}

// Global logger instance.
var std = newLogger(os.Stderr)

func newLogger(w io.Writer) *Logger {
	l := &Logger{
		level:   LevelWarn,
		atom:    zap.NewAtomicLevelAt(zapcore.WarnLevel),
		console: zapcore.Lock(zapcore.AddSync(w)),
	}
	l.rebuild()
	return l
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeLevel:      bracketLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// rebuild must be called with mu held (or before l is shared).
func (l *Logger) rebuild() {
	enc := zapcore.NewConsoleEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, l.console, l.atom)}
	for _, f := range l.files {
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.Lock(f), zapcore.DebugLevel))
	}
	l.z = zap.New(zapcore.NewTee(cores...))
}

func (l *Logger) current() *zap.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.z
}

// Init initializes the global logger with the specified verbosity.
// When verbose is true, Debug and Info levels are enabled.
// When verbose is false, only Warn and Error are shown.
func Init(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelWarn)
	}
}

// SetLevel sets the minimum console log level.
func SetLevel(level Level) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = level
	std.atom.SetLevel(level.zapLevel())
}

// GetLevel returns the current console log level.
func GetLevel() Level {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.level
}

// SetOutput sets the console destination. nil restores os.Stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	std.mu.Lock()
	defer std.mu.Unlock()
	std.console = zapcore.Lock(zapcore.AddSync(w))
	std.rebuild()
}

// AddFile appends every subsequent record, at any level, to the file at path.
func AddFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	std.mu.Lock()
	defer std.mu.Unlock()
	std.files = append(std.files, f)
	std.rebuild()
	return nil
}

// Close flushes and detaches all file sinks.
func Close() error {
	std.mu.Lock()
	defer std.mu.Unlock()
	_ = std.z.Sync()
	var firstErr error
	for _, f := range std.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	std.files = nil
	std.rebuild()
	return firstErr
}

// StdLogger returns a standard library logger writing Info records to the
// current sinks, for libraries that expect a *log.Logger.
func StdLogger() *log.Logger {
	l, err := zap.NewStdLogAt(std.current(), zapcore.InfoLevel)
	if err != nil {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return l
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	z := l.current()
	if !z.Core().Enabled(level.zapLevel()) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	z.Check(level.zapLevel(), msg).Write()
}

func (l *Logger) logFields(level Level, msg string, fields map[string]interface{}) {
	z := l.current()
	if !z.Core().Enabled(level.zapLevel()) {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, msg)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	z.Check(level.zapLevel(), strings.Join(parts, " ")).Write()
}

// Debug logs a debug message.
// Only shown on the console when verbose mode is enabled.
func Debug(format string, args ...interface{}) {
	std.log(LevelDebug, format, args...)
}

// Info logs an informational message.
// Only shown on the console when verbose mode is enabled.
func Info(format string, args ...interface{}) {
	std.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	std.log(LevelWarn, format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	std.log(LevelError, format, args...)
}

// DebugFields logs a debug message with structured fields.
func DebugFields(msg string, fields map[string]interface{}) {
	std.logFields(LevelDebug, msg, fields)
}

// InfoFields logs an informational message with structured fields.
func InfoFields(msg string, fields map[string]interface{}) {
	std.logFields(LevelInfo, msg, fields)
}

// WarnFields logs a warning message with structured fields.
func WarnFields(msg string, fields map[string]interface{}) {
	std.logFields(LevelWarn, msg, fields)
}

// ErrorFields logs an error message with structured fields.
func ErrorFields(msg string, fields map[string]interface{}) {
	std.logFields(LevelError, msg, fields)
}

// LogError logs an error with additional context message.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	std.log(LevelError, "%s: %v", msg, err)
}
