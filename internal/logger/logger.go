// Package logger provides the leveled logger used across dopd. A Logger can
// be constructed with any io.Writer sink, so components that log remain
// testable without a real log destination. The package-level functions use a
// shared default logger writing text to stdout.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

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

// ParseLevel maps a level name to a Level. Unknown names map to LevelInfo.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Line encodings.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type Logger struct {
	mu     sync.Mutex
	level  Level
	format string
	out    io.Writer
}

// New creates a logger writing to out. An empty format selects text.
func New(level Level, format string, out io.Writer) *Logger {
	if format == "" {
		format = FormatText
	}
	return &Logger{level: level, format: format, out: out}
}

// SetLevel changes the minimum level emitted.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, v...)

	switch l.format {
	case FormatJSON:
		line, err := json.Marshal(map[string]string{
			"ts":    timestamp,
			"level": level.String(),
			"msg":   message,
		})
		if err != nil {
			return
		}
		fmt.Fprintln(l.out, string(line))
	default:
		fmt.Fprintf(l.out, "[%s] [%s] %s\n", timestamp, level.String(), message)
	}
}

func (l *Logger) Debug(format string, v ...any) { l.log(LevelDebug, format, v...) }
func (l *Logger) Info(format string, v ...any)  { l.log(LevelInfo, format, v...) }
func (l *Logger) Warn(format string, v ...any)  { l.log(LevelWarn, format, v...) }
func (l *Logger) Error(format string, v ...any) { l.log(LevelError, format, v...) }

var defaultLogger = New(LevelInfo, FormatText, os.Stdout)

// Default returns the shared process-wide logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the shared logger. Intended for process bootstrap.
func SetDefault(l *Logger) {
	defaultLogger = l
}

func SetLevel(level string) { defaultLogger.SetLevel(ParseLevel(level)) }

func Debug(format string, v ...any) { defaultLogger.Debug(format, v...) }
func Info(format string, v ...any)  { defaultLogger.Info(format, v...) }
func Warn(format string, v ...any)  { defaultLogger.Warn(format, v...) }
func Error(format string, v ...any) { defaultLogger.Error(format, v...) }
