// Package logger holds the process-wide logrus logger used by replybot.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/keepmind9/replybot/pkg/constants"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu           sync.RWMutex
	globalLogger *logrus.Logger
)

// Config represents the configuration for the logger
type Config struct {
	Level        string
	File         string
	MaxSize      int
	MaxBackups   int
	MaxAge       int
	Compress     bool
	EnableStdout bool

	// Output replaces stdout when EnableStdout is set. Used by tests.
	Output io.Writer
}

// New builds a logger from config without touching the global instance.
func New(config Config) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	var writers []io.Writer

	if config.File != "" {
		if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
			return nil, err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    withDefault(config.MaxSize, constants.DefaultLogMaxSize), // megabytes
			MaxBackups: withDefault(config.MaxBackups, constants.DefaultLogMaxBackups),
			MaxAge:     withDefault(config.MaxAge, constants.DefaultLogMaxAge), // days
			Compress:   config.Compress,
		})
	}

	if config.EnableStdout {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		writers = append(writers, out)
	}

	if len(writers) > 0 {
		log.SetOutput(io.MultiWriter(writers...))
	}

	log.SetFormatter(formatterFor(level))
	return log, nil
}

// InitLogger initializes the global logger with the given configuration
func InitLogger(config Config) error {
	log, err := New(config)
	if err != nil {
		return err
	}

	mu.Lock()
	globalLogger = log
	mu.Unlock()
	return nil
}

// formatterFor picks colored text output for debugging and JSON otherwise.
func formatterFor(level logrus.Level) logrus.Formatter {
	if level >= logrus.DebugLevel {
		return &logrus.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		}
	}
	return &logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	}
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	mu.RLock()
	log := globalLogger
	mu.RUnlock()
	if log != nil {
		return log
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		// Initialize with default config if not initialized
		globalLogger = logrus.New()
		globalLogger.SetLevel(logrus.InfoLevel)
		globalLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return globalLogger
}

// Debug logs a message at debug level
func Debug(args ...interface{}) {
	GetLogger().Debug(args...)
}

// Info logs a message at info level
func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

// Warn logs a message at warning level
func Warn(args ...interface{}) {
	GetLogger().Warn(args...)
}

// Error logs a message at error level
func Error(args ...interface{}) {
	GetLogger().Error(args...)
}

// WithFields returns a logger entry with structured fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithField returns a logger entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}
