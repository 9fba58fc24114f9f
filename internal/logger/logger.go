// Package logger provides a context-aware logging facility on top of
// logrus. Request-scoped fields (request ID, user ID) are carried in the
// context and attached to every line logged with that context.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const loggerKey contextKey = "logger"

// FieldRequestID is the log field carrying the per-request identifier
const FieldRequestID = "request_id"

var std = logrus.New()

// Config controls global logger behavior
type Config struct {
	Level  string
	Format string // "json" or "text"
	File   string // optional log file, rotated
}

// Init configures the global logger
func Init(cfg Config) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	std.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		std.SetFormatter(&logrus.JSONFormatter{})
	} else {
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		std.SetOutput(io.MultiWriter(os.Stdout, rotated))
	} else {
		std.SetOutput(os.Stdout)
	}
}

// GetLogger returns the entry stored in ctx, or a plain entry on the
// global logger
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(std)
}

// WithField returns a context whose logger carries an extra field
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	entry := GetLogger(ctx).WithField(key, value)
	return context.WithValue(ctx, loggerKey, entry)
}

// WithRequestID returns a context whose logger carries the request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithField(ctx, FieldRequestID, requestID)
}

// Debugf logs a debug message with the context's fields
func Debugf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Debugf(format, args...)
}

// Info logs an informational message with the context's fields
func Info(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Infof(format, args...)
}

// Infof logs an informational message with the context's fields
func Infof(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Infof(format, args...)
}

// Warnf logs a warning with the context's fields
func Warnf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Warnf(format, args...)
}

// Errorf logs an error with the context's fields
func Errorf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Errorf(format, args...)
}
