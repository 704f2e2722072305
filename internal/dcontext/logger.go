package dcontext

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger provides a leveled-logging interface, mirrored from logrus.Entry
// so that call sites never import logrus directly.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithError(err error) *logrus.Entry
}

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying the given logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger returns the logger attached to ctx, resolving any of the given
// keys onto it as fields. Falls back to the standard logrus logger when no
// logger has been attached.
func GetLogger(ctx context.Context, keys ...string) Logger {
	entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry)
	if !ok {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}

	fields := logrus.Fields{}
	for _, key := range keys {
		if v := Value(ctx, key); v != nil {
			fields[key] = v
		}
	}

	return entry.WithFields(fields)
}

// GetLoggerWithField returns a logger with a single extra field, without
// mutating ctx.
func GetLoggerWithField(ctx context.Context, key string, value interface{}) Logger {
	return GetLogger(ctx).(*logrus.Entry).WithField(key, fmt.Sprint(value))
}
