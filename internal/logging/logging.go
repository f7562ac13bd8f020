package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKeyType int

const loggerKey loggerKeyType = iota

// Logger is a no-op until New is called so tests stay quiet.
var logger = zap.NewNop()

// New installs the process-wide logger for the given environment.
func New(env string) *zap.Logger {
	if env == "local" || env == "development" {
		logger = newDevelopment()
	} else {
		logger = newProduction()
	}
	return logger
}

func newProduction() *zap.Logger {
	cfg := zap.NewProductionConfig()

	l, err := cfg.Build(zap.AddStacktrace(zap.FatalLevel))
	if err != nil {
		panic(err)
	}
	return l
}

func newDevelopment() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	l, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		panic(err)
	}
	return l
}

// NewContext returns a context whose logger carries the given fields.
// Middleware uses it to attach a request id.
func NewContext(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, loggerKey, WithContext(ctx).With(fields...))
}

// WithContext returns the logger stored in ctx, or the global one.
func WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return logger
	}
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return logger
}

// NoContext is for background loops that have no request scope.
func NoContext() *zap.Logger {
	return logger
}

// Sync flushes buffered entries.
func Sync() {
	_ = logger.Sync()
}
