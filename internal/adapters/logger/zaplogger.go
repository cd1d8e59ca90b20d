package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements the ports.Logger interface over a zap production
// logger, emitting structured JSON entries.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a production zap logger at the given level.
func NewZapLogger(level LogLevel) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: l}, nil
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func zapFields(err error, fields []map[string]interface{}) []zap.Field {
	var out []zap.Field
	if err != nil {
		out = append(out, zap.Error(err))
	}
	if len(fields) > 0 && fields[0] != nil {
		for k, v := range fields[0] {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

// Debug logs a message at Debug level.
func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Debug(msg, zapFields(nil, fields)...)
}

// Info logs a message at Info level.
func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Info(msg, zapFields(nil, fields)...)
}

// Warn logs a message at Warning level.
func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Warn(msg, zapFields(nil, fields)...)
}

// Error logs an error message at Error level.
func (l *ZapLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.logger.Error(msg, zapFields(err, fields)...)
}

// Sync flushes buffered entries. Call on shutdown.
func (l *ZapLogger) Sync() {
	_ = l.logger.Sync()
}
