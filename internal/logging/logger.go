// Package logging builds the zap loggers used across the service.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	fieldOperation = "operation"
	fieldReason    = "reason"
)

// NewLogger returns a zap logger configured for structured production logging.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// ParseLevel maps a configured level name onto a zap level; unknown names log at info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// OperationFields prefixes fields with the failing operation, the reason code and the error.
func OperationFields(operation, reason string, err error, fields ...zap.Field) []zap.Field {
	attrs := make([]zap.Field, 0, len(fields)+3)
	attrs = append(attrs,
		zap.String(fieldOperation, operation),
		zap.String(fieldReason, reason),
	)
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	return append(attrs, fields...)
}
