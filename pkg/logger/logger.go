// Package logger builds the zap.SugaredLogger every other package in this
// module takes as a dependency rather than constructing for itself.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style JSON logger tagged with service. Every
// entry carries a "service" field so multiple Ignite instances in the same
// process can be told apart in aggregated logs.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a malformed
		// config, which this function never produces; fall back to a
		// no-op logger rather than panic in a library constructor.
		logger = zap.NewNop()
	}

	return logger.Sugar().With("service", service)
}

// NewDevelopment builds a human-readable, colorized console logger
// suitable for the demo CLI and local development.
func NewDevelopment(service string) *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.Sugar().With("service", service)
}
