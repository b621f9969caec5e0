package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"herms/internal/config"
)

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	// production mode
	if cfg.LogLevel == zapcore.WarnLevel {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
		return zc.Build()
	}

	// development mode, more detailed logging
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zc.Build()
}
