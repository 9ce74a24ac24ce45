package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tasklist/backend/internal/config"
)

// New builds a zap logger from the logger section of the config. Mode
// "production" selects the JSON production preset; anything else gets the
// development preset. Encoding overrides the preset's encoder when set.
func New(cfg config.LoggerConfig) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(cfg.Mode, "production") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.Encoding == "json" || cfg.Encoding == "console" {
		zc.Encoding = cfg.Encoding
		if cfg.Encoding == "json" {
			zc.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		}
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}

// Must is New for startup paths where a broken logger config is fatal.
func Must(cfg config.LoggerConfig) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return l
}
