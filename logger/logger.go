// Package logger builds the zap loggers used by the pmc commands.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger at level ("debug", "info", "warn", "error"; empty means "info").
// If LOG_ENV or APP_ENV is set to "production", a JSON production logger is returned;
// otherwise a development console logger. Both write to stderr.
func New(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, err
		}
	}

	if IsProduction() {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// development config would trace from warn up
	return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// IsProduction reports whether LOG_ENV (or APP_ENV when LOG_ENV is unset) is "production".
func IsProduction() bool {
	env := os.Getenv("LOG_ENV")
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	return env == "production"
}
