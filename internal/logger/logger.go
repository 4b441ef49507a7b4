package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const EnvDevelopment = "development"

// Init builds the process logger for environment and installs it as zap's global logger.
// LOG_LEVEL overrides the default level.
func Init(environment string) error {
	var conf zap.Config
	if environment == EnvDevelopment {
		conf = zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		conf = zap.NewProductionConfig()
		conf.EncoderConfig.TimeKey = "timestamp"
	}
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := zapcore.ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("zapcore.ParseLevel -> %w", err)
		}
		conf.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := conf.Build(zap.Fields(zap.String("env", environment)))
	if err != nil {
		return fmt.Errorf("conf.Build -> %w", err)
	}

	zap.ReplaceGlobals(l)

	return nil
}
