package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "handcrafted-haven"

// New builds the application logger: JSON lines in production, colored
// console output otherwise. Logs go to stdout.
func New(env string) *zap.Logger {
	return newLogger(env, zapcore.Lock(os.Stdout))
}

func newLogger(env string, sink zapcore.WriteSyncer) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	encoder := zapcore.NewConsoleEncoder(developmentEncoderConfig())

	if env == "production" {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		encoder = zapcore.NewJSONEncoder(productionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, sink, level)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	).With(zap.String("service", serviceName), zap.String("env", env))
}

func productionEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	return cfg
}

func developmentEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}
