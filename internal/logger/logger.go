package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development mode uses the console encoder.
func New() *zap.Logger {
	if os.Getenv("APP_ENV") == "development" {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return l
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l
}
