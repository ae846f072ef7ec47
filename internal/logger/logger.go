package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
)

const (
	logEnvKey     = "LOG_ENV"
	defaultLogEnv = "dev"
)

var logger *zap.Logger

func init() {
	env := os.Getenv(logEnvKey)
	if env == "" {
		env = defaultLogEnv
	}

	l, err := build(env)
	if err != nil {
		log.Fatal("logger init: ", err)
	}
	logger = l
}

func build(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Init replaces the package logger with one built for env ("dev" or "prod").
func Init(env string) error {
	l, err := build(env)
	if err != nil {
		return err
	}
	_ = logger.Sync()
	logger = l
	return nil
}

// Set replaces the package logger, e.g. with zap.NewNop() in tests.
func Set(l *zap.Logger) {
	logger = l
}

func Sync() {
	_ = logger.Sync()
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}
