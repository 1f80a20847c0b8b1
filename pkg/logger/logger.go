package logger

import (
	"log"

	"go.uber.org/zap"
)

// New builds a zap logger for the given environment. Local environments get
// the human-readable development config, everything else gets production JSON.
func New(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "local", "dev", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %s", err)
	}

	return logger.With(zap.String("env", env))
}
