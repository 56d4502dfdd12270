// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/infra/config"
)

// Log is the global logger instance
var Log = logrus.New()

// Init initializes the global logger based on application configuration.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout) // Default output

	// Set Log Level
	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		Log.SetLevel(logrus.InfoLevel)
	} else {
		Log.SetLevel(level)
	}

	// Set Log Formatter
	env := strings.ToLower(cfg.Environment)
	if env == "production" || env == "staging" {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
		"storage":     cfg.StorageDriver,
	}).Info("Logger initialized")
}

// Component returns an entry tagged with the component name, the form every
// service and adapter receives its logger in.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
