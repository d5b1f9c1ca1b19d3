package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. JSON output so log lines stay
// machine-readable in aggregation; level falls back to info on a bad
// value rather than failing startup.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
