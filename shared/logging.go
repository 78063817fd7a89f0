package shared

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus level and formatter
func ConfigureLogging(level, format string) {
	configureLogger(logrus.StandardLogger(), os.Stdout, level, format)
}

func configureLogger(logger *logrus.Logger, out io.Writer, level, format string) {
	logger.SetOutput(out)

	parsedLevel, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsedLevel = logrus.InfoLevel
	}
	logger.SetLevel(parsedLevel)

	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if err != nil && level != "" {
		logger.WithField("log_level", level).Warn("Unknown log level, using info")
	}
}
