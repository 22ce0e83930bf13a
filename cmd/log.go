package cmd

import (
	"os"

	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Initialize logger (pre-config)
func initLogging() (logger *logrus.Logger) {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&prefixed.TextFormatter{ForceFormatting: true})
	return
}

// Initialize logger (post-config)
func configureLogging(logger *logrus.Logger, cfg config) (log *logrus.Logger, err error) {
	var logLevel logrus.Level
	logLevel, err = logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		err = errors.Wrapv(err, "invalid value for log-level", cfg.LogLevel)
		return
	}
	logger.SetLevel(logLevel)

	log = logger

	return
}

func validLogLevels() []string {
	var logLevels []string
	for _, l := range logrus.AllLevels {
		logLevels = append(logLevels, l.String())
	}
	return logLevels
}
