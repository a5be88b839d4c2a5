// Package logging builds the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing JSON in production and text elsewhere.
// Unknown levels fall back to info.
func New(env, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
