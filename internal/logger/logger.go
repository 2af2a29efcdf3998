// Package logger builds the process-wide logrus instance.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a logger at Info level, or Debug when verbose is set. Debug
// adds page-by-page fetch progress.
func New(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.DateTime,
		FullTimestamp:   true,
	})
	l.SetLevel(logrus.InfoLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
