package config

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// for Log

// LoggerTrace receives trace lines only, so they can be redirected apart from diagnostics.
var LoggerTrace = initLoggerTrace(os.Stdout)

func initLogrus() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		TimestampFormat: time.DateTime,
	})
	if Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func initLoggerTrace(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	logger.SetLevel(logrus.InfoLevel)
	logger.SetOutput(out)
	return logger
}

// SetDebug toggles debug logging of the standard logger.
func SetDebug(debug bool) {
	Debug = debug
	initLogrus()
}

// SetTraceOutput redirects trace lines.
func SetTraceOutput(out io.Writer) {
	LoggerTrace.SetOutput(out)
}

func init() {
	initLogrus()
}
