package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Gauge reads the plugin port from stdout, so the report log goes to stderr
var log = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.InfoLevel,
	ExitFunc:  os.Exit,
}

// Logger returns the shared logrus instance
func Logger() *logrus.Logger {
	return log
}

// WithPage returns an entry tagged with the slug of the page being generated
func WithPage(slug string) *logrus.Entry {
	return log.WithField("page", slug)
}

// SetLevel sets the logging level by name; unknown names fall back to info
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

func Info(args ...interface{})                  { log.Log(logrus.InfoLevel, args...) }
func Infof(format string, args ...interface{})  { log.Logf(logrus.InfoLevel, format, args...) }
func Debugf(format string, args ...interface{}) { log.Logf(logrus.DebugLevel, format, args...) }
func Warn(args ...interface{})                  { log.Log(logrus.WarnLevel, args...) }
func Warnf(format string, args ...interface{})  { log.Logf(logrus.WarnLevel, format, args...) }
func Error(args ...interface{})                 { log.Log(logrus.ErrorLevel, args...) }
func Errorf(format string, args ...interface{}) { log.Logf(logrus.ErrorLevel, format, args...) }

// Fatalf logs and exits with status 1
func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
