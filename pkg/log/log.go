package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newSilent()

func newSilent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Init configures the package logger to write to w (stderr in the CLI, so logs
// never mix with the report on stdout) and optionally logFile. Without a level
// or a log file nothing is logged.
func Init(w io.Writer, level, logFile string) error {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})

	writers := []io.Writer{w}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	l.SetOutput(io.MultiWriter(writers...))

	switch {
	case level == "" && logFile != "":
		l.SetLevel(logrus.InfoLevel)
	case level == "":
		l.SetLevel(logrus.PanicLevel)
	default:
		l.SetLevel(parseLevel(level))
	}

	logger = l
	return nil
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func Info(msg string, fields ...map[string]interface{}) {
	logger.WithFields(mergeFields(fields...)).Info(msg)
}

func Debug(msg string, fields ...map[string]interface{}) {
	logger.WithFields(mergeFields(fields...)).Debug(msg)
}

func Warn(msg string, fields ...map[string]interface{}) {
	logger.WithFields(mergeFields(fields...)).Warn(msg)
}

func Error(msg string, err error, fields ...map[string]interface{}) {
	entry := logger.WithFields(mergeFields(fields...))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func mergeFields(fields ...map[string]interface{}) logrus.Fields {
	result := make(logrus.Fields)
	for _, f := range fields {
		for k, v := range f {
			result[k] = v
		}
	}
	return result
}
