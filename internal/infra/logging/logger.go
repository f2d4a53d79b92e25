package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New は service/env を付けたロガーを返す。dev以外はJSONで出す。
func New(service string, env string, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(ParseLevel(level))

	if env == "dev" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	return l.WithFields(logrus.Fields{
		"service": service,
		"env":     env,
	})
}

func ParseLevel(lvl string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
