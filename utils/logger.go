package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the shared logrus logger from LOG_LEVEL / LOG_FILE.
// When LOG_FILE is set, output goes to both stdout and the file.
func InitLogger() *logrus.Logger {
	log := logrus.StandardLogger()

	level, err := logrus.ParseLevel(strings.ToLower(getenv("LOG_LEVEL", "info")))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warnf("cannot open log file %s: %v", path, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	return log
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}
