package logger

import (
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const proxyLogFile = "logs/proxy.log"

// NewLogger builds the process-wide logrus logger. Entries are written
// asynchronously to logs/proxy.log and mirrored to stdout.
func NewLogger() *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := os.MkdirAll("logs", 0750); err != nil {
		log.Fatalf("failed to create logs directory: %v", err)
	}

	writer, err := NewAsyncFileWriter(proxyLogFile, 32*1024)
	if err != nil {
		log.Fatalf("failed to initialize async log writer: %v", err)
	}
	logger.SetOutput(writer)

	logger.AddHook(NewConsoleHook())

	return logger
}
