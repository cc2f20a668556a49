package util

import (
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Yundera/mesh-router-backend/server/reqctx"
)

// LogSource tags which subsystem emitted a log entry, so the formatter
// knows which context fields to pull in.
type LogSource string

const (
	HTTPSource    LogSource = "HTTP"
	CleanupSource LogSource = "CLEANUP"
	SystemSource  LogSource = "SYSTEM"
)

// InitLog parses logLevel and points logrus at logPath ("console" or empty keeps stderr).
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Errorf("failed parsing log-level %s: %s", logLevel, err)
		return err
	}

	if logPath != "" && logPath != "console" {
		lumberjackLogger := &lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		log.SetOutput(io.Writer(lumberjackLogger))
	}

	log.SetFormatter(&CustomFormatter{})
	log.SetLevel(level)
	return nil
}

// CustomFormatter lifts request/user ids out of the log context into fields.
type CustomFormatter struct {
	log.TextFormatter
}

func (f *CustomFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Context == nil {
		return f.TextFormatter.Format(entry)
	}

	if reqID, ok := entry.Context.Value(reqctx.RequestIDKey).(string); ok {
		entry.Data["requestID"] = reqID
	}
	if userID, ok := entry.Context.Value(reqctx.UserIDKey).(string); ok {
		entry.Data["userID"] = userID
	}
	if source, ok := entry.Context.Value(reqctx.SourceKey).(LogSource); ok {
		entry.Data["source"] = string(source)
	}

	return f.TextFormatter.Format(entry)
}
