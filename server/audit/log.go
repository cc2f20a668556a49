// Package audit appends the human-readable domain-lifecycle lines spec.md
// §6 requires ("ASSIGNED ..." / "RELEASED ...") to a rotated log file.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is an append-only writer for domain assignment/release events.
type Log struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// Open creates (or rotates into) the log file at path, creating parent directories.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create audit log dir: %w", err)
		}
	}
	return &Log{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 10,
			MaxAge:     90, // days
			Compress:   true,
		},
	}, nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	return l.writer.Close()
}

func (l *Log) writeLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.writer, "%s %s\n", time.Now().UTC().Format(time.RFC3339), line)
	return err
}

// Assigned records that label was assigned to userID.
func (l *Log) Assigned(label, userID string) error {
	return l.writeLine(fmt.Sprintf("ASSIGNED %s to %s", label, userID))
}

// Released records that label was released from userID after inactiveDays of silence.
func (l *Log) Released(label, userID string, inactiveDays int) error {
	return l.writeLine(fmt.Sprintf("RELEASED %s from %s (inactive %d days)", label, userID, inactiveDays))
}
