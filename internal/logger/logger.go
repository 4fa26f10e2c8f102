package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var rotator *lumberjack.Logger

// DefaultPath returns the log file used when none is configured.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chapsplit.log"
	}
	return filepath.Join(home, ".local", "state", "chapsplit", "chapsplit.log")
}

// Setup sends the standard logger to stdout and a rotating log file.
func Setup(logFilePath string) {
	if logFilePath == "" {
		logFilePath = DefaultPath()
	}

	// lumberjack creates the directory itself, but only on first write.
	_ = os.MkdirAll(filepath.Dir(logFilePath), 0755)

	rotator = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7,    // days
		Compress:   true, // gzip
	}

	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// MuteStdout keeps logging to the file only.
func MuteStdout() {
	if rotator != nil {
		log.SetOutput(rotator)
	}
}

// Close flushes and closes the rotating file.
func Close() error {
	if rotator == nil {
		return nil
	}
	return rotator.Close()
}
