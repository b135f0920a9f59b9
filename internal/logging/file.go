package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions controls log file rotation.
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// OpenFile returns a rotating writer for path. The parent directory is created.
func OpenFile(path string, opt FileOptions) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if opt.MaxSizeMB <= 0 {
		opt.MaxSizeMB = 10
	}
	if opt.MaxBackups <= 0 {
		opt.MaxBackups = 3
	}
	if opt.MaxAgeDays <= 0 {
		opt.MaxAgeDays = 28
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opt.MaxSizeMB, // megabytes
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAgeDays, // days
		LocalTime:  true,
	}, nil
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) { l.out.SetOutput(w) }
