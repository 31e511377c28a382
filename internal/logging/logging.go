// Package logging builds the application slog.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

// Options controls logger construction.
type Options struct {
	Level string
	// Path, when set, sends logs to a size-capped file instead of Writer.
	Path string
	// Writer receives logs when Path is empty. Defaults to stderr.
	Writer io.Writer
}

// New returns a text logger and a close function for any file it opened.
// A log file that cannot be opened falls back to Writer.
func New(opts Options) (*slog.Logger, func() error, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	closeFn := func() error { return nil }

	var fileErr error
	if opts.Path != "" {
		fileWriter, err := NewFileWriter(opts.Path, maxLogSizeBytes, keepLogSizeBytes)
		if err != nil {
			fileErr = fmt.Errorf("log file: %w", err)
		} else {
			w = fileWriter
			closeFn = fileWriter.Close
		}
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}))
	return logger, closeFn, fileErr
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FileWriter appends to a log file and trims it to the newest keep bytes
// once it grows past max.
type FileWriter struct {
	path string
	file *os.File
	max  int64
	keep int64
	mu   sync.Mutex
}

// NewFileWriter opens (creating as needed) the log file at path.
func NewFileWriter(path string, max, keep int64) (*FileWriter, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	writer := &FileWriter{path: path, file: file, max: max, keep: keep}
	if err := writer.truncateIfNeeded(); err != nil {
		file.Close()
		return nil, err
	}
	return writer, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *FileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.max || size <= w.keep {
		return nil
	}

	buf := make([]byte, w.keep)
	n, err := w.file.ReadAt(buf, size-w.keep)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes always land at the new end.
	_, err = w.file.Write(buf)
	return err
}
