package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/frigidsec/ctfadmin/internal/constants"
)

// LogLevel represents the log level type
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG:   "DEBUG",
	INFO:    "INFO",
	WARNING: "WARN",
	ERROR:   "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Logger writes timestamped lines to a log file. Console output is reserved for
// the operator dialogue, so nothing is ever written to stdout.
type Logger struct {
	level     LogLevel
	mu        sync.Mutex
	filePath  string
	file      *os.File // kept open so rotation can truncate in place
	lineCount int
	maxLines  int
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Options defines options for initializing the logger
type Options struct {
	Level    LogLevel
	FilePath string
	MaxLines int
}

// DefaultOptions returns the default options. FilePath is left empty; the root
// command fills it in.
func DefaultOptions() *Options {
	return &Options{
		Level:    INFO,
		MaxLines: constants.MaxLogLines,
	}
}

// New builds a logger. An empty FilePath yields a logger that discards everything.
func New(opts *Options) (*Logger, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	l := &Logger{
		level:    opts.Level,
		filePath: opts.FilePath,
		maxLines: opts.MaxLines,
	}
	if opts.FilePath == "" {
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", filepath.Dir(opts.FilePath), err)
	}
	file, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %q: %w", opts.FilePath, err)
	}
	l.file = file
	l.lineCount = countLinesInFile(opts.FilePath)
	return l, nil
}

// Initialize sets up the default logger. Only the first call has an effect.
func Initialize(opts *Options) {
	once.Do(func() {
		l, err := New(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
			l, _ = New(&Options{Level: ERROR})
		}
		defaultLogger = l
		defaultLogger.Debug("Logger initialized. Level: %s, FilePath: %s, CurrentLines: %d",
			l.level, l.filePath, l.lineCount)
	})
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	if defaultLogger == nil {
		Initialize(DefaultOptions())
	}
	return defaultLogger
}

// Close closes the default logger's file, if one was opened.
func Close() error {
	if defaultLogger == nil {
		return nil
	}
	return defaultLogger.Close()
}

// Close releases the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}
	if l.maxLines > 0 && l.lineCount >= l.maxLines {
		l.truncateFile()
	}

	line := fmt.Sprintf("[%s] %s: %s\n", time.Now().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
	if _, err := io.WriteString(l.file, line); err == nil {
		l.lineCount++
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(WARNING, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Package-level functions for convenience using the default logger

func Debug(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

func Warning(format string, args ...interface{}) {
	GetLogger().Warning(format, args...)
}

func Error(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// truncateFile keeps the newest half of maxLines.
func (l *Logger) truncateFile() {
	lines, err := readAllLines(l.filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to read log file for truncation: %v\n", err)
		return
	}

	keep := l.maxLines / 2
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}

	// Truncate through the open handle so the inode stays the same.
	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to truncate log file: %v\n", err)
		return
	}
	if err := l.file.Truncate(0); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to truncate log file: %v\n", err)
		return
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(l.file, line); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to rewrite log file: %v\n", err)
			return
		}
	}
	l.lineCount = len(lines)
}

func readAllLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func countLinesInFile(path string) int {
	lines, err := readAllLines(path)
	if err != nil {
		return 0
	}
	return len(lines)
}
