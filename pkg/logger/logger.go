// Package logger provides the process-wide structured logger: a colored
// full-format console sink and a line-delimited-JSON file sink, the two
// destinations the traffic log and every other component write through.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// jsonFileHook duplicates every log entry into a JSON-formatted file,
// independent of whatever formatter the base logger uses for the console.
type jsonFileHook struct {
	file      *os.File
	formatter logrus.Formatter
	mu        sync.Mutex
}

func (h *jsonFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *jsonFileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.file.Write(line)
	return err
}

var (
	once    sync.Once
	Default *logrus.Logger
)

// New builds a logger with a colored console formatter and, best-effort, a
// JSON file sink under logs/. Failure to create the logs directory or file
// is non-fatal: the console sink still works.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	l.SetLevel(logrus.DebugLevel)

	if err := os.MkdirAll("logs", 0o755); err != nil && !os.IsExist(err) {
		l.Warnf("could not create logs directory, file sink disabled: %v", err)
		return l
	}

	logPath := filepath.Join("logs", fmt.Sprintf("%s.log", time.Now().UTC().Format(time.RFC3339)))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		l.Warnf("could not open log file, file sink disabled: %v", err)
		return l
	}

	l.AddHook(&jsonFileHook{
		file:      file,
		formatter: &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano},
	})
	return l
}

// Init initializes the process-wide logger exactly once.
func Init() *logrus.Logger {
	once.Do(func() {
		Default = New()
	})
	return Default
}

func init() {
	Init()
}

func Info(format string, v ...any)  { Default.Infof(format, v...) }
func Error(format string, v ...any) { Default.Errorf(format, v...) }
func Debug(format string, v ...any) { Default.Debugf(format, v...) }
func Warn(format string, v ...any)  { Default.Warnf(format, v...) }
