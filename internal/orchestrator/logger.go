package orchestrator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger appends timestamped negotiation traces to a file. A nil
// logger, or one built from an empty path, discards everything.
type DebugLogger struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// NewDebugLogger opens logPath for appending, creating parent directories.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return NopLogger(), nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &DebugLogger{out: f}
	l.Log("=== dealroom debug log opened %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// NopLogger returns a logger that writes nothing.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes one timestamped line.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}

	line := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s\n", time.Now().Format("15:04:05.000"), line)
	if f, ok := l.out.(*os.File); ok {
		f.Sync()
	}
}

// Session writes a line tagged with the negotiation it belongs to, so
// interleaved concurrent sessions can be told apart with grep.
func (l *DebugLogger) Session(sessionID, format string, args ...interface{}) {
	l.Log("session=%s "+format, append([]interface{}{sessionID}, args...)...)
}

// Close closes the underlying file.
func (l *DebugLogger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
