// Package logging provides the shared log sink for a batch run. Rank
// workers log concurrently, so the sink serializes writes; components
// receive the logger explicitly instead of going through a global.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes log lines to stdout and, when configured, a log file.
type Logger struct {
	mu   sync.Mutex
	out  io.Writer
	file *os.File
}

// New creates a logger writing to stdout. If logPath is non-empty the same
// lines are also appended to that file; failure to open it disables file
// logging but is not fatal.
func New(logPath string) *Logger {
	l := &Logger{out: os.Stdout}
	if logPath == "" {
		return l
	}
	file, err := os.Create(logPath)
	if err != nil {
		fmt.Fprintf(os.Stdout, "Failed to open log file %s. Logging to file disabled.\n", logPath)
		return l
	}
	l.file = file
	return l
}

// Printf formats and writes one log line. Safe for concurrent use.
func (l *Logger) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, line)
	if l.file != nil {
		l.file.WriteString(line)
	}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
