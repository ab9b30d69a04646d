// Package logging provides the concrete common.ContainerLogger used by
// farmd: structured stdout lines plus an in-memory ring buffer for the
// operator surface, grounded on the teacher's ContainerRunner.Log.
package logging

import (
	"fmt"
	"sync"
	"time"

	"github.com/print-farm/farm-go/internal/application/common"
)

// Entry is one recorded log line.
type Entry struct {
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// Logger is a structured logger scoped to one component (a controller, the
// scheduler, the dispatcher): every line is tagged with Component.
type Logger struct {
	Component string
	Capacity  int

	mu   sync.Mutex
	ring []Entry
}

// NewLogger constructs a Logger with the given ring-buffer capacity.
func NewLogger(component string, capacity int) *Logger {
	return &Logger{Component: component, Capacity: capacity}
}

// Log implements common.ContainerLogger: prints a structured line to
// stdout and retains it in the bounded in-memory buffer.
func (l *Logger) Log(level, message string, metadata map[string]interface{}) {
	entry := Entry{Timestamp: time.Now(), Level: level, Message: message, Metadata: metadata}

	l.mu.Lock()
	l.ring = append(l.ring, entry)
	if l.Capacity > 0 && len(l.ring) > l.Capacity {
		l.ring = l.ring[len(l.ring)-l.Capacity:]
	}
	l.mu.Unlock()

	fmt.Printf("[%s] [%s] %s: %s %v\n",
		entry.Timestamp.Format(time.RFC3339),
		l.Component,
		level,
		message,
		metadata,
	)
}

// Recent returns a snapshot of the most recently recorded entries.
func (l *Logger) Recent() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.ring))
	copy(out, l.ring)
	return out
}

var _ common.ContainerLogger = (*Logger)(nil)
