// Package actionlog keeps the rolling, in-memory audit trail of successful
// bulk actions, most recent first.
package actionlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

// Sink receives a copy of every appended entry.
type Sink interface {
	Publish(ctx context.Context, entry models.ActionLogEntry) error
}

// Log is safe for concurrent use. Once full, the oldest entry is dropped.
type Log struct {
	mu       sync.RWMutex
	entries  []models.ActionLogEntry
	capacity int
	now      func() time.Time
	sink     Sink
	logger   *slog.Logger
}

type Option func(*Log)

func WithCapacity(capacity int) Option {
	return func(l *Log) {
		if capacity > 0 {
			l.capacity = capacity
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

func WithSink(sink Sink) Option {
	return func(l *Log) {
		l.sink = sink
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(opts ...Option) *Log {
	l := &Log{
		capacity: constants.ActionLogCapacity,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = make([]models.ActionLogEntry, 0, l.capacity)
	return l
}

// Append stamps entry with an id and time and stores it. A failing sink is
// logged and never fails the append.
func (l *Log) Append(ctx context.Context, entry models.ActionLogEntry) models.ActionLogEntry {
	entry.ID = uuid.New()
	entry.At = l.now().UTC()

	l.mu.Lock()
	l.entries = append(l.entries, models.ActionLogEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	l.mu.Unlock()

	l.logger.Info("action applied",
		"action", entry.Action,
		"task_id", entry.TaskID,
	)

	if l.sink != nil {
		if err := l.sink.Publish(ctx, entry); err != nil {
			l.logger.Warn("action log sink failed", "action", entry.Action, "task_id", entry.TaskID, "error", err)
		}
	}
	return entry
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []models.ActionLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]models.ActionLogEntry, n)
	copy(out, l.entries[:n])
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
