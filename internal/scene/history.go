package scene

import (
	"sync"
	"time"

	"github.com/stagecue/stagecue/pkg/types"
)

const defaultMaxAge = 10 * time.Minute

// turnLog is the shared scene transcript. Every member's prompt history is
// drawn from it, so characters hear what the others said.
//
// The log enforces both a maximum entry count and a maximum age; entries
// exceeding either limit are evicted on every add. Safe for concurrent use.
type turnLog struct {
	mu      sync.RWMutex
	entries []logEntry
	depth   int
	maxAge  time.Duration
}

type logEntry struct {
	msg types.Message
	at  time.Time
}

func newTurnLog(depth int, maxAge time.Duration) *turnLog {
	return &turnLog{
		entries: make([]logEntry, 0, depth),
		depth:   depth,
		maxAge:  maxAge,
	}
}

// add appends a message and evicts entries that exceed the configured depth
// or age.
func (l *turnLog) add(msg types.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{msg: msg, at: time.Now()})
	l.evict()
}

// recent returns the messages within the age window, oldest first.
func (l *turnLog) recent() []types.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cutoff := time.Now().Add(-l.maxAge)
	out := make([]types.Message, 0, len(l.entries))
	for _, e := range l.entries {
		if e.at.Before(cutoff) {
			continue
		}
		out = append(out, e.msg)
	}
	return out
}

// evict removes entries that are too old or exceed depth. Must be called
// with l.mu held.
//
// Survivors are copied to a fresh backing array so evicted entries do not
// pin memory for the lifetime of the scene.
func (l *turnLog) evict() {
	cutoff := time.Now().Add(-l.maxAge)

	start := 0
	for start < len(l.entries) && l.entries[start].at.Before(cutoff) {
		start++
	}

	keep := l.entries[start:]
	if len(keep) > l.depth {
		keep = keep[len(keep)-l.depth:]
	}

	if start > 0 || len(keep) < len(l.entries) {
		fresh := make([]logEntry, len(keep), l.depth)
		copy(fresh, keep)
		l.entries = fresh
	}
}
