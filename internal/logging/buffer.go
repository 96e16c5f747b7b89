package logging

import (
	"sync"
	"time"
)

// LogEntry represents a single log line stored in the ring buffer.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries. Safe for concurrent use.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int  // slot the next entry goes to
	full    bool // every slot holds an entry
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{entries: make([]LogEntry, size)}
}

// Write stores entry, dropping the oldest one when the buffer is full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.next] = entry
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
}

// ReadAll returns all entries, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Tail(len(rb.entries))
}

// Tail returns up to the n newest entries, oldest first.
func (rb *RingBuffer) Tail(n int) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	count := rb.count()
	if n > count {
		n = count
	}
	if n <= 0 {
		return nil
	}

	out := make([]LogEntry, n)
	start := rb.next - n
	if start >= 0 {
		copy(out, rb.entries[start:rb.next])
		return out
	}
	// wraps: the tail of the slice, then its head
	k := copy(out, rb.entries[len(rb.entries)+start:])
	copy(out[k:], rb.entries[:rb.next])
	return out
}

// Count returns the number of entries in the buffer.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count()
}

func (rb *RingBuffer) count() int {
	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}
