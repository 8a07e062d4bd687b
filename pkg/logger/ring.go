package logger

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBufferSize is the number of entries kept when no size is given.
const DefaultBufferSize = 1000

// componentKeys are the context fields that identify where a line came from,
// in lookup order.
var componentKeys = []string{"component", "client", "handler", "job", "source"}

// Entry is one parsed log line held in the ring buffer.
type Entry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// RingBuffer is a bounded in-memory log sink. It implements io.Writer so it can
// sit behind zerolog, and evicts the oldest entry once full.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewRingBuffer creates a buffer holding at most size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &RingBuffer{entries: make([]Entry, size)}
}

// Write parses a single zerolog JSON line. Lines that are not JSON are kept
// verbatim as the message so nothing written is silently lost.
func (b *RingBuffer) Write(p []byte) (int, error) {
	b.add(parseEntry(p))
	return len(p), nil
}

// WriteLevel satisfies zerolog.LevelWriter.
func (b *RingBuffer) WriteLevel(_ zerolog.Level, p []byte) (int, error) {
	return b.Write(p)
}

func (b *RingBuffer) add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// Len returns the number of entries currently held.
func (b *RingBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

// snapshot returns all entries oldest first. Caller must hold the read lock.
func (b *RingBuffer) snapshot() []Entry {
	if !b.full {
		out := make([]Entry, b.next)
		copy(out, b.entries[:b.next])
		return out
	}
	out := make([]Entry, 0, len(b.entries))
	out = append(out, b.entries[b.next:]...)
	out = append(out, b.entries[:b.next]...)
	return out
}

// Recent returns up to n of the newest entries, oldest first.
// n <= 0 returns everything.
func (b *RingBuffer) Recent(n int) []Entry {
	b.mu.RLock()
	all := b.snapshot()
	b.mu.RUnlock()

	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// BySource returns the entries logged by the given component.
func (b *RingBuffer) BySource(component string) []Entry {
	return b.filter(func(e Entry) bool { return e.Component == component })
}

// Errors returns entries at error level or above.
func (b *RingBuffer) Errors() []Entry {
	return b.filter(func(e Entry) bool {
		lvl, err := zerolog.ParseLevel(e.Level)
		return err == nil && lvl >= zerolog.ErrorLevel
	})
}

// Clear drops all entries.
func (b *RingBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make([]Entry, len(b.entries))
	b.next = 0
	b.full = false
}

func (b *RingBuffer) filter(keep func(Entry) bool) []Entry {
	b.mu.RLock()
	all := b.snapshot()
	b.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range all {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func parseEntry(p []byte) Entry {
	var raw map[string]interface{}
	if err := json.Unmarshal(p, &raw); err != nil {
		return Entry{
			Time:    time.Now(),
			Level:   zerolog.NoLevel.String(),
			Message: strings.TrimSpace(string(p)),
		}
	}

	e := Entry{Time: time.Now()}
	if v, ok := raw[zerolog.LevelFieldName].(string); ok {
		e.Level = v
	}
	if v, ok := raw[zerolog.MessageFieldName].(string); ok {
		e.Message = v
	}
	if v, ok := raw[zerolog.TimestampFieldName].(string); ok {
		if t, err := time.Parse(zerolog.TimeFieldFormat, v); err == nil {
			e.Time = t
		}
	}
	for _, k := range componentKeys {
		if v, ok := raw[k].(string); ok && v != "" {
			e.Component = v
			break
		}
	}

	delete(raw, zerolog.LevelFieldName)
	delete(raw, zerolog.MessageFieldName)
	delete(raw, zerolog.TimestampFieldName)
	delete(raw, zerolog.CallerFieldName)
	if len(raw) > 0 {
		e.Fields = raw
	}
	return e
}
