// Package filetracker tracks per-session file read/write times so the
// mediation layer can tell when a file is being rewritten without having
// been read first.
package filetracker

import (
	"sync"
	"time"
)

type record struct {
	readTime  time.Time
	writeTime time.Time
}

// Tracker is scoped to one session's mediator; sessions never share one.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]record
}

func New() *Tracker {
	return &Tracker{records: make(map[string]record)}
}

// RecordRead records when a file was read.
func (t *Tracker) RecordRead(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[path]
	rec.readTime = time.Now()
	t.records[path] = rec
}

// RecordWrite records when a file was written.
func (t *Tracker) RecordWrite(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[path]
	rec.writeTime = time.Now()
	t.records[path] = rec
}

// WasRead reports whether the file has been read in this session.
func (t *Tracker) WasRead(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.records[path].readTime.IsZero()
}

// LastReadTime returns when a file was last read. Zero time if never read.
func (t *Tracker) LastReadTime(path string) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records[path].readTime
}
