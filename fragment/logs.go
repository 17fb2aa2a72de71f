// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fragment

import (
	"sync"
	"time"
)

// Logs is the append-mostly record of every fragment ever admitted to a
// mempool, independent of whether the fragment itself has since been
// evicted from the bounded LRU store. The mempool and the log share no
// lock: Logs owns its own mutex so the pool actor's mailbox loop can
// call it without additional synchronization concerns.
type Logs struct {
	mu      sync.Mutex
	entries map[ID]Log
}

// NewLogs creates an empty log store.
func NewLogs() *Logs {
	return &Logs{entries: make(map[ID]Log)}
}

// ExistAll reports, for each id in order, whether a log entry already
// exists for it. Used by the pool to filter out fragments that have
// already been seen even if they have since been evicted.
func (l *Logs) ExistAll(ids []ID) []bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]bool, len(ids))
	for i, id := range ids {
		_, out[i] = l.entries[id]
	}
	return out
}

// InsertAll records a freshly admitted batch of logs. Existing entries
// for the same id are left untouched.
func (l *Logs) InsertAll(logs []Log) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, log := range logs {
		if _, exists := l.entries[log.FragmentID]; !exists {
			l.entries[log.FragmentID] = log
		}
	}
}

// ModifyAll transitions every named fragment's log to the given status.
// Ids with no existing log entry are ignored.
func (l *Logs) ModifyAll(ids []ID, status Status) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range ids {
		entry, ok := l.entries[id]
		if !ok {
			continue
		}
		entry.Status = status
		l.entries[id] = entry
	}
}

// Get returns the log entry for id, if any.
func (l *Logs) Get(id ID) (Log, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[id]
	return entry, ok
}

// Len reports the number of log entries currently retained.
func (l *Logs) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// Prune drops log entries received before the cutoff. This is not run on
// an internal schedule by this package: the log's garbage-collection
// policy is an external collaborator's concern (spec §3 Lifecycles), and
// Prune merely exposes the mechanism for that collaborator to call.
func (l *Logs) Prune(olderThan time.Duration, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-olderThan)
	pruned := 0
	for id, entry := range l.entries {
		if entry.ReceivedAt.Before(cutoff) {
			delete(l.entries, id)
			pruned++
		}
	}
	return pruned
}
