// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/luxfi/jorm/fragment"
)

// internalPool is the bounded LRU-backed fragment store. It tracks no
// provenance or status; that belongs to fragment.Logs. Eviction here is
// silent and does not touch the log, matching the original pool's
// separation of "what's resident" from "what's been seen".
type internalPool struct {
	entries *lru.Cache
}

func newInternalPool(maxEntries int) *internalPool {
	c, err := lru.New(maxEntries)
	if err != nil {
		// Only invalid (non-positive) sizes cause New to fail; a
		// misconfigured mempool capacity is a programmer error.
		panic(err)
	}
	return &internalPool{entries: c}
}

// insert adds fragment if its id is not already present, returning it
// back to the caller so the caller can batch-propagate only the
// fragments that were actually newly admitted. Returns false if the
// fragment was already resident.
func (p *internalPool) insert(f fragment.Fragment) (fragment.Fragment, bool) {
	id := fragment.IDOf(f)
	if p.entries.Contains(id) {
		return fragment.Fragment{}, false
	}
	p.entries.Add(id, f)
	return f, true
}

// insertAll inserts every fragment not already resident, in order, and
// returns the subset that was newly admitted.
func (p *internalPool) insertAll(fragments []fragment.Fragment) []fragment.Fragment {
	admitted := make([]fragment.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if inserted, ok := p.insert(f); ok {
			admitted = append(admitted, inserted)
		}
	}
	return admitted
}

// get returns the resident fragment for id without affecting its LRU
// recency, if present.
func (p *internalPool) get(id fragment.ID) (fragment.Fragment, bool) {
	v, ok := p.entries.Peek(id)
	if !ok {
		return fragment.Fragment{}, false
	}
	return v.(fragment.Fragment), true
}

func (p *internalPool) removeAll(ids []fragment.ID) {
	for _, id := range ids {
		p.entries.Remove(id)
	}
}

// removeOldest evicts and returns the least-recently-used fragment, if
// any remain.
func (p *internalPool) removeOldest() (fragment.Fragment, bool) {
	key, value, ok := p.entries.RemoveOldest()
	if !ok {
		return fragment.Fragment{}, false
	}
	_ = key
	return value.(fragment.Fragment), true
}

// oldestFirst returns every resident fragment ordered from
// least-recently to most-recently used, without removing any of them.
func (p *internalPool) oldestFirst() []fragment.Fragment {
	keys := p.entries.Keys()
	out := make([]fragment.Fragment, 0, len(keys))
	for _, key := range keys {
		if v, ok := p.entries.Peek(key); ok {
			out = append(out, v.(fragment.Fragment))
		}
	}
	return out
}

func (p *internalPool) len() int {
	return p.entries.Len()
}
