// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mempool implements the bounded, LRU-evicting fragment pool: a
// single-owner actor reached only through its own methods, matching the
// "no shared mutable state between actors" concurrency model the rest of
// this node follows.
package mempool

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/jorm/fragment"
	"github.com/luxfi/jorm/propagation"
)

// ErrCannotPropagate wraps a failure to hand a newly admitted fragment to
// the propagation bus.
type ErrCannotPropagate struct {
	Err error
}

func (e *ErrCannotPropagate) Error() string {
	return fmt.Sprintf("cannot propagate a fragment to the network: %s", e.Err)
}

func (e *ErrCannotPropagate) Unwrap() error { return e.Err }

// Pool is the mempool actor. All exported methods are safe to call
// concurrently: the internal LRU store and the log are each
// independently synchronized, and insertion ordering (dedup-check then
// insert then propagate then log) is only guaranteed within a single
// call to InsertAndPropagateAll.
type Pool struct {
	logs   *fragment.Logs
	pool   *internalPool
	bus    propagation.Bus
	logger log.Logger
	size   prometheus.Gauge
}

// New constructs a Pool bounded to maxEntries resident fragments.
func New(maxEntries int, logs *fragment.Logs, bus propagation.Bus, logger log.Logger) *Pool {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Pool{
		logs:   logs,
		pool:   newInternalPool(maxEntries),
		bus:    bus,
		logger: logger.With("component", "mempool"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jorm_mempool_size",
			Help: "Number of fragments currently resident in the mempool.",
		}),
	}
}

// Collector exposes the pool's size gauge for registration with a
// prometheus.Registry.
func (p *Pool) Collector() prometheus.Collector { return p.size }

// InsertAndPropagateAll validates, deduplicates against the log (not
// just the resident LRU store, so a fragment evicted earlier cannot be
// re-admitted), inserts the survivors, propagates each to the network,
// and only then records their log entries. Returns the count of
// fragments actually admitted.
//
// Propagation happens before logging, but a propagation failure does
// not skip the log: every admitted fragment gets its log entry, and the
// propagation error is returned alongside the admitted count.
func (p *Pool) InsertAndPropagateAll(ctx context.Context, origin fragment.Origin, fragments []fragment.Fragment, verify fragment.BalanceVerifier) (int, error) {
	p.logger.Debug("received fragments", "count", len(fragments), "origin", origin.String())

	valid := fragments[:0:0]
	for _, f := range fragments {
		if fragment.IsValid(f, verify) {
			valid = append(valid, f)
		}
	}
	if len(valid) == 0 {
		p.logger.Debug("none of the received fragments are valid")
		return 0, nil
	}

	ids := make([]fragment.ID, len(valid))
	for i, f := range valid {
		ids[i] = fragment.IDOf(f)
	}
	existsInLogs := p.logs.ExistAll(ids)

	fresh := make([]fragment.Fragment, 0, len(valid))
	for i, f := range valid {
		if !existsInLogs[i] {
			fresh = append(fresh, f)
		}
	}

	admitted := p.pool.insertAll(fresh)
	p.logger.Debug("fragments added to the pool", "count", len(admitted))
	p.size.Set(float64(p.pool.len()))

	logEntries := make([]fragment.Log, len(admitted))
	now := time.Now()
	for i, f := range admitted {
		logEntries[i] = fragment.NewLog(fragment.IDOf(f), origin, now)
	}

	// Propagation preserves input order. If the outbox closes partway
	// through, already-sent messages are not rolled back, but the log
	// insertion for every newly admitted fragment still happens below —
	// the log and the pool must agree on what was admitted even when the
	// network could not be told about all of it.
	var propagateErr error
	for _, f := range admitted {
		if err := p.bus.PropagateFragment(ctx, f); err != nil {
			propagateErr = &ErrCannotPropagate{Err: err}
			break
		}
	}

	p.logs.InsertAll(logEntries)
	return len(admitted), propagateErr
}

// RemoveAddedToBlock evicts the named fragments from the resident pool
// and transitions their log entries to status, typically InABlock.
func (p *Pool) RemoveAddedToBlock(ids []fragment.ID, status fragment.Status) {
	p.pool.removeAll(ids)
	p.logs.ModifyAll(ids, status)
	p.size.Set(float64(p.pool.len()))
}

// Select runs the named selection algorithm over the resident pool
// against the given ledger simulation. It is non-destructive except for
// fragments that fail simulation, which are rejected and evicted.
func (p *Pool) Select(ledger LedgerSimulator, date fragment.BlockDate, budget BlockBudget, alg SelectionAlgorithm) Contents {
	switch alg {
	case OldestFirst:
		contents := oldestFirstSelect(p.pool, p.logs, ledger, date, budget)
		p.size.Set(float64(p.pool.len()))
		return contents
	default:
		return Contents{}
	}
}

// Logs returns the pool's log store for direct inspection (status
// queries, external GC scheduling via Logs.Prune).
func (p *Pool) Logs() *fragment.Logs { return p.logs }

// Get returns the resident fragment for id, if still present, without
// affecting its LRU recency. Used to answer peer GetFragments requests.
func (p *Pool) Get(id fragment.ID) (fragment.Fragment, bool) {
	return p.pool.get(id)
}

// Len reports the number of fragments currently resident.
func (p *Pool) Len() int { return p.pool.len() }
