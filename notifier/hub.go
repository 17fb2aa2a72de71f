// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notifier

import (
	"sync"
	"sync/atomic"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxConnections is the ceiling used when Hub is constructed
// without an explicit limit.
const DefaultMaxConnections = 255

// Hub is the notifier actor: it owns the single latest-tip slot and the
// bounded block-adoption ring, and enforces a hard cap on concurrent
// websocket subscribers.
//
// The original notifier acquires a connection slot with a non-atomic
// load-then-store pair (connection_counter.load(Acquire) followed by
// .store(counter+1, Release)), which admits more than max_connections
// under concurrent connects. Hub instead acquires with a single atomic
// compare-and-swap loop, so the check-then-increment is one indivisible
// step (spec §9, SPEC_FULL.md §E.2).
type Hub struct {
	logger log.Logger

	maxConnections int32
	connCount      int32

	mu        sync.Mutex
	tip       ids.ID
	tipSubs   map[*tipSub]struct{}
	blockSubs map[*blockSub]struct{}

	connGauge prometheus.Gauge
}

type tipSub struct {
	ch chan ids.ID
}

type blockSub struct {
	ch chan ids.ID
}

// New constructs a Hub seeded with the current chain tip. maxConnections
// of 0 selects DefaultMaxConnections.
func New(currentTip ids.ID, maxConnections int, logger log.Logger) *Hub {
	if maxConnections <= 0 {
		maxConnections = DefaultMaxConnections
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Hub{
		logger:         logger.With("component", "notifier"),
		maxConnections: int32(maxConnections),
		tip:            currentTip,
		tipSubs:        make(map[*tipSub]struct{}),
		blockSubs:      make(map[*blockSub]struct{}),
		connGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jorm_notifier_connections",
			Help: "Number of currently admitted notifier subscribers.",
		}),
	}
}

// Collector exposes the hub's connection gauge for registration with a
// prometheus.Registry.
func (h *Hub) Collector() prometheus.Collector { return h.connGauge }

// NewTip broadcasts a new chain tip to every tip subscriber. Each
// subscriber only ever holds the latest tip value, not a backlog: a slow
// subscriber sees its buffered slot overwritten rather than growing
// unbounded (watch-channel semantics, not a queue).
func (h *Hub) NewTip(id ids.ID) {
	h.mu.Lock()
	h.tip = id
	subs := make([]*tipSub, 0, len(h.tipSubs))
	for s := range h.tipSubs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		replaceLatest(s.ch, id)
	}
}

// NewBlock broadcasts a newly adopted block to every block subscriber.
// Each subscriber holds a bounded ring (capacity 16); a subscriber
// lagging far enough behind drops the oldest pending entries rather than
// stalling the broadcaster.
func (h *Hub) NewBlock(id ids.ID) {
	h.mu.Lock()
	subs := make([]*blockSub, 0, len(h.blockSubs))
	for s := range h.blockSubs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- id:
		default:
			h.logger.Debug("block subscriber lagging, dropping oldest")
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- id:
			default:
			}
		}
	}
}

// replaceLatest delivers v to ch, evicting any stale pending value first
// so ch always holds at most the most recent broadcast.
func replaceLatest(ch chan ids.ID, v ids.ID) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// acquire reserves one connection slot, returning false if the hub is
// already at capacity. Safe for concurrent callers.
func (h *Hub) acquire() bool {
	for {
		cur := atomic.LoadInt32(&h.connCount)
		if cur >= h.maxConnections {
			return false
		}
		if atomic.CompareAndSwapInt32(&h.connCount, cur, cur+1) {
			h.connGauge.Inc()
			return true
		}
	}
}

// release frees a previously acquired connection slot.
func (h *Hub) release() {
	atomic.AddInt32(&h.connCount, -1)
	h.connGauge.Dec()
}

// subscribe registers a fresh tip/block subscriber pair, seeded with the
// hub's current tip so a new connection immediately has something to
// send without waiting for the next broadcast.
func (h *Hub) subscribe() (*tipSub, *blockSub, ids.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ts := &tipSub{ch: make(chan ids.ID, 1)}
	bs := &blockSub{ch: make(chan ids.ID, 16)}
	h.tipSubs[ts] = struct{}{}
	h.blockSubs[bs] = struct{}{}
	return ts, bs, h.tip
}

func (h *Hub) unsubscribe(ts *tipSub, bs *blockSub) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.tipSubs, ts)
	delete(h.blockSubs, bs)
}
