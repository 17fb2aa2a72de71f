// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package propagation implements the outbound fan-out queue between the
// mempool (and other local producers) and each peer client's outbound
// fragment/gossip streams. The bus owns nothing durable: it is a queue,
// per spec — resident fragments live in the mempool, not here.
package propagation

import (
	"context"
	"errors"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/jorm/fragment"
)

// ErrClosed is returned when the bus can no longer accept messages
// because it has been shut down.
var ErrClosed = errors.New("propagation: bus is closed")

// Sender is the narrow outbound capability each peer client registers
// with the bus, mirroring the teacher's networking/sender.Sender shape:
// a handful of concrete SendX methods rather than one broad interface.
type Sender interface {
	SendFragment(ctx context.Context, f fragment.Fragment) error
	SendGossip(ctx context.Context, msg []byte) error
}

// Bus is the propagation capability the mempool and other local
// producers depend on. It is satisfied by *Hub; callers that only need
// to enqueue fragments should depend on Bus, not on the full Hub API.
type Bus interface {
	PropagateFragment(ctx context.Context, f fragment.Fragment) error
	PropagateGossip(ctx context.Context, msg []byte) error
}

// Hub is the concrete propagation bus: a registry of per-peer Senders,
// each reached with a non-blocking, best-effort send so one slow or
// stalled peer can never hold up delivery to the others (grounded on
// vechain-thor's pending_tx.dispatch fan-out pattern).
type Hub struct {
	logger log.Logger

	register   chan registration
	unregister chan ids.NodeID
	fragmentCh chan fragmentMsg
	gossipCh   chan []byte
	closed     chan struct{}
	done       chan struct{}
}

type registration struct {
	id     ids.NodeID
	sender Sender
}

type fragmentMsg struct {
	ctx context.Context
	f   fragment.Fragment
}

// New constructs a Hub and starts its dispatch loop. Shutdown stops it.
func New(logger log.Logger) *Hub {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	h := &Hub{
		logger:     logger.With("component", "propagation"),
		register:   make(chan registration),
		unregister: make(chan ids.NodeID),
		fragmentCh: make(chan fragmentMsg, 64),
		gossipCh:   make(chan []byte, 64),
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Register attaches a peer's outbound Sender to the bus. Until
// Unregister is called, the peer receives a best-effort copy of every
// propagated fragment and gossip message.
func (h *Hub) Register(id ids.NodeID, sender Sender) {
	select {
	case h.register <- registration{id: id, sender: sender}:
	case <-h.closed:
	}
}

// Unregister detaches a peer's Sender from the bus.
func (h *Hub) Unregister(id ids.NodeID) {
	select {
	case h.unregister <- id:
	case <-h.closed:
	}
}

// PropagateFragment enqueues a fragment for fan-out to every registered
// peer. It returns ErrClosed if the bus has been shut down; it never
// blocks on a slow peer.
func (h *Hub) PropagateFragment(ctx context.Context, f fragment.Fragment) error {
	select {
	case h.fragmentCh <- fragmentMsg{ctx: ctx, f: f}:
		return nil
	case <-h.closed:
		return ErrClosed
	}
}

// PropagateGossip enqueues a gossip payload for fan-out to every
// registered peer.
func (h *Hub) PropagateGossip(ctx context.Context, msg []byte) error {
	select {
	case h.gossipCh <- msg:
		return nil
	case <-h.closed:
		return ErrClosed
	}
}

// Shutdown stops the dispatch loop and causes all pending and future
// Propagate* calls to return ErrClosed.
func (h *Hub) Shutdown() {
	close(h.closed)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)

	senders := make(map[ids.NodeID]Sender)
	for {
		select {
		case reg := <-h.register:
			senders[reg.id] = reg.sender
		case id := <-h.unregister:
			delete(senders, id)
		case msg := <-h.fragmentCh:
			for id, sender := range senders {
				// Senders are expected to enqueue onto their own
				// per-peer outbound mailbox and return immediately
				// (matching the peer client driver's buffered
				// streams); a stalled peer must never stall
				// delivery to every other registered peer.
				if err := sender.SendFragment(msg.ctx, msg.f); err != nil {
					h.logger.Debug("fragment propagation failed", "peer", id, "err", err)
				}
			}
		case msg := <-h.gossipCh:
			for id, sender := range senders {
				if err := sender.SendGossip(context.Background(), msg); err != nil {
					h.logger.Debug("gossip propagation failed", "peer", id, "err", err)
				}
			}
		case <-h.closed:
			return
		}
	}
}
