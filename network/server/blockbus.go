// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"errors"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/jorm/network/wire"
)

// errClosed is returned when blockHub can no longer accept
// announcements because it has been shut down.
var errClosed = errors.New("server: block hub is closed")

// BlockSender is the narrow outbound capability each peer's
// BlockSubscription registers with blockHub, mirroring
// propagation.Sender's shape for the block_events stream.
type BlockSender interface {
	SendBlockEvent(ctx context.Context, ev wire.BlockEvent) error
}

// blockHub is the block_events analogue of propagation.Hub: a registry
// of per-peer BlockSenders reached with a non-blocking, best-effort
// send, so AnnounceBlock can fan a locally produced block out to every
// subscribed peer without one stalled peer holding up the rest.
type blockHub struct {
	logger log.Logger

	register   chan blockRegistration
	unregister chan ids.NodeID
	announceCh chan blockAnnounce
	closed     chan struct{}
	done       chan struct{}
}

type blockRegistration struct {
	id     ids.NodeID
	sender BlockSender
}

type blockAnnounce struct {
	ctx context.Context
	h   wire.Header
}

// newBlockHub constructs a blockHub and starts its dispatch loop.
// Shutdown stops it.
func newBlockHub(logger log.Logger) *blockHub {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	h := &blockHub{
		logger:     logger.With("component", "block_hub"),
		register:   make(chan blockRegistration),
		unregister: make(chan ids.NodeID),
		announceCh: make(chan blockAnnounce, 64),
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Register attaches a peer's outbound BlockSender to the hub. Until
// Unregister is called, the peer receives a best-effort copy of every
// announced block header.
func (h *blockHub) Register(id ids.NodeID, sender BlockSender) {
	select {
	case h.register <- blockRegistration{id: id, sender: sender}:
	case <-h.closed:
	}
}

// Unregister detaches a peer's BlockSender from the hub.
func (h *blockHub) Unregister(id ids.NodeID) {
	select {
	case h.unregister <- id:
	case <-h.closed:
	}
}

// Announce enqueues a block header for fan-out to every registered
// peer as a BlockEvent::Announce.
func (h *blockHub) Announce(ctx context.Context, header wire.Header) error {
	select {
	case h.announceCh <- blockAnnounce{ctx: ctx, h: header}:
		return nil
	case <-h.closed:
		return errClosed
	}
}

// Shutdown stops the dispatch loop.
func (h *blockHub) Shutdown() {
	close(h.closed)
	<-h.done
}

func (h *blockHub) run() {
	defer close(h.done)

	senders := make(map[ids.NodeID]BlockSender)
	for {
		select {
		case reg := <-h.register:
			senders[reg.id] = reg.sender
		case id := <-h.unregister:
			delete(senders, id)
		case msg := <-h.announceCh:
			ev := wire.BlockEvent{Kind: wire.BlockEventAnnounce, Header: msg.h}
			for id, sender := range senders {
				if err := sender.SendBlockEvent(msg.ctx, ev); err != nil {
					h.logger.Debug("block announcement failed", "peer", id, "err", err)
				}
			}
		case <-h.closed:
			return
		}
	}
}
