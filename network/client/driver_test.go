// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
	"github.com/luxfi/jorm/fragment"
	"github.com/luxfi/jorm/intercom"
	"github.com/luxfi/jorm/network/wire"
)

func TestSlotPanicsOnDoubleSetAndDrainsOnce(t *testing.T) {
	require := require.New(t)

	var s slot[int]
	s.set(42)
	require.Panics(func() { s.set(7) })

	v, ok := s.take()
	require.True(ok)
	require.Equal(42, v)

	_, ok = s.take()
	require.False(ok)
}

type recordingBlockSink struct {
	announced chan wire.Header
	received  chan wire.Block
}

func (r *recordingBlockSink) AnnounceBlock(ctx context.Context, h wire.Header) error {
	r.announced <- h
	return nil
}

func (r *recordingBlockSink) ReceiveBlock(ctx context.Context, b wire.Block) error {
	if r.received != nil {
		r.received <- b
	}
	return nil
}

type recordingFragmentSink struct {
	accepted chan fragment.Fragment
}

func (r *recordingFragmentSink) AcceptFragments(ctx context.Context, origin fragment.Origin, fragments []fragment.Fragment) error {
	for _, f := range fragments {
		r.accepted <- f
	}
	return nil
}

type recordingGossipSink struct {
	observed chan []string
}

func (r *recordingGossipSink) ObserveGossip(addrs []string) {
	r.observed <- addrs
}

func TestDriverForwardsBlockAnnouncementToSink(t *testing.T) {
	require := require.New(t)

	blockEvents := make(chan wire.BlockEvent, 1)
	fragments := make(chan fragment.Fragment, 1)
	gossip := make(chan wire.Gossip, 1)
	solicitation := make(chan Solicitation, 1)

	blockSink := &recordingBlockSink{announced: make(chan wire.Header, 1)}
	fragmentSink := &recordingFragmentSink{accepted: make(chan fragment.Fragment, 1)}
	gossipSink := &recordingGossipSink{observed: make(chan []string, 1)}

	d := New(blockEvents, fragments, gossip, solicitation, nil, nil, 0, nil, nil, blockSink, fragmentSink, gossipSink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wantID := ids.GenerateTestID()
	blockEvents <- wire.BlockEvent{Kind: wire.BlockEventAnnounce, Header: wire.Header{ID: wantID}}

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case h := <-blockSink.announced:
		require.Equal(wantID, h.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for block announcement")
	}

	cancel()
	<-done
}

// fakeNode is a minimal wire.Node stub exercising only the calls
// visitSolicitations issues; every other method panics if reached.
type fakeNode struct {
	wire.Node

	getBlocks   func(ctx context.Context, blockIDs []ids.ID) (<-chan wire.Block, error)
	pullHeaders func(ctx context.Context, from []ids.ID, to ids.ID) (<-chan wire.Header, error)
}

func (f *fakeNode) GetBlocks(ctx context.Context, blockIDs []ids.ID) (<-chan wire.Block, error) {
	return f.getBlocks(ctx, blockIDs)
}

func (f *fakeNode) PullHeaders(ctx context.Context, from []ids.ID, to ids.ID) (<-chan wire.Header, error) {
	return f.pullHeaders(ctx, from, to)
}

func TestDriverVisitSolicitationsFetchesBlocksFromPeer(t *testing.T) {
	require := require.New(t)

	blockEvents := make(chan wire.BlockEvent, 1)
	fragments := make(chan fragment.Fragment, 1)
	gossip := make(chan wire.Gossip, 1)
	solicitation := make(chan Solicitation, 1)

	wantID := ids.GenerateTestID()
	node := &fakeNode{
		getBlocks: func(ctx context.Context, blockIDs []ids.ID) (<-chan wire.Block, error) {
			require.Equal([]ids.ID{wantID}, blockIDs)
			out := make(chan wire.Block, 1)
			out <- wire.Block{ID: wantID}
			close(out)
			return out, nil
		},
	}

	blockSink := &recordingBlockSink{announced: make(chan wire.Header, 1), received: make(chan wire.Block, 1)}
	fragmentSink := &recordingFragmentSink{accepted: make(chan fragment.Fragment, 1)}
	gossipSink := &recordingGossipSink{observed: make(chan []string, 1)}

	d := New(blockEvents, fragments, gossip, solicitation, node, nil, 0, nil, nil, blockSink, fragmentSink, gossipSink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	solicitation <- Solicitation{Kind: SolicitBlocks, BlockIDs: []ids.ID{wantID}}

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case b := <-blockSink.received:
		require.Equal(wantID, b.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for solicited block")
	}

	cancel()
	<-done
}

func TestDriverVisitSolicitationsPullsHeadersFromPeer(t *testing.T) {
	require := require.New(t)

	blockEvents := make(chan wire.BlockEvent, 1)
	fragments := make(chan fragment.Fragment, 1)
	gossip := make(chan wire.Gossip, 1)
	solicitation := make(chan Solicitation, 1)

	from := ids.GenerateTestID()
	to := ids.GenerateTestID()
	wantID := ids.GenerateTestID()
	node := &fakeNode{
		pullHeaders: func(ctx context.Context, gotFrom []ids.ID, gotTo ids.ID) (<-chan wire.Header, error) {
			require.Equal([]ids.ID{from}, gotFrom)
			require.Equal(to, gotTo)
			out := make(chan wire.Header, 1)
			out <- wire.Header{ID: wantID}
			close(out)
			return out, nil
		},
	}

	blockSink := &recordingBlockSink{announced: make(chan wire.Header, 1)}
	fragmentSink := &recordingFragmentSink{accepted: make(chan fragment.Fragment, 1)}
	gossipSink := &recordingGossipSink{observed: make(chan []string, 1)}

	d := New(blockEvents, fragments, gossip, solicitation, node, nil, 0, nil, nil, blockSink, fragmentSink, gossipSink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	solicitation <- Solicitation{Kind: SolicitChainPull, PullFrom: []ids.ID{from}, PullTo: to}

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case h := <-blockSink.announced:
		require.Equal(wantID, h.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pulled header")
	}

	cancel()
	<-done
}

func TestDriverHandlesPeerSolicitViaClientMailbox(t *testing.T) {
	require := require.New(t)

	blockEvents := make(chan wire.BlockEvent, 1)
	fragments := make(chan fragment.Fragment, 1)
	gossip := make(chan wire.Gossip, 1)
	solicitation := make(chan Solicitation, 1)

	blockSink := &recordingBlockSink{announced: make(chan wire.Header, 1)}
	fragmentSink := &recordingFragmentSink{accepted: make(chan fragment.Fragment, 1)}
	gossipSink := &recordingGossipSink{observed: make(chan []string, 1)}

	wantID := ids.GenerateTestID()
	clientBox := intercom.NewMessageBox[wire.ClientRequest](1)
	sent := make(chan wire.Block, 1)
	sendBlock := func(ctx context.Context, b wire.Block) error {
		sent <- b
		return nil
	}

	d := New(blockEvents, fragments, gossip, solicitation, nil, clientBox, time.Second, sendBlock, nil, blockSink, fragmentSink, gossipSink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	blockEvents <- wire.BlockEvent{Kind: wire.BlockEventSolicit, BlockIDs: []ids.ID{wantID}}

	select {
	case req := <-clientBox.Recv():
		require.Equal(wire.ReqGetBlocks, req.Kind)
		require.Equal([]ids.ID{wantID}, req.IDs)
		require.NoError(req.Blocks.Send(ctx, wire.Block{ID: wantID}))
		req.Blocks.Close(nil)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for client mailbox request")
	}

	select {
	case b := <-sent:
		require.Equal(wantID, b.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for uploaded block")
	}

	cancel()
	<-done
}

func TestDriverForwardsFragmentToSink(t *testing.T) {
	require := require.New(t)

	blockEvents := make(chan wire.BlockEvent, 1)
	fragments := make(chan fragment.Fragment, 1)
	gossip := make(chan wire.Gossip, 1)
	solicitation := make(chan Solicitation, 1)

	fragmentSink := &recordingFragmentSink{accepted: make(chan fragment.Fragment, 1)}
	blockSink := &recordingBlockSink{announced: make(chan wire.Header, 1)}
	gossipSink := &recordingGossipSink{observed: make(chan []string, 1)}

	d := New(blockEvents, fragments, gossip, solicitation, nil, nil, 0, nil, nil, blockSink, fragmentSink, gossipSink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := fragment.Fragment{Kind: fragment.KindTransaction, Payload: []byte("tx")}
	fragments <- f

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case got := <-fragmentSink.accepted:
		require.Equal(f, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fragment forward")
	}

	cancel()
	<-done
}
