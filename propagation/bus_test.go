// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package propagation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/jorm/fragment"
)

type recordingSender struct {
	fragments chan fragment.Fragment
	failNext  bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{fragments: make(chan fragment.Fragment, 8)}
}

func (s *recordingSender) SendFragment(_ context.Context, f fragment.Fragment) error {
	if s.failNext {
		return errors.New("peer gone")
	}
	select {
	case s.fragments <- f:
	default:
	}
	return nil
}

func (s *recordingSender) SendGossip(context.Context, []byte) error { return nil }

func TestHubFansOutToAllRegisteredPeers(t *testing.T) {
	require := require.New(t)

	h := New(nil)
	defer h.Shutdown()

	a, b := newRecordingSender(), newRecordingSender()
	h.Register(ids.GenerateTestNodeID(), a)
	h.Register(ids.GenerateTestNodeID(), b)

	f := fragment.Fragment{Kind: fragment.KindTransaction, Payload: []byte("tx-1")}
	require.NoError(h.PropagateFragment(context.Background(), f))

	for _, s := range []*recordingSender{a, b} {
		select {
		case got := <-s.fragments:
			require.Equal(f, got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out delivery")
		}
	}
}

func TestHubPropagateFragmentReturnsErrClosedAfterShutdown(t *testing.T) {
	require := require.New(t)

	h := New(nil)
	h.Shutdown()

	err := h.PropagateFragment(context.Background(), fragment.Fragment{})
	require.ErrorIs(err, ErrClosed)
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	require := require.New(t)

	h := New(nil)
	defer h.Shutdown()

	id := ids.GenerateTestNodeID()
	s := newRecordingSender()
	h.Register(id, s)
	h.Unregister(id)

	require.NoError(h.PropagateFragment(context.Background(), fragment.Fragment{Kind: fragment.KindTransaction}))

	select {
	case <-s.fragments:
		t.Fatal("unregistered sender should not receive fan-out")
	case <-time.After(100 * time.Millisecond):
	}
}
