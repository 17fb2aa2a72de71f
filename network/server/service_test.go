// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"

	"github.com/luxfi/jorm/fragment"
	"github.com/luxfi/jorm/intercom"
	"github.com/luxfi/jorm/mempool"
	"github.com/luxfi/jorm/network/wire"
	"github.com/luxfi/jorm/propagation"
	"github.com/luxfi/jorm/topology"
)

type stubSigner struct{}

func (stubSigner) Sign(nonce []byte) ([]byte, error) { return append([]byte{0xAA}, nonce...), nil }
func (stubSigner) Verify(peerAddr string, signedNonce []byte) error { return nil }

func newTestService(t *testing.T) (*Service, *intercom.MessageBox[ClientRequest]) {
	t.Helper()
	logs := fragment.NewLogs()
	bus := propagation.New(nil)
	pool := mempool.New(64, logs, bus, nil)
	topo := topology.New("127.0.0.1:9000")
	clientBox := intercom.NewMessageBox[ClientRequest](4)

	svc := New(ids.GenerateTestID(), stubSigner{}, topo, pool, bus, clientBox, time.Second, nil)
	return svc, clientBox
}

func TestHandshakeThenClientAuthLifecycle(t *testing.T) {
	require := require.New(t)
	svc, _ := newTestService(t)

	ctx := WithPeerAddr(context.Background(), "10.0.0.1:9000")
	resp, err := svc.Handshake(ctx, []byte("client-nonce"))
	require.NoError(err)
	require.NotEmpty(resp.Signature)
	require.Len(resp.PeerNonce, 32)

	signed := make([]byte, 32)
	copy(signed, "signed-peer-nonce")
	err = svc.ClientAuth(ctx, signed)
	require.NoError(err)
}

func TestClientAuthWithoutHandshakeFails(t *testing.T) {
	require := require.New(t)
	svc, _ := newTestService(t)

	ctx := WithPeerAddr(context.Background(), "10.0.0.2:9000")
	err := svc.ClientAuth(ctx, []byte("whatever"))
	require.ErrorIs(err, ErrNonceMissing)
}

func TestTipForwardsToClientBoxAndWaitsForReply(t *testing.T) {
	require := require.New(t)
	svc, clientBox := newTestService(t)

	wantID := ids.GenerateTestID()
	go func() {
		req := <-clientBox.Recv()
		req.TipReply.Reply(wire.Header{ID: wantID})
	}()

	h, err := svc.Tip(context.Background())
	require.NoError(err)
	require.Equal(wantID, h.ID)
}

func TestGetFragmentsReturnsOnlyResidentIDs(t *testing.T) {
	require := require.New(t)
	svc, _ := newTestService(t)

	f := fragment.Fragment{Kind: fragment.KindTransaction, Payload: []byte("payload")}
	_, err := svc.pool.InsertAndPropagateAll(context.Background(), fragment.OriginRest, []fragment.Fragment{f}, nil)
	require.NoError(err)

	missing := ids.GenerateTestID()
	out, err := svc.GetFragments(context.Background(), []fragment.ID{fragment.IDOf(f), missing})
	require.NoError(err)

	var got []fragment.Fragment
	for v := range out {
		got = append(got, v)
	}
	require.Len(got, 1)
	require.Equal(f, got[0])
}

func TestPeersFallsBackToSelf(t *testing.T) {
	require := require.New(t)
	svc, _ := newTestService(t)

	addrs, err := svc.Peers(context.Background(), 5)
	require.NoError(err)
	require.Equal([]string{"127.0.0.1:9000"}, addrs)
}
