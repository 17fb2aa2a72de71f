// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/luxfi/ids"
	"github.com/luxfi/jorm/fragment"
)

// NewClient returns a Node implementation that issues RPCs over conn
// using ServiceDesc's hand-written methods, selecting the gob codec
// registered in codec.go for every call.
func NewClient(conn *grpc.ClientConn) Node {
	return &client{conn: conn}
}

type client struct {
	conn *grpc.ClientConn
}

func (c *client) method(name string) string {
	return fmt.Sprintf("/%s/%s", ServiceName, name)
}

func (c *client) callOpts() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(CodecName)}
}

func (c *client) Handshake(ctx context.Context, nonce []byte) (HandshakeResponse, error) {
	var resp HandshakeResponse
	err := c.conn.Invoke(ctx, c.method("Handshake"), &handshakeRequest{Nonce: nonce}, &resp, c.callOpts()...)
	return resp, err
}

func (c *client) ClientAuth(ctx context.Context, signedNonce []byte) error {
	var resp struct{}
	return c.conn.Invoke(ctx, c.method("ClientAuth"), &clientAuthRequest{SignedNonce: signedNonce}, &resp, c.callOpts()...)
}

func (c *client) Tip(ctx context.Context) (Header, error) {
	var resp Header
	err := c.conn.Invoke(ctx, c.method("Tip"), &struct{}{}, &resp, c.callOpts()...)
	return resp, err
}

func (c *client) Peers(ctx context.Context, limit uint32) ([]string, error) {
	var resp peersResponse
	err := c.conn.Invoke(ctx, c.method("Peers"), &peersRequest{Limit: limit}, &resp, c.callOpts()...)
	return resp.Addresses, err
}

func (c *client) openServerStream(ctx context.Context, streamName string, req interface{}) (grpc.ClientStream, error) {
	desc := &grpc.StreamDesc{StreamName: streamName, ServerStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, c.method(streamName), c.callOpts()...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return stream, nil
}

func (c *client) GetFragments(ctx context.Context, fragmentIDs []fragment.ID) (<-chan fragment.Fragment, error) {
	stream, err := c.openServerStream(ctx, "GetFragments", &fragmentIDsRequest{IDs: encodeFragmentIDs(fragmentIDs)})
	if err != nil {
		return nil, err
	}
	out := make(chan fragment.Fragment, 64)
	go func() {
		defer close(out)
		for {
			var f fragment.Fragment
			if err := stream.RecvMsg(&f); err != nil {
				return
			}
			out <- f
		}
	}()
	return out, nil
}

func (c *client) PullBlocks(ctx context.Context, from []ids.ID, to ids.ID) (<-chan Block, error) {
	stream, err := c.openServerStream(ctx, "PullBlocks", &blockIDsRequest{From: encodeIDs(from), To: encodeID(to)})
	if err != nil {
		return nil, err
	}
	return recvBlocks(stream), nil
}

func (c *client) PullBlocksToTip(ctx context.Context, from []ids.ID) (<-chan Block, error) {
	stream, err := c.openServerStream(ctx, "PullBlocksToTip", &idsRequest{IDs: encodeIDs(from)})
	if err != nil {
		return nil, err
	}
	return recvBlocks(stream), nil
}

func (c *client) GetBlocks(ctx context.Context, blockIDs []ids.ID) (<-chan Block, error) {
	stream, err := c.openServerStream(ctx, "GetBlocks", &idsRequest{IDs: encodeIDs(blockIDs)})
	if err != nil {
		return nil, err
	}
	return recvBlocks(stream), nil
}

func (c *client) GetHeaders(ctx context.Context, blockIDs []ids.ID) (<-chan Header, error) {
	stream, err := c.openServerStream(ctx, "GetHeaders", &idsRequest{IDs: encodeIDs(blockIDs)})
	if err != nil {
		return nil, err
	}
	return recvHeaders(stream), nil
}

func (c *client) PullHeaders(ctx context.Context, from []ids.ID, to ids.ID) (<-chan Header, error) {
	stream, err := c.openServerStream(ctx, "PullHeaders", &blockIDsRequest{From: encodeIDs(from), To: encodeID(to)})
	if err != nil {
		return nil, err
	}
	return recvHeaders(stream), nil
}

func (c *client) PushHeaders(ctx context.Context, headers <-chan Header) error {
	desc := &grpc.StreamDesc{StreamName: "PushHeaders", ClientStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, c.method("PushHeaders"), c.callOpts()...)
	if err != nil {
		return err
	}
	for h := range headers {
		h := h
		if err := stream.SendMsg(&h); err != nil {
			return err
		}
	}
	return stream.CloseSend()
}

func (c *client) UploadBlocks(ctx context.Context, blocks <-chan Block) error {
	desc := &grpc.StreamDesc{StreamName: "UploadBlocks", ClientStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, c.method("UploadBlocks"), c.callOpts()...)
	if err != nil {
		return err
	}
	for b := range blocks {
		b := b
		if err := stream.SendMsg(&b); err != nil {
			return err
		}
	}
	return stream.CloseSend()
}

func (c *client) BlockSubscription(ctx context.Context, inbound <-chan BlockEvent) (<-chan BlockEvent, error) {
	desc := &grpc.StreamDesc{StreamName: "BlockSubscription", ServerStreams: true, ClientStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, c.method("BlockSubscription"), c.callOpts()...)
	if err != nil {
		return nil, err
	}
	go pumpBlockEvents(stream, inbound)
	return recvBlockEvents(stream), nil
}

func (c *client) FragmentSubscription(ctx context.Context, inbound <-chan fragment.Fragment) (<-chan fragment.Fragment, error) {
	desc := &grpc.StreamDesc{StreamName: "FragmentSubscription", ServerStreams: true, ClientStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, c.method("FragmentSubscription"), c.callOpts()...)
	if err != nil {
		return nil, err
	}
	go func() {
		for f := range inbound {
			f := f
			if stream.SendMsg(&f) != nil {
				return
			}
		}
		_ = stream.CloseSend()
	}()
	out := make(chan fragment.Fragment, 64)
	go func() {
		defer close(out)
		for {
			var f fragment.Fragment
			if err := stream.RecvMsg(&f); err != nil {
				return
			}
			out <- f
		}
	}()
	return out, nil
}

func (c *client) GossipSubscription(ctx context.Context, inbound <-chan Gossip) (<-chan Gossip, error) {
	desc := &grpc.StreamDesc{StreamName: "GossipSubscription", ServerStreams: true, ClientStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, c.method("GossipSubscription"), c.callOpts()...)
	if err != nil {
		return nil, err
	}
	go func() {
		for g := range inbound {
			g := g
			if stream.SendMsg(&g) != nil {
				return
			}
		}
		_ = stream.CloseSend()
	}()
	out := make(chan Gossip, 64)
	go func() {
		defer close(out)
		for {
			var g Gossip
			if err := stream.RecvMsg(&g); err != nil {
				return
			}
			out <- g
		}
	}()
	return out, nil
}

func recvBlocks(stream grpc.ClientStream) <-chan Block {
	out := make(chan Block, 4)
	go func() {
		defer close(out)
		for {
			var b Block
			if err := stream.RecvMsg(&b); err != nil {
				return
			}
			out <- b
		}
	}()
	return out
}

func recvHeaders(stream grpc.ClientStream) <-chan Header {
	out := make(chan Header, 32)
	go func() {
		defer close(out)
		for {
			var h Header
			if err := stream.RecvMsg(&h); err != nil {
				return
			}
			out <- h
		}
	}()
	return out
}

func pumpHeaders(stream grpc.ClientStream, in <-chan Header) {
	for h := range in {
		h := h
		if stream.SendMsg(&h) != nil {
			return
		}
	}
	_ = stream.CloseSend()
}

func recvBlockEvents(stream grpc.ClientStream) <-chan BlockEvent {
	out := make(chan BlockEvent, 16)
	go func() {
		defer close(out)
		for {
			var ev BlockEvent
			if err := stream.RecvMsg(&ev); err != nil {
				return
			}
			out <- ev
		}
	}()
	return out
}

func pumpBlockEvents(stream grpc.ClientStream, in <-chan BlockEvent) {
	for ev := range in {
		ev := ev
		if stream.SendMsg(&ev) != nil {
			return
		}
	}
	_ = stream.CloseSend()
}
