// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"context"
	"io"

	"google.golang.org/grpc"

	"github.com/luxfi/jorm/fragment"
)

// ServiceName is the grpc service name a Node implementation is
// registered under, and that NewClient calls against. There is no
// .proto source for it: every message on the wire is a plain Go struct
// from this package, serialized by the gob codec registered in
// codec.go. NewClient selects that codec per call with
// grpc.CallContentSubtype(CodecName); a default *grpc.Server picks it
// up from the request's content-subtype.
const ServiceName = "jorm.network.Node"

// handshakeRequest/clientAuthRequest/peersRequest are the unary
// envelope types gob encodes; they exist only so the hand-written
// ServiceDesc below has something concrete to decode into, mirroring
// the purpose protoc-generated request messages serve without
// depending on a .proto toolchain.
type handshakeRequest struct{ Nonce []byte }
type clientAuthRequest struct{ SignedNonce []byte }
type peersRequest struct{ Limit uint32 }
type peersResponse struct{ Addresses []string }
type blockIDsRequest struct {
	From []idBytes
	To   idBytes
}
type idsRequest struct{ IDs []idBytes }
type fragmentIDsRequest struct{ IDs []idBytes }

// idBytes is ids.ID flattened to a byte slice for gob transport,
// avoiding a dependency on ids.ID implementing GobEncode.
type idBytes = []byte

// ServiceDesc is the hand-written grpc service descriptor binding Node
// to the wire, in place of a protoc-generated one. Unary RPCs
// (handshake, client_auth, tip, peers) use grpc.MethodDesc; the
// streaming exchanges use grpc.StreamDesc. The pull/get RPCs are
// server-streaming, PushHeaders and UploadBlocks are client-streaming,
// and only the three subscriptions set both ServerStreams and
// ClientStreams, so one bidirectional pipe carries the peer's events in
// and ours out.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Node)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Handshake", Handler: handshakeHandler},
		{MethodName: "ClientAuth", Handler: clientAuthHandler},
		{MethodName: "Tip", Handler: tipHandler},
		{MethodName: "Peers", Handler: peersHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "PullBlocks", Handler: pullBlocksHandler, ServerStreams: true},
		{StreamName: "PullBlocksToTip", Handler: pullBlocksToTipHandler, ServerStreams: true},
		{StreamName: "GetBlocks", Handler: getBlocksHandler, ServerStreams: true},
		{StreamName: "GetHeaders", Handler: getHeadersHandler, ServerStreams: true},
		{StreamName: "GetFragments", Handler: getFragmentsHandler, ServerStreams: true},
		{StreamName: "PullHeaders", Handler: pullHeadersHandler, ServerStreams: true},
		{StreamName: "PushHeaders", Handler: pushHeadersHandler, ClientStreams: true},
		{StreamName: "UploadBlocks", Handler: uploadBlocksHandler, ClientStreams: true},
		{StreamName: "BlockSubscription", Handler: blockSubscriptionHandler, ServerStreams: true, ClientStreams: true},
		{StreamName: "FragmentSubscription", Handler: fragmentSubscriptionHandler, ServerStreams: true, ClientStreams: true},
		{StreamName: "GossipSubscription", Handler: gossipSubscriptionHandler, ServerStreams: true, ClientStreams: true},
	},
}

func handshakeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req handshakeRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	resp, err := srv.(Node).Handshake(ctx, req.Nonce)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func clientAuthHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req clientAuthRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	return &struct{}{}, srv.(Node).ClientAuth(ctx, req.SignedNonce)
}

func tipHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req struct{}
	if err := dec(&req); err != nil {
		return nil, err
	}
	h, err := srv.(Node).Tip(ctx)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func peersHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
	var req peersRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	addrs, err := srv.(Node).Peers(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	return &peersResponse{Addresses: addrs}, nil
}

// The stream handlers below adapt a grpc.ServerStream to the <-chan T /
// error-returning shape the Node interface methods expect.
func pullBlocksHandler(srv interface{}, stream grpc.ServerStream) error {
	var req blockIDsRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	out, err := srv.(Node).PullBlocks(stream.Context(), decodeIDs(req.From), decodeID(req.To))
	if err != nil {
		return err
	}
	return pipeBlocksOut(stream, out)
}

func pullBlocksToTipHandler(srv interface{}, stream grpc.ServerStream) error {
	var req idsRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	out, err := srv.(Node).PullBlocksToTip(stream.Context(), decodeIDs(req.IDs))
	if err != nil {
		return err
	}
	return pipeBlocksOut(stream, out)
}

func getBlocksHandler(srv interface{}, stream grpc.ServerStream) error {
	var req idsRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	out, err := srv.(Node).GetBlocks(stream.Context(), decodeIDs(req.IDs))
	if err != nil {
		return err
	}
	return pipeBlocksOut(stream, out)
}

func getHeadersHandler(srv interface{}, stream grpc.ServerStream) error {
	var req idsRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	out, err := srv.(Node).GetHeaders(stream.Context(), decodeIDs(req.IDs))
	if err != nil {
		return err
	}
	return pipeHeadersOut(stream, out)
}

func getFragmentsHandler(srv interface{}, stream grpc.ServerStream) error {
	var req fragmentIDsRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	out, err := srv.(Node).GetFragments(stream.Context(), decodeFragmentIDs(req.IDs))
	if err != nil {
		return err
	}
	for f := range out {
		f := f
		if err := stream.SendMsg(&f); err != nil {
			return err
		}
	}
	return nil
}

func pullHeadersHandler(srv interface{}, stream grpc.ServerStream) error {
	var req blockIDsRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	out, err := srv.(Node).PullHeaders(stream.Context(), decodeIDs(req.From), decodeID(req.To))
	if err != nil {
		return err
	}
	return pipeHeadersOut(stream, out)
}

func pushHeadersHandler(srv interface{}, stream grpc.ServerStream) error {
	in := make(chan Header, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(in)
		for {
			var h Header
			if err := stream.RecvMsg(&h); err != nil {
				if err != io.EOF {
					errCh <- err
				}
				return
			}
			in <- h
		}
	}()
	err := srv.(Node).PushHeaders(stream.Context(), in)
	select {
	case recvErr := <-errCh:
		return recvErr
	default:
		return err
	}
}

func uploadBlocksHandler(srv interface{}, stream grpc.ServerStream) error {
	in := make(chan Block, 4)
	errCh := make(chan error, 1)
	go func() {
		defer close(in)
		for {
			var b Block
			if err := stream.RecvMsg(&b); err != nil {
				if err != io.EOF {
					errCh <- err
				}
				return
			}
			in <- b
		}
	}()
	err := srv.(Node).UploadBlocks(stream.Context(), in)
	select {
	case recvErr := <-errCh:
		return recvErr
	default:
		return err
	}
}

func blockSubscriptionHandler(srv interface{}, stream grpc.ServerStream) error {
	in := make(chan BlockEvent, 4)
	go func() {
		defer close(in)
		for {
			var ev BlockEvent
			if err := stream.RecvMsg(&ev); err != nil {
				return
			}
			in <- ev
		}
	}()
	out, err := srv.(Node).BlockSubscription(stream.Context(), in)
	if err != nil {
		return err
	}
	return pipeBlockEventsOut(stream, out)
}

func fragmentSubscriptionHandler(srv interface{}, stream grpc.ServerStream) error {
	in := make(chan fragment.Fragment, 64)
	go func() {
		defer close(in)
		for {
			var f fragment.Fragment
			if err := stream.RecvMsg(&f); err != nil {
				return
			}
			in <- f
		}
	}()
	out, err := srv.(Node).FragmentSubscription(stream.Context(), in)
	if err != nil {
		return err
	}
	for f := range out {
		if err := stream.SendMsg(&f); err != nil {
			return err
		}
	}
	return nil
}

func gossipSubscriptionHandler(srv interface{}, stream grpc.ServerStream) error {
	in := make(chan Gossip, 64)
	go func() {
		defer close(in)
		for {
			var g Gossip
			if err := stream.RecvMsg(&g); err != nil {
				return
			}
			in <- g
		}
	}()
	out, err := srv.(Node).GossipSubscription(stream.Context(), in)
	if err != nil {
		return err
	}
	for g := range out {
		if err := stream.SendMsg(&g); err != nil {
			return err
		}
	}
	return nil
}

func pipeBlocksOut(stream grpc.ServerStream, out <-chan Block) error {
	for b := range out {
		if err := stream.SendMsg(&b); err != nil {
			return err
		}
	}
	return nil
}

func pipeHeadersOut(stream grpc.ServerStream, out <-chan Header) error {
	for h := range out {
		if err := stream.SendMsg(&h); err != nil {
			return err
		}
	}
	return nil
}

func pipeBlockEventsOut(stream grpc.ServerStream, out <-chan BlockEvent) error {
	for ev := range out {
		ev := ev
		if err := stream.SendMsg(&ev); err != nil {
			return err
		}
	}
	return nil
}

// RegisterNodeServer registers n against s under ServiceDesc, the
// hand-written equivalent of a protoc-generated RegisterXxxServer
// function.
func RegisterNodeServer(s *grpc.Server, n Node) {
	s.RegisterService(&ServiceDesc, n)
}
