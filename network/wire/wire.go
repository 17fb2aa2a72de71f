// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire defines the transport-agnostic node-to-node protocol:
// narrow capability interfaces for the block, fragment and gossip
// services, modeled on the teacher's AppSender/AppHandler style of
// small, single-purpose interfaces rather than one monolithic RPC
// service. This package's grpc.go and client.go bind these to
// google.golang.org/grpc using the gob wire codec registered in
// codec.go; network/server implements Node and network/client consumes
// it. Nothing in this file imports grpc.
package wire

import (
	"context"

	"github.com/luxfi/ids"

	"github.com/luxfi/jorm/fragment"
)

// Header is the minimal block header the pull/get-headers family
// streams; full block bodies are opaque payloads identified by Block.
type Header struct {
	ID       ids.ID
	ParentID ids.ID
	ChainLen uint64
}

// Block is an opaque, content-addressed block body.
type Block struct {
	ID       ids.ID
	ParentID ids.ID
	ChainLen uint64
	Payload  []byte
}

// Gossip is an opaque peer-to-peer gossip payload (network topology
// exchange, not application fragments).
type Gossip struct {
	Payload []byte
}

// HandshakeResponse is returned by BlockService.Handshake.
type HandshakeResponse struct {
	Block0ID  ids.ID
	Signature []byte
	PeerNonce []byte
}

// BlockEventKind tags which variant of the block_events union a
// BlockEvent carries, per spec §6 ("Announce(header) | Solicit(block_ids)
// | Missing(ChainPullRequest{from,to})").
type BlockEventKind uint8

const (
	// BlockEventAnnounce carries a newly produced block's header.
	BlockEventAnnounce BlockEventKind = iota
	// BlockEventSolicit asks the receiver for specific blocks by id.
	BlockEventSolicit
	// BlockEventMissing asks the receiver for a header range.
	BlockEventMissing
)

// ChainPullRequest is the payload of BlockEvent::Missing: a request for
// headers starting after From, up to and including To.
type ChainPullRequest struct {
	From []ids.ID
	To   ids.ID
}

// BlockEvent is the tagged union carried over the block_events
// subscription stream, in both directions: it announces a locally
// produced block, or asks the other side for specific blocks or a
// header range. Only the field matching Kind is meaningful.
type BlockEvent struct {
	Kind     BlockEventKind
	Header   Header           // BlockEventAnnounce
	BlockIDs []ids.ID         // BlockEventSolicit
	Range    ChainPullRequest // BlockEventMissing
}

// BlockService is the node-to-node block synchronization surface:
// handshake/auth plus the pull/get/push block and header exchanges.
type BlockService interface {
	Handshake(ctx context.Context, nonce []byte) (HandshakeResponse, error)
	ClientAuth(ctx context.Context, signedNonce []byte) error

	Tip(ctx context.Context) (Header, error)
	PullBlocks(ctx context.Context, from []ids.ID, to ids.ID) (<-chan Block, error)
	PullBlocksToTip(ctx context.Context, from []ids.ID) (<-chan Block, error)
	GetBlocks(ctx context.Context, ids []ids.ID) (<-chan Block, error)
	GetHeaders(ctx context.Context, ids []ids.ID) (<-chan Header, error)
	PullHeaders(ctx context.Context, from []ids.ID, to ids.ID) (<-chan Header, error)

	PushHeaders(ctx context.Context, headers <-chan Header) error
	UploadBlocks(ctx context.Context, blocks <-chan Block) error

	// BlockSubscription exchanges the inbound stream of block events
	// the peer sends us (announcements, solicitations, missing-range
	// requests) for the outbound stream of the same carrying ours.
	BlockSubscription(ctx context.Context, inbound <-chan BlockEvent) (<-chan BlockEvent, error)
}

// FragmentService is the node-to-node mempool fragment exchange.
type FragmentService interface {
	GetFragments(ctx context.Context, ids []fragment.ID) (<-chan fragment.Fragment, error)
	FragmentSubscription(ctx context.Context, inbound <-chan fragment.Fragment) (<-chan fragment.Fragment, error)
}

// GossipService is the node-to-node topology gossip exchange.
type GossipService interface {
	GossipSubscription(ctx context.Context, inbound <-chan Gossip) (<-chan Gossip, error)
}

// PeerService answers topology queries unrelated to the subscription
// streams above.
type PeerService interface {
	Peers(ctx context.Context, limit uint32) ([]string, error)
}

// Node aggregates the four service surfaces a transport binds,
// matching the teacher's chain_network::core::server::Node grouping
// without committing to any single RPC framework at this layer.
type Node interface {
	BlockService
	FragmentService
	GossipService
	PeerService
}
