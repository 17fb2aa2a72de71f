// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/jorm/intercom"
)

// ClientRequest is the message shape this node's client-request mailbox
// accepts: a request for blockchain data (tip, blocks, headers) that the
// owning storage/ledger task resolves. It is a single shared mailbox
// protocol used by two distinct callers: network/server.Service answers
// inbound peer RPCs (tip/pull_blocks/get_blocks/...) with it, and
// network/client.Driver answers a peer's BlockEvent::Solicit/Missing
// requests arriving on our own outbound connection to them with it,
// exactly as spec §4.4 and §4.5 both describe "forward a message...
// to the client task mailbox". Headers/Blocks carry a streaming reply's
// write side (intercom.ReplyStream); TipReply carries a single-value
// reply's write side (intercom.ReplyFuture). Exactly one is set, per
// Kind.
type ClientRequest struct {
	Kind     ClientRequestKind
	From, To []ids.ID
	IDs      []ids.ID
	Headers  *intercom.StreamSender[Header]
	Blocks   *intercom.StreamSender[Block]
	TipReply *intercom.ReplySender[Header]
}

// ClientRequestKind enumerates the shapes a ClientRequest can take.
type ClientRequestKind uint8

const (
	ReqTip ClientRequestKind = iota
	ReqPullBlocks
	ReqPullBlocksToTip
	ReqGetBlocks
	ReqGetHeaders
	ReqPullHeaders
)
