// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intercom

// Inbound and Outbound hold the mailbox capacities for each directional
// stream kind the peer client driver and server dispatch use, mirroring
// the original node's buffer_sizes::{inbound,outbound} constants.
var (
	Inbound  = directionalBufferSizes{Blocks: 4, Headers: 32}
	Outbound = directionalBufferSizes{Blocks: 4, Headers: 32}
)

type directionalBufferSizes struct {
	Blocks  int
	Headers int
}
