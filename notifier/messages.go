// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package notifier implements the bounded fan-out hub that forwards tip
// and block adoption events to websocket subscribers.
package notifier

import "github.com/luxfi/ids"

// Message is the JSON envelope written to every subscriber, matching the
// wire shape of spec §6: exactly one of NewTip or NewBlock is set.
type Message struct {
	NewTip   string `json:"NewTip,omitempty"`
	NewBlock string `json:"NewBlock,omitempty"`
}

func newTipMessage(id ids.ID) Message {
	return Message{NewTip: id.String()}
}

func newBlockMessage(id ids.ID) Message {
	return Message{NewBlock: id.String()}
}
