// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/jorm/fragment"
)

func decodeID(b idBytes) ids.ID {
	id, _ := ids.ToID(b)
	return id
}

func decodeIDs(bs []idBytes) []ids.ID {
	out := make([]ids.ID, len(bs))
	for i, b := range bs {
		out[i] = decodeID(b)
	}
	return out
}

func encodeID(id ids.ID) idBytes {
	b := id
	return b[:]
}

func encodeIDs(in []ids.ID) []idBytes {
	out := make([]idBytes, len(in))
	for i, id := range in {
		out[i] = encodeID(id)
	}
	return out
}

func decodeFragmentIDs(bs []idBytes) []fragment.ID {
	out := make([]fragment.ID, len(bs))
	for i, b := range bs {
		out[i] = decodeID(b)
	}
	return out
}

func encodeFragmentIDs(in []fragment.ID) []idBytes {
	out := make([]idBytes, len(in))
	for i, id := range in {
		out[i] = encodeID(id)
	}
	return out
}
