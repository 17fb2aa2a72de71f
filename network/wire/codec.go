// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype under which the gob codec is
// registered with grpc. A client dials with grpc.CallContentSubtype
// set to this name to opt into it; without protoc-generated types for
// Header/Block/Gossip, gob is the pack's idiomatic stand-in for a wire
// encoding (the teacher's own RPC layer is protobuf-generated, but no
// .proto toolchain ships in this retrieval pack to regenerate against
// these domain types).
const CodecName = "gobwire"

func init() {
	encoding.RegisterCodec(gobCodec{})
}

// gobCodec implements google.golang.org/grpc/encoding.Codec by
// delegating to encoding/gob. It is registered once at package init
// and selected per-call via grpc.CallContentSubtype(wire.CodecName) or
// server-side via the content-subtype grpc negotiates from the client.
type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return CodecName }
