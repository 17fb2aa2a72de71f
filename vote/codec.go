// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vote

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/bech32"
)

// MemberPublicKeyHRP is the bech32 human-readable part used for
// committee member public keys.
const MemberPublicKeyHRP = "p256k1_memberpk"

// Mode selects which wire representation a Codec operation uses. Go has
// no equivalent of serde's is_human_readable() hook, so every codec
// function here takes the mode explicitly instead of inferring it from
// the underlying format.
type Mode uint8

const (
	// Human is the REST/JSON-facing representation: bech32 keys, base64
	// byte blobs, hex external ids.
	Human Mode = iota
	// Binary is the wire/storage representation: raw bytes throughout.
	Binary
)

// EncodeMemberPublicKey renders a committee member key per mode.
func EncodeMemberPublicKey(k MemberPublicKey, mode Mode) (string, []byte, error) {
	switch mode {
	case Human:
		s, err := bech32.EncodeFromBase256(MemberPublicKeyHRP, k.Bytes())
		if err != nil {
			return "", nil, fmt.Errorf("encode member public key: %w", err)
		}
		return s, nil, nil
	case Binary:
		return "", k.Bytes(), nil
	default:
		return "", nil, fmt.Errorf("unknown mode %d", mode)
	}
}

// DecodeMemberPublicKeyHuman parses a bech32-encoded committee member
// key, rejecting any human-readable part other than MemberPublicKeyHRP
// or any decoded payload that is not exactly MemberPublicKeyLen bytes.
func DecodeMemberPublicKeyHuman(s string) (MemberPublicKey, error) {
	hrp, data, err := bech32.DecodeToBase256(s)
	if err != nil {
		return MemberPublicKey{}, fmt.Errorf("invalid public key bech32 representation %q: %w", s, err)
	}
	if hrp != MemberPublicKeyHRP {
		return MemberPublicKey{}, fmt.Errorf("invalid public key bech32 hrp %q, expecting %q", hrp, MemberPublicKeyHRP)
	}
	if len(data) != MemberPublicKeyLen {
		return MemberPublicKey{}, fmt.Errorf("member public key must be %d bytes, got %d", MemberPublicKeyLen, len(data))
	}
	return NewMemberPublicKey(data), nil
}

// DecodeMemberPublicKeyBinary wraps raw key bytes, rejecting anything
// other than MemberPublicKeyLen bytes (the binary wire form carries no
// HRP to check, but the byte length is still fixed).
func DecodeMemberPublicKeyBinary(b []byte) (MemberPublicKey, error) {
	if len(b) != MemberPublicKeyLen {
		return MemberPublicKey{}, fmt.Errorf("member public key must be %d bytes, got %d", MemberPublicKeyLen, len(b))
	}
	return NewMemberPublicKey(b), nil
}

// EncodeBytesBlob renders an opaque byte blob (encrypted tally, ballot
// proof, encrypted vote) per mode: base64 for Human, raw for Binary.
func EncodeBytesBlob(b []byte, mode Mode) (string, []byte) {
	if mode == Human {
		return base64.StdEncoding.EncodeToString(b), nil
	}
	return "", b
}

// DecodeBytesBlobHuman decodes a base64-encoded byte blob.
func DecodeBytesBlobHuman(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 blob: %w", err)
	}
	return b, nil
}

// EncodeExternalProposalID renders the proposal id per mode: hex for
// Human, raw for Binary.
func EncodeExternalProposalID(id ExternalProposalID, mode Mode) (string, []byte) {
	if mode == Human {
		return hex.EncodeToString(id[:]), nil
	}
	return "", id[:]
}

// DecodeExternalProposalIDHuman parses a hex-encoded proposal id.
func DecodeExternalProposalIDHuman(s string) (ExternalProposalID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ExternalProposalID{}, fmt.Errorf("invalid external proposal id %q: %w", s, err)
	}
	var id ExternalProposalID
	if len(b) != len(id) {
		return ExternalProposalID{}, fmt.Errorf("external proposal id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// DecodeExternalProposalIDBinary wraps raw proposal-id bytes.
func DecodeExternalProposalIDBinary(b []byte) (ExternalProposalID, error) {
	var id ExternalProposalID
	if len(b) != len(id) {
		return ExternalProposalID{}, fmt.Errorf("external proposal id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ErrOptionOverflow is returned by DecodeOptions when the encoded choice
// count does not fit a byte.
var ErrOptionOverflow = errors.New("vote: expecting a value less than 256")

// DecodeOptions validates and constructs an Options value from a decoded
// integer length, rejecting values above 255 before they would silently
// truncate when narrowed to a byte.
func DecodeOptions(value uint64) (Options, error) {
	if value > 255 {
		return Options{}, ErrOptionOverflow
	}
	return NewOptions(int(value))
}

// ProposalBatch decodes a sequence of already-parsed proposals into a
// VotePlan's proposal list, stopping with ErrTooManyProposals instead of
// panicking once MaxProposals is exceeded (fixes the bug noted in spec §9:
// the original decoder calls panic!("too many proposals") here).
func ProposalBatch(plan *VotePlan, proposals []Proposal) error {
	for _, p := range proposals {
		if err := plan.AddProposal(p); err != nil {
			return err
		}
	}
	return nil
}
