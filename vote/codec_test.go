// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vote

import (
	"testing"

	"github.com/decred/dcrd/bech32"
	"github.com/stretchr/testify/require"
)

func fixedLengthKeyBytes() []byte {
	b := make([]byte, MemberPublicKeyLen)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestMemberPublicKeyBech32RoundTrip(t *testing.T) {
	require := require.New(t)

	key := NewMemberPublicKey(fixedLengthKeyBytes())
	encoded, _, err := EncodeMemberPublicKey(key, Human)
	require.NoError(err)
	require.Contains(encoded, MemberPublicKeyHRP)

	decoded, err := DecodeMemberPublicKeyHuman(encoded)
	require.NoError(err)
	require.Equal(key.Bytes(), decoded.Bytes())
}

func TestMemberPublicKeyBech32RejectsWrongHRP(t *testing.T) {
	require := require.New(t)

	encoded, err := bech32.EncodeFromBase256("wrong_hrp", fixedLengthKeyBytes())
	require.NoError(err)

	_, err = DecodeMemberPublicKeyHuman(encoded)
	require.Error(err)
}

func TestMemberPublicKeyBech32RejectsWrongByteLength(t *testing.T) {
	require := require.New(t)

	encoded, err := bech32.EncodeFromBase256(MemberPublicKeyHRP, []byte{1, 2, 3})
	require.NoError(err)

	_, err = DecodeMemberPublicKeyHuman(encoded)
	require.Error(err)
}

func TestDecodeMemberPublicKeyBinaryRejectsWrongByteLength(t *testing.T) {
	require := require.New(t)

	_, err := DecodeMemberPublicKeyBinary([]byte{1, 2, 3})
	require.Error(err)

	key, err := DecodeMemberPublicKeyBinary(fixedLengthKeyBytes())
	require.NoError(err)
	require.Len(key.Bytes(), MemberPublicKeyLen)
}

func TestBytesBlobBase64RoundTrip(t *testing.T) {
	require := require.New(t)

	original := []byte{0xde, 0xad, 0xbe, 0xef}
	encoded, raw := EncodeBytesBlob(original, Human)
	require.Nil(raw)
	require.NotEmpty(encoded)

	decoded, err := DecodeBytesBlobHuman(encoded)
	require.NoError(err)
	require.Equal(original, decoded)

	_, raw = EncodeBytesBlob(original, Binary)
	require.Equal(original, raw)
}

func TestExternalProposalIDHexRoundTrip(t *testing.T) {
	require := require.New(t)

	var id ExternalProposalID
	for i := range id {
		id[i] = byte(i)
	}

	encoded, raw := EncodeExternalProposalID(id, Human)
	require.Nil(raw)

	decoded, err := DecodeExternalProposalIDHuman(encoded)
	require.NoError(err)
	require.Equal(id, decoded)
}

func TestDecodeOptionsRejectsOverflow(t *testing.T) {
	require := require.New(t)

	_, err := DecodeOptions(256)
	require.ErrorIs(err, ErrOptionOverflow)

	opts, err := DecodeOptions(255)
	require.NoError(err)
	require.Equal(255, opts.Len())
}

func TestProposalBatchReturnsErrorInsteadOfPanicking(t *testing.T) {
	require := require.New(t)

	plan := NewVotePlan(PayloadTypePublic, BlockDate{}, BlockDate{}, BlockDate{}, nil)
	opts, err := NewOptions(2)
	require.NoError(err)

	proposals := make([]Proposal, MaxProposals+1)
	for i := range proposals {
		proposals[i] = Proposal{Options: opts}
	}

	require.NotPanics(func() {
		err = ProposalBatch(plan, proposals)
	})
	require.ErrorIs(err, ErrTooManyProposals)
	require.Len(plan.Proposals, MaxProposals)
}
