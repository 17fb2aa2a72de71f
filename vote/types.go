// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vote implements the vote-plan governance data model and its
// dual-format (human-readable / binary) codec.
package vote

import (
	"errors"
	"fmt"
)

// MaxOptions is the largest number of choices a single proposal may
// offer. The original decoder aborts the process past this bound; this
// implementation returns ErrTooManyOptions instead (see REDESIGN FLAGS).
const MaxOptions = 255

// MaxProposals is the largest number of proposals a single vote plan may
// hold. The original decoder panics past this bound; this implementation
// returns ErrTooManyProposals instead (see SPEC_FULL.md §E and spec §9).
const MaxProposals = 255

var (
	ErrTooManyOptions   = errors.New("vote: options count exceeds 255")
	ErrTooManyProposals = errors.New("vote: too many proposals")
)

// PayloadType distinguishes public (plaintext choice) from private
// (encrypted, ChaCha-based) ballots.
type PayloadType uint8

const (
	PayloadTypePublic PayloadType = iota
	PayloadTypePrivate
)

func (p PayloadType) String() string {
	if p == PayloadTypePrivate {
		return "private"
	}
	return "public"
}

// BlockDate is an epoch/slot pair.
type BlockDate struct {
	Epoch uint32 `json:"epoch"`
	Slot  uint32 `json:"slot"`
}

// MemberPublicKeyLen is the fixed byte length of a committee member
// public key: a single compressed Ristretto group element, matching
// chain_vote::MemberPublicKey's wrapped curve25519_dalek type (the
// crate itself ships outside this retrieval pack; 32 bytes is the
// standard compressed-Ristretto-point size every chain_vote-derived
// key format uses).
const MemberPublicKeyLen = 32

// MemberPublicKey is a vote committee member's public key, serialized in
// human-readable contexts as bech32 with HRP "p256k1_memberpk" and in
// binary contexts as raw bytes.
type MemberPublicKey struct {
	bytes []byte
}

// NewMemberPublicKey wraps raw key bytes.
func NewMemberPublicKey(b []byte) MemberPublicKey {
	cp := make([]byte, len(b))
	copy(cp, b)
	return MemberPublicKey{bytes: cp}
}

// Bytes returns the raw key bytes.
func (k MemberPublicKey) Bytes() []byte { return k.bytes }

// Options is the bounded set of choices a proposal offers, represented
// as a count (0..=255); ballots reference a choice by zero-based index
// into this range.
type Options struct {
	length uint8
}

// NewOptions constructs an Options of the given length. Returns
// ErrTooManyOptions if length exceeds MaxOptions.
func NewOptions(length int) (Options, error) {
	if length < 0 || length > MaxOptions {
		return Options{}, fmt.Errorf("%w: got %d", ErrTooManyOptions, length)
	}
	return Options{length: uint8(length)}, nil
}

// Len returns the number of choices.
func (o Options) Len() int { return int(o.length) }

// ChoiceRange returns the half-open [0, Len()) range of valid choices.
func (o Options) ChoiceRange() (start, end uint8) { return 0, o.length }

// ExternalProposalID is a hex-encoded, ledger-external identifier for a
// governance proposal (e.g. a catalyst proposal id).
type ExternalProposalID [32]byte

// VoteAction is the on-chain effect a proposal's winning option triggers.
type VoteAction struct {
	Kind       VoteActionKind
	ValueLovel uint64 // lovelace-equivalent value for Treasury/Parameters actions
}

type VoteActionKind uint8

const (
	VoteActionOffChain VoteActionKind = iota
	VoteActionTreasury
	VoteActionParameters
)

// Proposal is a single question within a VotePlan.
type Proposal struct {
	ExternalID ExternalProposalID
	Options    Options
	Action     VoteAction
}

// VotePlan is the governance vote definition: a payload type, a voting
// window, and a bounded list of proposals.
type VotePlan struct {
	PayloadType            PayloadType
	VoteStart              BlockDate
	VoteEnd                BlockDate
	CommitteeEnd           BlockDate
	Proposals              []Proposal
	CommitteeMemberPubKeys []MemberPublicKey
}

// NewVotePlan constructs an empty vote plan; proposals are added one at
// a time via AddProposal so the MaxProposals bound is enforced
// incrementally, exactly as the original proposal list is built up
// during decoding.
func NewVotePlan(payloadType PayloadType, start, end, committeeEnd BlockDate, keys []MemberPublicKey) *VotePlan {
	return &VotePlan{
		PayloadType:            payloadType,
		VoteStart:              start,
		VoteEnd:                end,
		CommitteeEnd:           committeeEnd,
		CommitteeMemberPubKeys: keys,
	}
}

// AddProposal appends a proposal to the plan. Returns ErrTooManyProposals
// once the plan already holds MaxProposals entries, rather than
// panicking as the original decoder does.
func (vp *VotePlan) AddProposal(p Proposal) error {
	if len(vp.Proposals) >= MaxProposals {
		return ErrTooManyProposals
	}
	vp.Proposals = append(vp.Proposals, p)
	return nil
}

// Tally is the outcome of a vote plan's tallying, public or private.
type Tally struct {
	Public  *TallyResult
	Private *PrivateTallyState
}

// TallyResult is a per-option vote-weight vector over a choice range.
type TallyResult struct {
	Results     []uint64
	ChoiceStart uint8
	ChoiceEnd   uint8
}

// EncryptedTally is an opaque encrypted accumulator, serialized as
// base64 in human-readable contexts and raw bytes in binary contexts.
type EncryptedTally struct {
	Bytes []byte
}

// PrivateTallyState is either still encrypted (awaiting committee
// decryption shares) or already decrypted into a TallyResult.
type PrivateTallyState struct {
	Encrypted       *EncryptedTallyState
	DecryptedResult *TallyResult
}

// EncryptedTallyState pairs an EncryptedTally with the total stake that
// participated, needed to validate decryption shares later.
type EncryptedTallyState struct {
	EncryptedTally EncryptedTally
	TotalStake     uint64
}

// Payload is a single ballot's content: a plaintext choice for public
// votes, or an encrypted vote plus zero-knowledge proof for private
// votes.
type Payload struct {
	// Public
	Choice *uint8
	// Private
	EncryptedVote []byte
	Proof         []byte
}

// IsPublic reports whether this payload carries a plaintext choice.
func (p Payload) IsPublic() bool { return p.Choice != nil }

// VoteProposalStatus is the runtime status of a single proposal within a
// vote plan, as reported over the REST/notifier surfaces.
type VoteProposalStatus struct {
	Index       uint8
	ProposalID  ExternalProposalID
	ChoiceStart uint8
	ChoiceEnd   uint8
	Tally       *Tally
	VotesCast   int
}

// VotePlanStatus is the runtime status of an entire vote plan.
type VotePlanStatus struct {
	ID                 [32]byte
	Payload            PayloadType
	VoteStart          BlockDate
	VoteEnd            BlockDate
	CommitteeEnd       BlockDate
	CommitteeMemberKeys []MemberPublicKey
	Proposals          []VoteProposalStatus
}
