// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fragment defines the ledger fragments accepted into the mempool:
// their identity, their kinds, and the admission log attached to each.
package fragment

import (
	"crypto/sha256"
	"time"

	"github.com/luxfi/ids"
)

// ID uniquely identifies a Fragment by the hash of its content.
type ID = ids.ID

// Kind distinguishes the payload a Fragment carries.
type Kind uint8

const (
	KindInitial Kind = iota
	KindOldUtxoDeclaration
	KindTransaction
	KindStakeDelegation
	KindOwnerStakeDelegation
	KindPoolRegistration
	KindPoolRetirement
	KindPoolUpdate
	KindUpdateProposal
	KindUpdateVote
	KindVotePlan
	KindVoteCast
	KindVoteTally
	KindEncryptedVoteTally
)

func (k Kind) String() string {
	switch k {
	case KindInitial:
		return "Initial"
	case KindOldUtxoDeclaration:
		return "OldUtxoDeclaration"
	case KindTransaction:
		return "Transaction"
	case KindStakeDelegation:
		return "StakeDelegation"
	case KindOwnerStakeDelegation:
		return "OwnerStakeDelegation"
	case KindPoolRegistration:
		return "PoolRegistration"
	case KindPoolRetirement:
		return "PoolRetirement"
	case KindPoolUpdate:
		return "PoolUpdate"
	case KindUpdateProposal:
		return "UpdateProposal"
	case KindUpdateVote:
		return "UpdateVote"
	case KindVotePlan:
		return "VotePlan"
	case KindVoteCast:
		return "VoteCast"
	case KindVoteTally:
		return "VoteTally"
	case KindEncryptedVoteTally:
		return "EncryptedVoteTally"
	default:
		return "Unknown"
	}
}

// Fragment is a single ledger-bound unit of work travelling through the
// mempool: a transaction, a certificate, or a vote operation. Payload is
// the opaque serialized body; ledger semantics belong to the external
// ledger collaborator, not to this package.
type Fragment struct {
	Kind    Kind
	Payload []byte
}

// id is computed lazily by callers via IDOf; Fragment itself carries no
// cached identity so equality/content-hashing stays in one place.

// IDOf returns the content-addressed identity of a fragment.
func IDOf(f Fragment) ID {
	h := sha256.New()
	h.Write([]byte{byte(f.Kind)})
	h.Write(f.Payload)
	id, _ := ids.ToID(h.Sum(nil))
	return id
}

// Origin records where a fragment entered the mempool from.
type Origin uint8

const (
	// OriginNetwork fragments arrived via peer gossip.
	OriginNetwork Origin = iota
	// OriginRest fragments arrived via a local client submission.
	OriginRest
)

func (o Origin) String() string {
	if o == OriginRest {
		return "Rest"
	}
	return "Network"
}

// Status is the lifecycle state of a fragment once logged.
type Status struct {
	// Pending is true while the fragment has not yet been settled.
	Pending bool
	// Rejected holds the reason the fragment was dropped, if any.
	Rejected string
	// InABlock is true once the fragment was selected into a block.
	InABlock  bool
	BlockDate BlockDate
	BlockID   ID
}

// PendingStatus constructs the initial status of a freshly admitted fragment.
func PendingStatus() Status {
	return Status{Pending: true}
}

// RejectedStatus constructs a terminal rejected status.
func RejectedStatus(reason string) Status {
	return Status{Rejected: reason}
}

// InABlockStatus constructs a terminal settled status.
func InABlockStatus(date BlockDate, block ID) Status {
	return Status{InABlock: true, BlockDate: date, BlockID: block}
}

// BlockDate is an epoch/slot pair identifying a block's position in the
// ledger timeline.
type BlockDate struct {
	Epoch uint32
	Slot  uint32
}

// Log is the record attached to every fragment that entered the pool,
// independent of whether the fragment itself is still resident in the
// bounded LRU store.
type Log struct {
	FragmentID ID
	Origin     Origin
	Status     Status
	ReceivedAt time.Time
}

// NewLog creates a freshly pending log entry for a fragment.
func NewLog(id ID, origin Origin, now time.Time) Log {
	return Log{
		FragmentID: id,
		Origin:     origin,
		Status:     PendingStatus(),
		ReceivedAt: now,
	}
}
