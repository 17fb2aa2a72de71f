// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fragment

// BalanceVerifier checks that a transaction-shaped fragment's inputs and
// outputs balance according to ledger rules. The real check lives in the
// external ledger collaborator (see spec §1); this is the seam the pool
// calls through so admission can be unit-tested without one.
type BalanceVerifier func(payload []byte) bool

// acceptAlways is the default BalanceVerifier used when the caller does
// not care to reject on balance failures (e.g. in tests).
func acceptAlways([]byte) bool { return true }

// IsValid reports whether a fragment may be admitted to the mempool.
// Initial and OldUtxoDeclaration fragments are genesis-only and never
// valid here; UpdateProposal/UpdateVote are not yet enabled. Everything
// else is a transaction-shaped fragment whose balance must verify.
func IsValid(f Fragment, verify BalanceVerifier) bool {
	if verify == nil {
		verify = acceptAlways
	}
	switch f.Kind {
	case KindInitial, KindOldUtxoDeclaration:
		return false
	case KindUpdateProposal, KindUpdateVote:
		return false
	case KindTransaction,
		KindStakeDelegation,
		KindOwnerStakeDelegation,
		KindPoolRegistration,
		KindPoolRetirement,
		KindPoolUpdate,
		KindVotePlan,
		KindVoteCast,
		KindVoteTally,
		KindEncryptedVoteTally:
		return verify(f.Payload)
	default:
		return false
	}
}
