// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fragment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDOfIsDeterministicAndContentAddressed(t *testing.T) {
	require := require.New(t)

	a := Fragment{Kind: KindTransaction, Payload: []byte("abc")}
	b := Fragment{Kind: KindTransaction, Payload: []byte("abc")}
	c := Fragment{Kind: KindTransaction, Payload: []byte("xyz")}
	d := Fragment{Kind: KindVoteCast, Payload: []byte("abc")}

	require.Equal(IDOf(a), IDOf(b))
	require.NotEqual(IDOf(a), IDOf(c))
	require.NotEqual(IDOf(a), IDOf(d), "kind participates in the content hash")
}

func TestIsValidRejectsGenesisOnlyKinds(t *testing.T) {
	require := require.New(t)

	require.False(IsValid(Fragment{Kind: KindInitial}, nil))
	require.False(IsValid(Fragment{Kind: KindOldUtxoDeclaration}, nil))
}

func TestIsValidRejectsDisabledUpdateKinds(t *testing.T) {
	require := require.New(t)

	require.False(IsValid(Fragment{Kind: KindUpdateProposal}, nil))
	require.False(IsValid(Fragment{Kind: KindUpdateVote}, nil))
}

func TestIsValidDefersToBalanceVerifierForTransactionShapedKinds(t *testing.T) {
	require := require.New(t)

	kinds := []Kind{
		KindTransaction,
		KindStakeDelegation,
		KindOwnerStakeDelegation,
		KindPoolRegistration,
		KindPoolRetirement,
		KindPoolUpdate,
		KindVotePlan,
		KindVoteCast,
		KindVoteTally,
		KindEncryptedVoteTally,
	}

	reject := func([]byte) bool { return false }
	for _, k := range kinds {
		require.True(IsValid(Fragment{Kind: k}, nil), "kind %s should default-accept", k)
		require.False(IsValid(Fragment{Kind: k}, reject), "kind %s should defer to verifier", k)
	}
}
