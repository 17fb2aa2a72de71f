// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vote

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePlanStatus() VotePlanStatus {
	var id, proposalID [32]byte
	for i := range id {
		id[i] = byte(i)
	}
	for i := range proposalID {
		proposalID[i] = byte(0xA0 + i%16)
	}

	return VotePlanStatus{
		ID:           id,
		Payload:      PayloadTypePublic,
		VoteStart:    BlockDate{Epoch: 1, Slot: 0},
		VoteEnd:      BlockDate{Epoch: 2, Slot: 0},
		CommitteeEnd: BlockDate{Epoch: 3, Slot: 0},
		CommitteeMemberKeys: []MemberPublicKey{
			NewMemberPublicKey(fixedLengthKeyBytes()),
		},
		Proposals: []VoteProposalStatus{
			{
				Index:       0,
				ProposalID:  ExternalProposalID(proposalID),
				ChoiceStart: 0,
				ChoiceEnd:   2,
				Tally: &Tally{
					Public: &TallyResult{
						Results:     []uint64{10, 20},
						ChoiceStart: 0,
						ChoiceEnd:   2,
					},
				},
				VotesCast: 30,
			},
			{
				Index:       1,
				ProposalID:  ExternalProposalID(proposalID),
				ChoiceStart: 0,
				ChoiceEnd:   1,
				Tally:       nil,
				VotesCast:   0,
			},
		},
	}
}

func TestVotePlanStatusJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	want := samplePlanStatus()

	data, err := json.Marshal(want)
	require.NoError(err)
	require.Contains(string(data), `"committee_member_keys"`)
	require.Contains(string(data), MemberPublicKeyHRP)

	var got VotePlanStatus
	require.NoError(json.Unmarshal(data, &got))
	require.Equal(want, got)
}

func TestVotePlanStatusJSONRejectsUnknownPayload(t *testing.T) {
	require := require.New(t)

	zeroID := `0000000000000000000000000000000000000000000000000000000000000000`[:64]
	raw := []byte(`{"id":"` + zeroID + `","payload":"quantum","vote_start":{"epoch":0,"slot":0},"vote_end":{"epoch":0,"slot":0},"committee_end":{"epoch":0,"slot":0},"committee_member_keys":[],"proposals":[]}`)
	var got VotePlanStatus
	require.Error(json.Unmarshal(raw, &got))
}

func TestProposalJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	opts, err := NewOptions(3)
	require.NoError(err)

	var extID ExternalProposalID
	for i := range extID {
		extID[i] = byte(i)
	}

	cases := []Proposal{
		{ExternalID: extID, Options: opts, Action: VoteAction{Kind: VoteActionOffChain}},
		{ExternalID: extID, Options: opts, Action: VoteAction{Kind: VoteActionTreasury, ValueLovel: 500}},
		{ExternalID: extID, Options: opts, Action: VoteAction{Kind: VoteActionParameters, ValueLovel: 7}},
	}

	for _, want := range cases {
		data, err := json.Marshal(want)
		require.NoError(err)
		require.Contains(string(data), `"external_id"`)

		var got Proposal
		require.NoError(json.Unmarshal(data, &got))
		require.Equal(want, got)
	}
}

func TestProposalJSONRejectsUnknownAction(t *testing.T) {
	require := require.New(t)

	raw := []byte(`{"external_id":"0000000000000000000000000000000000000000000000000000000000000000","options":2,"action":"warp_drive"}`)
	var got Proposal
	require.Error(json.Unmarshal(raw, &got))
}

func TestTallyJSONRoundTripPublicAndPrivate(t *testing.T) {
	require := require.New(t)

	pub := Tally{Public: &TallyResult{Results: []uint64{1, 2, 3}, ChoiceStart: 0, ChoiceEnd: 3}}
	data, err := json.Marshal(pub)
	require.NoError(err)
	require.Contains(string(data), `"Public"`)

	var gotPub Tally
	require.NoError(json.Unmarshal(data, &gotPub))
	require.Equal(pub, gotPub)

	priv := Tally{Private: &PrivateTallyState{
		Encrypted: &EncryptedTallyState{
			EncryptedTally: EncryptedTally{Bytes: []byte{0xde, 0xad, 0xbe, 0xef}},
			TotalStake:     1000,
		},
	}}
	data, err = json.Marshal(priv)
	require.NoError(err)
	require.Contains(string(data), `"Private"`)
	require.Contains(string(data), `"encrypted_tally"`)

	var gotPriv Tally
	require.NoError(json.Unmarshal(data, &gotPriv))
	require.Equal(priv, gotPriv)
}

func TestPayloadJSONRoundTripPublicAndPrivate(t *testing.T) {
	require := require.New(t)

	choice := uint8(4)
	pub := Payload{Choice: &choice}
	data, err := json.Marshal(pub)
	require.NoError(err)

	var gotPub Payload
	require.NoError(json.Unmarshal(data, &gotPub))
	require.Equal(pub, gotPub)

	priv := Payload{EncryptedVote: []byte{1, 2, 3}, Proof: []byte{4, 5, 6}}
	data, err = json.Marshal(priv)
	require.NoError(err)
	require.Contains(string(data), `"encrypted_vote"`)
	require.Contains(string(data), `"proof"`)

	var gotPriv Payload
	require.NoError(json.Unmarshal(data, &gotPriv))
	require.Equal(priv, gotPriv)
}
