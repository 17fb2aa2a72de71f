// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vote

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// rangeJSON mirrors serde's default encoding of a Rust Range<u8>: a
// half-open [start, end) interval.
type rangeJSON struct {
	Start uint8 `json:"start"`
	End   uint8 `json:"end"`
}

func encodeHash(b [32]byte) string { return hex.EncodeToString(b[:]) }

func decodeHash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("hash must be %d bytes, got %d", len(out), len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// MarshalJSON renders a VotePlanStatus the way jormungandr's REST API
// does: bech32 committee keys, hex ids, snake_case field names.
func (v VotePlanStatus) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(v.CommitteeMemberKeys))
	for i, k := range v.CommitteeMemberKeys {
		s, _, err := EncodeMemberPublicKey(k, Human)
		if err != nil {
			return nil, fmt.Errorf("encode committee member key %d: %w", i, err)
		}
		keys[i] = s
	}

	wire := struct {
		ID                  string               `json:"id"`
		Payload             string               `json:"payload"`
		VoteStart           BlockDate            `json:"vote_start"`
		VoteEnd             BlockDate            `json:"vote_end"`
		CommitteeEnd        BlockDate            `json:"committee_end"`
		CommitteeMemberKeys []string             `json:"committee_member_keys"`
		Proposals           []VoteProposalStatus `json:"proposals"`
	}{
		ID:                  encodeHash(v.ID),
		Payload:             v.Payload.String(),
		VoteStart:           v.VoteStart,
		VoteEnd:             v.VoteEnd,
		CommitteeEnd:        v.CommitteeEnd,
		CommitteeMemberKeys: keys,
		Proposals:           v.Proposals,
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses the wire format produced by MarshalJSON.
func (v *VotePlanStatus) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID                  string               `json:"id"`
		Payload             string               `json:"payload"`
		VoteStart           BlockDate            `json:"vote_start"`
		VoteEnd             BlockDate            `json:"vote_end"`
		CommitteeEnd        BlockDate            `json:"committee_end"`
		CommitteeMemberKeys []string             `json:"committee_member_keys"`
		Proposals           []VoteProposalStatus `json:"proposals"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	id, err := decodeHash(wire.ID)
	if err != nil {
		return fmt.Errorf("vote plan id: %w", err)
	}

	var payload PayloadType
	switch wire.Payload {
	case "public":
		payload = PayloadTypePublic
	case "private":
		payload = PayloadTypePrivate
	default:
		return fmt.Errorf("unknown vote plan payload type %q", wire.Payload)
	}

	keys := make([]MemberPublicKey, len(wire.CommitteeMemberKeys))
	for i, s := range wire.CommitteeMemberKeys {
		k, err := DecodeMemberPublicKeyHuman(s)
		if err != nil {
			return fmt.Errorf("committee member key %d: %w", i, err)
		}
		keys[i] = k
	}

	v.ID = id
	v.Payload = payload
	v.VoteStart = wire.VoteStart
	v.VoteEnd = wire.VoteEnd
	v.CommitteeEnd = wire.CommitteeEnd
	v.CommitteeMemberKeys = keys
	v.Proposals = wire.Proposals
	return nil
}

// MarshalJSON renders a VotePlan Proposal the way the REST submission
// format does: a hex external id, an integer option count, and a
// snake_case-tagged action. VoteAction's nested Treasury/Parameters
// payload is flattened to its lovelace-equivalent value, mirroring the
// flattened VoteAction Go type rather than the original's separate
// TreasuryGovernanceAction/ParametersGovernanceAction wrapper enums.
func (p Proposal) MarshalJSON() ([]byte, error) {
	idStr, _ := EncodeExternalProposalID(p.ExternalID, Human)

	var action json.RawMessage
	var err error
	switch p.Action.Kind {
	case VoteActionOffChain:
		action = json.RawMessage(`"off_chain"`)
	case VoteActionTreasury:
		action, err = json.Marshal(struct {
			Treasury struct {
				Value uint64 `json:"value"`
			} `json:"treasury"`
		}{Treasury: struct {
			Value uint64 `json:"value"`
		}{Value: p.Action.ValueLovel}})
	case VoteActionParameters:
		action, err = json.Marshal(struct {
			Parameters struct {
				Value uint64 `json:"value"`
			} `json:"parameters"`
		}{Parameters: struct {
			Value uint64 `json:"value"`
		}{Value: p.Action.ValueLovel}})
	default:
		return nil, fmt.Errorf("unknown vote action kind %d", p.Action.Kind)
	}
	if err != nil {
		return nil, err
	}

	wire := struct {
		ExternalID string          `json:"external_id"`
		Options    int             `json:"options"`
		Action     json.RawMessage `json:"action"`
	}{
		ExternalID: idStr,
		Options:    p.Options.Len(),
		Action:     action,
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses the wire format produced by MarshalJSON.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	var wire struct {
		ExternalID string          `json:"external_id"`
		Options    uint64          `json:"options"`
		Action     json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	id, err := DecodeExternalProposalIDHuman(wire.ExternalID)
	if err != nil {
		return fmt.Errorf("external proposal id: %w", err)
	}
	opts, err := DecodeOptions(wire.Options)
	if err != nil {
		return fmt.Errorf("proposal options: %w", err)
	}

	var unitTag string
	var action VoteAction
	if err := json.Unmarshal(wire.Action, &unitTag); err == nil {
		if unitTag != "off_chain" {
			return fmt.Errorf("unknown vote action %q", unitTag)
		}
		action = VoteAction{Kind: VoteActionOffChain}
	} else {
		var tagged struct {
			Treasury *struct {
				Value uint64 `json:"value"`
			} `json:"treasury"`
			Parameters *struct {
				Value uint64 `json:"value"`
			} `json:"parameters"`
		}
		if err := json.Unmarshal(wire.Action, &tagged); err != nil {
			return fmt.Errorf("vote action: %w", err)
		}
		switch {
		case tagged.Treasury != nil:
			action = VoteAction{Kind: VoteActionTreasury, ValueLovel: tagged.Treasury.Value}
		case tagged.Parameters != nil:
			action = VoteAction{Kind: VoteActionParameters, ValueLovel: tagged.Parameters.Value}
		default:
			return fmt.Errorf("vote action JSON has neither treasury nor parameters variant")
		}
	}

	p.ExternalID = id
	p.Options = opts
	p.Action = action
	return nil
}

// MarshalJSON renders a single proposal's status, hex external id and an
// explicit [start, end) options range.
func (p VoteProposalStatus) MarshalJSON() ([]byte, error) {
	idStr, _ := EncodeExternalProposalID(p.ProposalID, Human)
	wire := struct {
		Index      uint8     `json:"index"`
		ProposalID string    `json:"proposal_id"`
		Options    rangeJSON `json:"options"`
		Tally      *Tally    `json:"tally"`
		VotesCast  int       `json:"votes_cast"`
	}{
		Index:      p.Index,
		ProposalID: idStr,
		Options:    rangeJSON{Start: p.ChoiceStart, End: p.ChoiceEnd},
		Tally:      p.Tally,
		VotesCast:  p.VotesCast,
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses the wire format produced by MarshalJSON.
func (p *VoteProposalStatus) UnmarshalJSON(data []byte) error {
	var wire struct {
		Index      uint8     `json:"index"`
		ProposalID string    `json:"proposal_id"`
		Options    rangeJSON `json:"options"`
		Tally      *Tally    `json:"tally"`
		VotesCast  int       `json:"votes_cast"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	id, err := DecodeExternalProposalIDHuman(wire.ProposalID)
	if err != nil {
		return fmt.Errorf("proposal id: %w", err)
	}

	p.Index = wire.Index
	p.ProposalID = id
	p.ChoiceStart = wire.Options.Start
	p.ChoiceEnd = wire.Options.End
	p.Tally = wire.Tally
	p.VotesCast = wire.VotesCast
	return nil
}

// MarshalJSON renders a Tally as the externally tagged enum serde
// produces with no rename_all attribute: {"Public": {...}} or
// {"Private": {...}}.
func (t Tally) MarshalJSON() ([]byte, error) {
	switch {
	case t.Public != nil:
		return json.Marshal(struct {
			Public struct {
				Result TallyResult `json:"result"`
			} `json:"Public"`
		}{Public: struct {
			Result TallyResult `json:"result"`
		}{Result: *t.Public}})
	case t.Private != nil:
		return json.Marshal(struct {
			Private struct {
				State PrivateTallyState `json:"state"`
			} `json:"Private"`
		}{Private: struct {
			State PrivateTallyState `json:"state"`
		}{State: *t.Private}})
	default:
		return nil, fmt.Errorf("vote: tally has neither a public nor a private result")
	}
}

// UnmarshalJSON parses the wire format produced by MarshalJSON.
func (t *Tally) UnmarshalJSON(data []byte) error {
	var wire struct {
		Public *struct {
			Result TallyResult `json:"result"`
		} `json:"Public"`
		Private *struct {
			State PrivateTallyState `json:"state"`
		} `json:"Private"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Public != nil:
		result := wire.Public.Result
		t.Public = &result
		t.Private = nil
	case wire.Private != nil:
		state := wire.Private.State
		t.Private = &state
		t.Public = nil
	default:
		return fmt.Errorf("vote: tally JSON has neither a Public nor a Private variant")
	}
	return nil
}

// MarshalJSON renders a TallyResult's per-option weight vector and
// [start, end) choice range.
func (r TallyResult) MarshalJSON() ([]byte, error) {
	wire := struct {
		Results []uint64  `json:"results"`
		Options rangeJSON `json:"options"`
	}{
		Results: r.Results,
		Options: rangeJSON{Start: r.ChoiceStart, End: r.ChoiceEnd},
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses the wire format produced by MarshalJSON.
func (r *TallyResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Results []uint64  `json:"results"`
		Options rangeJSON `json:"options"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Results = wire.Results
	r.ChoiceStart = wire.Options.Start
	r.ChoiceEnd = wire.Options.End
	return nil
}

// MarshalJSON renders a PrivateTallyState as {"Encrypted": {...}} or
// {"Decrypted": {...}}, base64-encoding the encrypted accumulator.
func (s PrivateTallyState) MarshalJSON() ([]byte, error) {
	switch {
	case s.Encrypted != nil:
		tallyStr, _ := EncodeBytesBlob(s.Encrypted.EncryptedTally.Bytes, Human)
		return json.Marshal(struct {
			Encrypted struct {
				EncryptedTally string `json:"encrypted_tally"`
				TotalStake     uint64 `json:"total_stake"`
			} `json:"Encrypted"`
		}{Encrypted: struct {
			EncryptedTally string `json:"encrypted_tally"`
			TotalStake     uint64 `json:"total_stake"`
		}{EncryptedTally: tallyStr, TotalStake: s.Encrypted.TotalStake}})
	case s.DecryptedResult != nil:
		return json.Marshal(struct {
			Decrypted struct {
				Result TallyResult `json:"result"`
			} `json:"Decrypted"`
		}{Decrypted: struct {
			Result TallyResult `json:"result"`
		}{Result: *s.DecryptedResult}})
	default:
		return nil, fmt.Errorf("vote: private tally state is neither encrypted nor decrypted")
	}
}

// UnmarshalJSON parses the wire format produced by MarshalJSON.
func (s *PrivateTallyState) UnmarshalJSON(data []byte) error {
	var wire struct {
		Encrypted *struct {
			EncryptedTally string `json:"encrypted_tally"`
			TotalStake     uint64 `json:"total_stake"`
		} `json:"Encrypted"`
		Decrypted *struct {
			Result TallyResult `json:"result"`
		} `json:"Decrypted"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Encrypted != nil:
		raw, err := DecodeBytesBlobHuman(wire.Encrypted.EncryptedTally)
		if err != nil {
			return fmt.Errorf("encrypted tally: %w", err)
		}
		s.Encrypted = &EncryptedTallyState{
			EncryptedTally: EncryptedTally{Bytes: raw},
			TotalStake:     wire.Encrypted.TotalStake,
		}
		s.DecryptedResult = nil
	case wire.Decrypted != nil:
		result := wire.Decrypted.Result
		s.DecryptedResult = &result
		s.Encrypted = nil
	default:
		return fmt.Errorf("vote: private tally state JSON has neither Encrypted nor Decrypted")
	}
	return nil
}

// MarshalJSON renders a ballot Payload as {"Public": {"choice": n}} or
// {"Private": {"encrypted_vote": "...", "proof": "..."}}, base64-encoding
// the private fields.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsPublic() {
		return json.Marshal(struct {
			Public struct {
				Choice uint8 `json:"choice"`
			} `json:"Public"`
		}{Public: struct {
			Choice uint8 `json:"choice"`
		}{Choice: *p.Choice}})
	}
	voteStr, _ := EncodeBytesBlob(p.EncryptedVote, Human)
	proofStr, _ := EncodeBytesBlob(p.Proof, Human)
	return json.Marshal(struct {
		Private struct {
			EncryptedVote string `json:"encrypted_vote"`
			Proof         string `json:"proof"`
		} `json:"Private"`
	}{Private: struct {
		EncryptedVote string `json:"encrypted_vote"`
		Proof         string `json:"proof"`
	}{EncryptedVote: voteStr, Proof: proofStr}})
}

// UnmarshalJSON parses the wire format produced by MarshalJSON.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var wire struct {
		Public *struct {
			Choice uint8 `json:"choice"`
		} `json:"Public"`
		Private *struct {
			EncryptedVote string `json:"encrypted_vote"`
			Proof         string `json:"proof"`
		} `json:"Private"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Public != nil:
		choice := wire.Public.Choice
		p.Choice = &choice
		p.EncryptedVote = nil
		p.Proof = nil
	case wire.Private != nil:
		vote, err := DecodeBytesBlobHuman(wire.Private.EncryptedVote)
		if err != nil {
			return fmt.Errorf("encrypted vote: %w", err)
		}
		proof, err := DecodeBytesBlobHuman(wire.Private.Proof)
		if err != nil {
			return fmt.Errorf("vote proof: %w", err)
		}
		p.Choice = nil
		p.EncryptedVote = vote
		p.Proof = proof
	default:
		return fmt.Errorf("vote: payload JSON has neither Public nor Private variant")
	}
	return nil
}
