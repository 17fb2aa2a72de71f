// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"github.com/luxfi/jorm/fragment"
)

// LedgerSimulator is the external ledger collaborator's simulation seam
// (spec §1: "the ledger executor, a pure function over (Ledger,
// Fragment) -> Result"). Apply must not mutate the ledger it was given;
// it returns the ledger state to continue simulating from, or an error
// describing why the fragment does not apply.
type LedgerSimulator interface {
	Apply(date fragment.BlockDate, f fragment.Fragment) (next LedgerSimulator, err error)
}

// Contents is the packed set of fragments selected for inclusion in a
// block, in selection order.
type Contents struct {
	Fragments []fragment.Fragment
}

// SelectionAlgorithm names the block-content selection strategy. Only
// OldestFirst is specified.
type SelectionAlgorithm int

const (
	OldestFirst SelectionAlgorithm = iota
)

// BlockBudget tracks remaining block capacity during selection. Fits
// reports whether f can still be packed given what has already been
// consumed; Consume records f's contribution once it is packed.
type BlockBudget interface {
	Fits(f fragment.Fragment) bool
	Consume(f fragment.Fragment)
}

// byteBudget is the simplest BlockBudget: a fixed byte ceiling over
// fragment payloads.
type byteBudget struct {
	remaining int
}

// NewByteBudget returns a BlockBudget that admits fragments until their
// cumulative payload size would exceed maxBytes.
func NewByteBudget(maxBytes int) BlockBudget {
	return &byteBudget{remaining: maxBytes}
}

func (b *byteBudget) Fits(f fragment.Fragment) bool {
	return len(f.Payload) <= b.remaining
}

func (b *byteBudget) Consume(f fragment.Fragment) {
	b.remaining -= len(f.Payload)
}

// oldestFirstSelect walks entries from LRU-oldest to LRU-newest,
// simulating each against the evolving ledger. Fragments that apply are
// packed into Contents and the simulated ledger advances; fragments that
// fail are marked Rejected in the log and evicted from the pool. Stops
// once budget is exhausted or entries are exhausted.
func oldestFirstSelect(
	pool *internalPool,
	logs *fragment.Logs,
	ledger LedgerSimulator,
	date fragment.BlockDate,
	budget BlockBudget,
) Contents {
	var contents Contents
	for _, f := range pool.oldestFirst() {
		if budget != nil && !budget.Fits(f) {
			break
		}

		id := fragment.IDOf(f)
		next, err := ledger.Apply(date, f)
		if err != nil {
			logs.ModifyAll([]fragment.ID{id}, fragment.RejectedStatus(err.Error()))
			pool.removeAll([]fragment.ID{id})
			continue
		}
		ledger = next
		if budget != nil {
			budget.Consume(f)
		}
		contents.Fragments = append(contents.Fragments, f)
	}
	return contents
}
