// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package topology implements the peer registry the server service
// consults during handshake/client_auth and gossip: a per-address nonce
// map for in-flight handshakes, a map of authenticated peer node ids,
// and a gossip-fed address set exposing the "any" selection view.
//
// Peer selection policy itself (which peers to prefer, poldercast-style
// topology ranking) is an external collaborator per spec §1; Registry
// only holds what has already been decided and answers read queries
// about it.
package topology

import (
	"crypto/rand"
	"net"
	"sync"

	"github.com/luxfi/ids"

	"github.com/luxfi/jorm/internal/set"
)

// Address identifies a peer by its dialable network address.
type Address = string

// Registry is the actor-owned shared state spec §9's "re-architecture"
// note calls for: a single owner reached only through its own methods,
// never a lock shared across actors.
type Registry struct {
	mu sync.Mutex

	nonces  map[Address][]byte
	nodeIDs map[Address]ids.NodeID
	any     set.Set[Address]
	self    Address
}

// New constructs an empty registry; self is advertised as a bootstrap
// hint when Any has nothing else to offer.
func New(self Address) *Registry {
	return &Registry{
		nonces:  make(map[Address][]byte),
		nodeIDs: make(map[Address]ids.NodeID),
		any:     set.Of[Address](),
		self:    self,
	}
}

// GenerateAuthNonce creates and records a fresh random nonce for addr,
// to be echoed back (signed) by the peer during client_auth.
func (r *Registry) GenerateAuthNonce(addr Address) ([]byte, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.nonces[addr] = nonce
	r.mu.Unlock()

	return nonce, nil
}

// GetAuthNonce returns the nonce previously generated for addr, if any.
func (r *Registry) GetAuthNonce(addr Address) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nonce, ok := r.nonces[addr]
	return nonce, ok
}

// SetNodeID records addr as authenticated under id, and forgets its
// handshake nonce (it has served its purpose).
func (r *Registry) SetNodeID(addr Address, id ids.NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeIDs[addr] = id
	delete(r.nonces, addr)
}

// NodeID returns the authenticated node id for addr, if any.
func (r *Registry) NodeID(addr Address) (ids.NodeID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.nodeIDs[addr]
	return id, ok
}

// ObserveGossip records addresses learned via peer gossip as eligible
// for the "any" selection view.
func (r *Registry) ObserveGossip(addrs []Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.any.Add(addrs...)
}

// Any returns up to limit addresses from the gossip-fed view. If the
// view is empty, it returns self as a bootstrap hint instead, matching
// the server's peers(limit) fallback.
func (r *Registry) Any(limit int) []Address {
	r.mu.Lock()
	list := r.any.List()
	r.mu.Unlock()

	if len(list) == 0 {
		if r.self == "" {
			return nil
		}
		return []Address{r.self}
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// ParseAddress validates addr as a host:port pair before it is handed to
// the registry, matching the original's use of a resolvable SocketAddr.
func ParseAddress(addr string) (Address, error) {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	return addr, nil
}
