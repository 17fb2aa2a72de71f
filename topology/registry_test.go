// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package topology

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestAuthNonceLifecycle(t *testing.T) {
	require := require.New(t)

	r := New("127.0.0.1:9000")
	nonce, err := r.GenerateAuthNonce("10.0.0.1:9000")
	require.NoError(err)
	require.Len(nonce, 32)

	got, ok := r.GetAuthNonce("10.0.0.1:9000")
	require.True(ok)
	require.Equal(nonce, got)

	r.SetNodeID("10.0.0.1:9000", ids.GenerateTestNodeID())
	_, ok = r.GetAuthNonce("10.0.0.1:9000")
	require.False(ok, "nonce is forgotten once authenticated")
}

func TestAnyFallsBackToSelfWhenEmpty(t *testing.T) {
	require := require.New(t)

	r := New("127.0.0.1:9000")
	require.Equal([]string{"127.0.0.1:9000"}, r.Any(5))

	r.ObserveGossip([]string{"10.0.0.1:9000", "10.0.0.2:9000"})
	got := r.Any(1)
	require.Len(got, 1)
}

func TestParseAddressRejectsMissingPort(t *testing.T) {
	require := require.New(t)

	_, err := ParseAddress("not-an-address")
	require.Error(err)

	addr, err := ParseAddress("10.0.0.1:9000")
	require.NoError(err)
	require.Equal("10.0.0.1:9000", addr)
}
