// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
)

func TestConnectErrorFormatsBlock0Mismatch(t *testing.T) {
	require := require.New(t)

	expected := ids.GenerateTestID()
	got := ids.GenerateTestID()
	err := &ConnectError{Kind: ErrBlock0Mismatch, Expected: expected, Got: got}

	require.Contains(err.Error(), "block0 mismatch")
	require.Contains(err.Error(), expected.String())
	require.Contains(err.Error(), got.String())
}

func TestConnectErrorUnwrapsUnderlyingError(t *testing.T) {
	require := require.New(t)

	inner := errors.New("boom")
	err := &ConnectError{Kind: ErrTransport, Err: inner}

	require.ErrorIs(err, inner)
}
