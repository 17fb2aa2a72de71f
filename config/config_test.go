// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaultsForUnsetFields(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(os.WriteFile(path, []byte("block0_hash: genesis-pin-0001\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(err)
	require.Equal("genesis-pin-0001", cfg.Block0Hash)
	require.Equal(Default().ListenAddress, cfg.ListenAddress)
	require.Equal(10_000, cfg.Mempool.MaxEntries)
}

func TestBlock0IDRejectsEmptyHash(t *testing.T) {
	require := require.New(t)

	_, err := Config{}.Block0ID()
	require.Error(err)
}

func TestBlock0IDDecodesPaddedHash(t *testing.T) {
	require := require.New(t)

	id, err := Config{Block0Hash: "genesis"}.Block0ID()
	require.NoError(err)
	require.NotEqual([32]byte{}, [32]byte(id))
}
