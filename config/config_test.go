// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, extra, err := Parse([]string{"prove"})
	require.NoError(t, err)
	require.Equal(t, []string{"prove"}, extra)
	require.Equal(t, defaultRounds, cfg.Rounds)
	require.Equal(t, filepath.Join(cfg.HomeDir, defaultSeedFilename), cfg.SeedPath)
}

func TestParseOverridesHomeDirPropagatesToPaths(t *testing.T) {
	cfg, _, err := Parse([]string{"--homedir", "/tmp/hamzkp-test", "prove"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/hamzkp-test/seed", cfg.SeedPath)
	require.Equal(t, "/tmp/hamzkp-test/mailbox", cfg.MailboxDir)
}

func TestParseRejectsNonPositiveRounds(t *testing.T) {
	_, _, err := Parse([]string{"--rounds", "0", "prove"})
	require.Error(t, err)
}

func TestParseRejectsBadLogLevel(t *testing.T) {
	_, _, err := Parse([]string{"--loglevel", "deafening", "prove"})
	require.Error(t, err)
}

func TestParseRejectsNonPowerOfTwoScryptN(t *testing.T) {
	_, _, err := Parse([]string{"--scryptn", "100000", "prove"})
	require.Error(t, err)
}
