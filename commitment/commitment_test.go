// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commitment

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomvox444/hamiltonian-crypt/graph"
	"github.com/tomvox444/hamiltonian-crypt/permutation"
)

func seedOf(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

// TestCommitRoundTrip covers invariant 5: recomputed hash matches the
// commitment produced by CommitRows exactly.
func TestCommitRoundTrip(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")
	sess := seedOf("s")

	sigma, err := permutation.Derive(8, client, pub, permutation.DefaultContext)
	require.NoError(t, err)
	g, err := graph.Build(8, pub, sigma, 3.0)
	require.NoError(t, err)

	commit, err := CommitRows(g, sess, DefaultContext)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		err := Verify(g.Row(i), commit.Nonces[i], DefaultContext, commit.Commits[i])
		require.NoError(t, err)
	}
}

func TestCommitDetectsTamperedRow(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")
	sess := seedOf("s")

	sigma, err := permutation.Derive(8, client, pub, permutation.DefaultContext)
	require.NoError(t, err)
	g, err := graph.Build(8, pub, sigma, 3.0)
	require.NoError(t, err)

	commit, err := CommitRows(g, sess, DefaultContext)
	require.NoError(t, err)

	tampered := append([]byte(nil), g.Row(0)...)
	tampered[0] ^= 0xFF

	err = Verify(tampered, commit.Nonces[0], DefaultContext, commit.Commits[0])
	require.Error(t, err)
}

func TestCommitDetectsBadNonce(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")
	sess := seedOf("s")

	sigma, err := permutation.Derive(8, client, pub, permutation.DefaultContext)
	require.NoError(t, err)
	g, err := graph.Build(8, pub, sigma, 3.0)
	require.NoError(t, err)

	commit, err := CommitRows(g, sess, DefaultContext)
	require.NoError(t, err)

	var badNonce [NonceSize]byte
	copy(badNonce[:], []byte("0123456789abcdef"))
	if badNonce == commit.Nonces[0] {
		badNonce[0] ^= 0xFF
	}

	err = Verify(g.Row(0), badNonce, DefaultContext, commit.Commits[0])
	require.Error(t, err)
}

// TestS1FirstCommitReproducible reproduces spec.md's S1 scenario: the
// first row commitment must be byte-for-byte reproducible across runs.
func TestS1FirstCommitReproducible(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")
	sess := seedOf("s")

	sigma, err := permutation.Derive(8, client, pub, permutation.DefaultContext)
	require.NoError(t, err)
	g, err := graph.Build(8, pub, sigma, 3.0)
	require.NoError(t, err)

	c1, err := CommitRows(g, sess, DefaultContext)
	require.NoError(t, err)
	c2, err := CommitRows(g, sess, DefaultContext)
	require.NoError(t, err)

	require.Equal(t, c1.Commits[0], c2.Commits[0])
}
