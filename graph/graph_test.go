// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package graph

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomvox444/hamiltonian-crypt/permutation"
	"pgregory.net/rapid"
)

func seedOf(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

func identitySigma(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

// TestBuildDeterministic covers invariant 2: identical inputs yield
// bit-identical matrices.
func TestBuildDeterministic(t *testing.T) {
	sigma := identitySigma(16)
	pub := seedOf("pub")

	g1, err := Build(16, pub, sigma, 3.0)
	require.NoError(t, err)
	g2, err := Build(16, pub, sigma, 3.0)
	require.NoError(t, err)

	for i := 0; i < 16; i++ {
		require.True(t, bytes.Equal(g1.Row(i), g2.Row(i)), "row %d differs", i)
	}
}

// TestBuildPlantsCycle covers invariant 3.
func TestBuildPlantsCycle(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		n := rapid.IntRange(3, 40).Draw(tt, "n")
		client := seedOf(rapid.StringN(1, 12, -1).Draw(tt, "client"))
		pub := seedOf(rapid.StringN(1, 12, -1).Draw(tt, "pub"))

		sigma, err := permutation.Derive(n, client, pub, permutation.DefaultContext)
		require.NoError(tt, err)

		g, err := Build(n, pub, sigma, 4.0)
		require.NoError(tt, err)

		for i := 0; i < n; i++ {
			u := sigma[i]
			v := sigma[(i+1)%n]
			if !g.HasEdge(u, v) {
				tt.Fatalf("missing planted cycle edge (%d,%d)", u, v)
			}
		}
	})
}

// TestBuildSymmetryAndNoSelfLoops covers invariant 4.
func TestBuildSymmetryAndNoSelfLoops(t *testing.T) {
	sigma := identitySigma(24)
	pub := seedOf("pub")

	g, err := Build(24, pub, sigma, 5.0)
	require.NoError(t, err)
	require.True(t, g.IsSymmetric())
	require.True(t, g.HasZeroDiagonal())
}

func TestBuildRejectsBadSigma(t *testing.T) {
	pub := seedOf("pub")
	_, err := Build(8, pub, []int{0, 1, 2}, 3.0)
	require.Error(t, err)

	_, err = Build(8, pub, []int{0, 0, 1, 2, 3, 4, 5, 6}, 3.0)
	require.Error(t, err)
}

func TestWriteToReadBitMatrixRoundTrip(t *testing.T) {
	sigma := identitySigma(20)
	pub := seedOf("pub")

	g, err := Build(20, pub, sigma, 3.0)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = g.WriteTo(&buf)
	require.NoError(t, err)

	g2, err := ReadBitMatrix(&buf)
	require.NoError(t, err)
	require.Equal(t, g.N(), g2.N())
	for i := 0; i < g.N(); i++ {
		require.True(t, bytes.Equal(g.Row(i), g2.Row(i)))
	}
}

// TestS1TinyDeterministicGraph reproduces spec.md's S1 scenario.
func TestS1TinyDeterministicGraph(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")

	sigma, err := permutation.Derive(8, client, pub, permutation.DefaultContext)
	require.NoError(t, err)

	g, err := Build(8, pub, sigma, 3.0)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		u := sigma[i]
		v := sigma[(i+1)%8]
		require.True(t, g.HasEdge(u, v))
	}
}
