// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package permutation

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func seedOf(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

// TestDeriveDeterminism covers invariant 1: same inputs, same sigma.
func TestDeriveDeterminism(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(tt, "n")
		client := seedOf(rapid.StringN(1, 16, -1).Draw(tt, "client"))
		pub := seedOf(rapid.StringN(1, 16, -1).Draw(tt, "pub"))

		s1, err1 := Derive(n, client, pub, DefaultContext)
		s2, err2 := Derive(n, client, pub, DefaultContext)
		require.NoError(tt, err1)
		require.NoError(tt, err2)
		require.Equal(tt, s1, s2)
		if !IsBijection(s1) {
			tt.Fatalf("sigma is not a bijection: %v", s1)
		}
	})
}

func TestDeriveRejectsNonPositiveN(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")

	_, err := Derive(0, client, pub, DefaultContext)
	require.Error(t, err)

	_, err = Derive(-5, client, pub, DefaultContext)
	require.Error(t, err)
}

// TestDeriveDiffersByContext ensures the context string is actually bound
// into derivation so that reusing the same seeds for a different purpose
// does not leak sigma.
func TestDeriveDiffersByContext(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")

	s1, err := Derive(32, client, pub, "ham-perm")
	require.NoError(t, err)
	s2, err := Derive(32, client, pub, "other-context")
	require.NoError(t, err)

	require.NotEqual(t, s1, s2)
}

// TestS1TinyDeterministicGraph reproduces the scenario from spec.md S1's
// permutation-derivation leg: n=8 with fixed seeds must be a bijection.
func TestS1TinyDeterministicGraph(t *testing.T) {
	client := seedOf("c")
	pub := seedOf("p")

	sigma, err := Derive(8, client, pub, DefaultContext)
	require.NoError(t, err)
	require.Len(t, sigma, 8)
	require.True(t, IsBijection(sigma))
}
