// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package permutation derives the secret cyclic permutation sigma that
// the prover holds as its witness. Derivation is deterministic: the same
// (n, seed_client, seed_pub, context) always yields the same sigma, in
// any conformant implementation, which is what lets sigma be recomputed
// on demand instead of persisted.
package permutation

import (
	"github.com/btcsuite/btclog"
	"github.com/tomvox444/hamiltonian-crypt/drbg"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/primitives"
)

var log btclog.Logger

func init() {
	DisableLog()
}

// UseLogger installs logger as the output for this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// DisableLog disables all logging output for this package.
func DisableLog() {
	log = btclog.Disabled
}

// DefaultContext is the HKDF info string used when the caller has no
// reason to pick another.
const DefaultContext = "ham-perm"

// DeriveKey computes the 32-byte DRBG key for permutation derivation:
// HKDF-Extract(salt=seedPub, ikm=seedClient) then HKDF-Expand(prk,
// context, 32).
func DeriveKey(seedClient, seedPub [32]byte, context string) ([32]byte, error) {
	prk := primitives.HKDFExtract(seedPub[:], seedClient[:])
	expanded, err := primitives.HKDFExpand(prk, []byte(context), 32)
	if err != nil {
		return [32]byte{}, err
	}
	var key [32]byte
	copy(key[:], expanded)
	return key, nil
}

// Derive returns sigma, a length-n permutation of {0,...,n-1}, built by a
// Fisher-Yates shuffle of the identity permutation driven by a DRBG keyed
// from (seedClient, seedPub, context). Identical inputs always yield an
// identical sigma.
func Derive(n int, seedClient, seedPub [32]byte, context string) ([]int, error) {
	if n <= 0 {
		return nil, errtax.New(errtax.InvalidSize, "n must be positive")
	}

	key, err := DeriveKey(seedClient, seedPub, context)
	if err != nil {
		return nil, err
	}

	rng := drbg.New(key)
	sigma := make([]int, n)
	for i := range sigma {
		sigma[i] = i
	}

	for i := n - 1; i > 0; i-- {
		j, err := rng.Uniform(0, i)
		if err != nil {
			return nil, err
		}
		sigma[i], sigma[j] = sigma[j], sigma[i]
	}

	log.Debugf("derived permutation of length %d", n)
	return sigma, nil
}

// IsBijection reports whether perm is a permutation of {0,...,len(perm)-1}:
// every value in range, each appearing exactly once. Used by tests and by
// callers that load sigma from an untrusted source.
func IsBijection(perm []int) bool {
	n := len(perm)
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
