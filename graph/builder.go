// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/btcsuite/btclog"
	"github.com/tomvox444/hamiltonian-crypt/drbg"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/permutation"
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

// noiseEdgeInfo is the HKDF info label for the DRBG that adds non-cycle
// edges, matching the construction pinned in spec.md §4.3.
const noiseEdgeInfo = "noise-edges"

// maxTrialMultiplier bounds the noise-edge search: trials stop after
// n*maxTrialMultiplier attempts even if the target edge count was not
// reached, per spec.md's deterministic termination requirement.
const maxTrialMultiplier = 50

// Build constructs the deterministic public graph G for a given (n,
// seedPub, sigma, dAvg): it plants sigma as a Hamiltonian cycle, then adds
// reproducible "noise" edges toward a target average degree dAvg. The
// same inputs always yield a bit-identical matrix.
func Build(n int, seedPub [32]byte, sigma []int, dAvg float64) (*BitMatrix, error) {
	if n <= 0 {
		return nil, errtax.New(errtax.InvalidSize, "n must be positive")
	}
	if len(sigma) != n || !permutation.IsBijection(sigma) {
		return nil, errtax.New(errtax.InvalidSize, "sigma must be a length-n bijection")
	}

	m, err := NewBitMatrix(n)
	if err != nil {
		return nil, err
	}

	// Plant the cycle: (sigma[i], sigma[(i+1) mod n]) for every i.
	for i := 0; i < n; i++ {
		u := sigma[i]
		v := sigma[(i+1)%n]
		m.SetEdge(u, v)
	}

	targetEdges := int(float64(n) * dAvg / 2)
	key, err := primitives.HKDF(seedPub[:], make([]byte, 32), []byte(noiseEdgeInfo), 32)
	if err != nil {
		return nil, err
	}
	var drbgKey [32]byte
	copy(drbgKey[:], key)
	rng := drbg.New(drbgKey)

	added := 0
	trials := 0
	maxTrials := n * maxTrialMultiplier
	// target - n accounts for the n cycle edges already planted.
	wantNoise := targetEdges - n

	for added < wantNoise && trials < maxTrials {
		trials++
		u, err := rng.Uniform(0, n-1)
		if err != nil {
			return nil, err
		}
		v, err := rng.Uniform(0, n-1)
		if err != nil {
			return nil, err
		}
		if u == v || m.HasEdge(u, v) {
			continue
		}
		m.SetEdge(u, v)
		added++
	}

	log.Debugf("built graph n=%d target_edges=%d noise_added=%d trials=%d", n, targetEdges, added, trials)
	return m, nil
}
