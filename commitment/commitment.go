// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package commitment implements the row-commitment scheme that binds a
// prover to the public graph's rows under a per-session nonce: rows can
// later be selectively opened, with both binding (SHA-256 preimage
// resistance) and hiding (a secret 128-bit nonce) properties.
package commitment

import (
	"github.com/btcsuite/btclog"
	"github.com/tomvox444/hamiltonian-crypt/drbg"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/graph"
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

// DefaultContext is the commitment context label pinned by spec.md §6's
// OPEN message field.
const DefaultContext = "row-commit"

const nonceInfo = "row-nonces"

// NonceSize is the length in bytes of a row nonce.
const NonceSize = 16

// Commit carries the per-session commitment vector and, prover-side, the
// matching nonce vector needed to open rows later.
type Commit struct {
	Commits [][32]byte
	Nonces  [][NonceSize]byte
}

// CommitRows derives per-row nonces from seedSession and produces a
// SHA-256 commitment for each row of g. The nonce key and nonce stream
// are both deterministic functions of seedSession, so a prover can
// recompute nonces to open rows without storing the full vector, though
// in practice the reference prover keeps both in memory for the session's
// lifetime.
func CommitRows(g *graph.BitMatrix, seedSession [32]byte, context string) (*Commit, error) {
	nonceKey, err := primitives.HKDF(seedSession[:], make([]byte, 32), []byte(nonceInfo), 32)
	if err != nil {
		return nil, err
	}
	var key [32]byte
	copy(key[:], nonceKey)
	rng := drbg.New(key)

	n := g.N()
	out := &Commit{
		Commits: make([][32]byte, n),
		Nonces:  make([][NonceSize]byte, n),
	}

	for i := 0; i < n; i++ {
		nonce := rng.Bytes(NonceSize)
		copy(out.Nonces[i][:], nonce)
		out.Commits[i] = primitives.Sha256(g.Row(i), nonce, []byte(context))
	}

	log.Debugf("committed %d rows under context %q", n, context)
	return out, nil
}

// Verify recomputes SHA-256(row || nonce || context) and compares it
// against want, returning a CommitMismatch error on any difference. It
// does not know about row indices; callers attach the index when wrapping
// the error for reporting.
func Verify(row []byte, nonce [NonceSize]byte, context string, want [32]byte) error {
	got := primitives.Sha256(row, nonce[:], []byte(context))
	if got != want {
		return errtax.New(errtax.CommitMismatch, "row hash does not match commitment")
	}
	return nil
}
