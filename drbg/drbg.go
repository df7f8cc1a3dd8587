// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package drbg implements the deterministic, rekeyable random generator
// that drives permutation derivation and graph construction. It is keyed
// by 32 bytes and emits a reproducible stream of uniformly distributed
// 32-bit integers via HMAC-SHA-256 over a monotonically increasing
// counter. It must never be used to produce secrets directly — only to
// reproduce a derivation from an already-secret key; see package
// primitives for OS randomness.
package drbg

import (
	"encoding/binary"
	"math"

	"github.com/btcsuite/btclog"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/primitives"
)

// log is the package logger, disabled until a caller installs a backend
// via UseLogger. See package logging for the wiring convention.
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

// DRBG is a single-owner, non-thread-safe deterministic random generator.
// Per spec.md §5, each consumer (a permutation derivation, a graph build,
// a commit engine call) owns its own DRBG instance.
type DRBG struct {
	key     [32]byte
	counter uint64
}

// New initializes a DRBG keyed by key with its counter at zero.
func New(key [32]byte) *DRBG {
	return &DRBG{key: key}
}

// Uint32 returns the first 4 bytes (big-endian) of
// HMAC-SHA-256(key, counter_be64), then increments the counter.
func (d *DRBG) Uint32() uint32 {
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], d.counter)
	d.counter++

	digest := primitives.HmacSha256(d.key[:], ctr[:])
	return binary.BigEndian.Uint32(digest[:4])
}

// Uniform returns a value sampled uniformly from [a, b] inclusive using
// rejection sampling over Uint32, so that n < 2^32 entries are unbiased.
func (d *DRBG) Uniform(a, b int) (int, error) {
	if b < a {
		return 0, errtax.New(errtax.InvalidRange, "upper bound below lower bound")
	}
	n := uint64(b-a) + 1
	if n <= 0 || n > math.MaxUint32 {
		return 0, errtax.New(errtax.InvalidRange, "range does not fit in 32 bits")
	}

	threshold := uint64(math.MaxUint32+1) / n * n
	for {
		r := uint64(d.Uint32())
		if r < threshold {
			return a + int(r%n), nil
		}
	}
}

// Bytes draws n bytes from the stream, 4 at a time via Uint32, truncating
// the final word if n is not a multiple of 4. Used by the commit engine to
// derive 16-byte row nonces.
func (d *DRBG) Bytes(n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		var word [4]byte
		binary.BigEndian.PutUint32(word[:], d.Uint32())
		remaining := n - len(out)
		if remaining >= 4 {
			out = append(out, word[:]...)
		} else {
			out = append(out, word[:remaining]...)
		}
	}
	return out
}
