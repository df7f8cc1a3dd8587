// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identity implements the optional session identity binding
// layer: a long-lived BIP-340 Schnorr keypair a prover can use to sign its
// COMMITS transcript, and a pubkey allowlist a verifier can check it
// against. This is additive to the zero-knowledge protocol itself — a
// verifier configured without an allowlist skips it entirely — and exists
// to bind a COMMITS message to a specific long-term prover identity, which
// the base protocol otherwise leaves unauthenticated.
package identity

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btclog"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
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

// KeyPair is a prover's long-lived identity keypair.
type KeyPair struct {
	Priv *btcec.PrivateKey
	Pub  *btcec.PublicKey
}

// Generate creates a fresh identity keypair from the OS CSPRNG.
func Generate() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, errtax.New(errtax.IoError, "identity key generation: "+err.Error())
	}
	log.Debugf("generated identity keypair")
	return &KeyPair{Priv: priv, Pub: priv.PubKey()}, nil
}

// TranscriptDigest computes the message signed over a session's COMMITS:
// SHA-256(session || commit_1 || ... || commit_n).
func TranscriptDigest(session string, commits [][32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(session))
	for _, c := range commits {
		h.Write(c[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Sign produces a BIP-340 Schnorr signature over the session transcript
// digest.
func Sign(kp *KeyPair, session string, commits [][32]byte) (*schnorr.Signature, error) {
	digest := TranscriptDigest(session, commits)
	sig, err := schnorr.Sign(kp.Priv, digest[:])
	if err != nil {
		return nil, errtax.New(errtax.ProtocolError, "identity signing failed: "+err.Error())
	}
	return sig, nil
}

// Verify checks sig against the session transcript digest under pub.
func Verify(pub *btcec.PublicKey, session string, commits [][32]byte, sig *schnorr.Signature) error {
	digest := TranscriptDigest(session, commits)
	if !sig.Verify(digest[:], pub) {
		return errtax.New(errtax.ProtocolError, "identity signature verification failed")
	}
	return nil
}

// Allowlist is a set of compressed public keys a verifier accepts as
// known prover identities. An empty allowlist means identity binding is
// not enforced for a session.
type Allowlist map[[33]byte]bool

// NewAllowlist builds an Allowlist from a slice of public keys.
func NewAllowlist(pubs ...*btcec.PublicKey) Allowlist {
	al := make(Allowlist, len(pubs))
	for _, p := range pubs {
		var key [33]byte
		copy(key[:], p.SerializeCompressed())
		al[key] = true
	}
	return al
}

// Allows reports whether pub (compressed serialization) is present.
func (al Allowlist) Allows(pub *btcec.PublicKey) bool {
	if len(al) == 0 {
		return true
	}
	var key [33]byte
	copy(key[:], pub.SerializeCompressed())
	return al[key]
}
