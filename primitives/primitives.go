// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package primitives collects the small set of cryptographic building
// blocks the rest of this module is built from: SHA-256, HMAC-SHA-256,
// HKDF extract/expand, scrypt, AES-GCM, and OS randomness. Nothing here
// is novel cryptography — it is a thin, well-named seam so the DRBG,
// seed store, and commit engine packages don't each reimplement their own
// calls into crypto/hmac and crypto/cipher.
package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"
)

// Sha256 returns the SHA-256 digest of the concatenation of parts.
func Sha256(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HmacSha256 returns HMAC-SHA-256(key, data).
func HmacSha256(key, data []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// HKDFExtract implements the HKDF-Extract step (RFC 5869) with the given
// salt and input keying material.
func HKDFExtract(salt, ikm []byte) []byte {
	return hkdf.Extract(sha256.New, ikm, salt)
}

// HKDFExpand implements the HKDF-Expand step (RFC 5869), returning length
// bytes derived from prk and the context info.
func HKDFExpand(prk, info []byte, length int) ([]byte, error) {
	r := hkdf.Expand(sha256.New, prk, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return out, nil
}

// HKDF runs extract-then-expand in one call: the construction used by the
// graph builder and commit engine, which both pass a fixed all-zero salt
// and use seed_pub or the session seed as the secret.
func HKDF(secret, salt, info []byte, length int) ([]byte, error) {
	prk := HKDFExtract(salt, secret)
	return HKDFExpand(prk, info, length)
}

// ScryptParams holds the interactive-grade scrypt cost parameters. They
// are exported as a struct (rather than bare constants) so a
// higher-threat deployment can swap in different cost parameters.
type ScryptParams struct {
	N, R, P, KeyLen int
}

// DefaultScryptParams: N=2^17, r=8, p=1, 32-byte output.
var DefaultScryptParams = ScryptParams{N: 1 << 17, R: 8, P: 1, KeyLen: 32}

// ScryptKey derives a key from passphrase and salt using params.
func ScryptKey(passphrase, salt []byte, params ScryptParams) ([]byte, error) {
	return scrypt.Key(passphrase, salt, params.N, params.R, params.P, params.KeyLen)
}

// AESGCMSeal encrypts plaintext under key with a fresh random nonce,
// returning the nonce and ciphertext||tag as separate slices. aad may be
// nil.
func AESGCMSeal(key, plaintext, aad []byte) (nonce, sealed []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("gcm init: %w", err)
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce: %w", err)
	}
	sealed = gcm.Seal(nil, nonce, plaintext, aad)
	return nonce, sealed, nil
}

// AESGCMOpen decrypts ciphertext (without the nonce prefix) under key and
// nonce. A tag mismatch returns a non-nil error, which seedstore.Decrypt
// reports as errtax.AuthFail.
func AESGCMOpen(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}
	return gcm.Open(nil, nonce, ciphertext, aad)
}

// RandomBytes returns n bytes read from the OS CSPRNG. This is the only
// source used for seeds, salts, GCM nonces, and verifier challenges;
// the DRBG in package drbg is never used for secrets.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("os random: %w", err)
	}
	return b, nil
}

// Zero overwrites b with zero bytes in place. Best-effort: the Go runtime
// may retain copies in GC'd memory or register spills, but this at least
// removes the canonical live reference.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
