// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package seedstore generates and persists the client's 32-byte secret
// seed, encrypted at rest under a passphrase-derived key. It is the only
// place this module touches the filesystem for secret material.
package seedstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
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

const (
	// SeedSize is the length in bytes of the client seed.
	SeedSize = 32

	saltSize  = 16
	nonceSize = 12

	encSuffix  = ".enc"
	saltSuffix = ".salt"
	metaSuffix = ".meta.json"
)

// ownerOnly is the file mode required by spec.md §6 for all three
// encrypted-seed artifacts.
const ownerOnly = 0o600

// Meta describes the on-disk encryption scheme, matching spec.md §6's
// <base>.meta.json exactly.
type Meta struct {
	Scheme    string `json:"scheme"`
	SaltSize  int    `json:"salt_size"`
	NonceSize int    `json:"nonce_size"`
	SeedSize  int    `json:"seed_size"`
}

func defaultMeta() Meta {
	return Meta{Scheme: "scrypt+AESGCM", SaltSize: saltSize, NonceSize: nonceSize, SeedSize: SeedSize}
}

// Generate returns a fresh 32-byte seed from the OS CSPRNG.
func Generate() ([32]byte, error) {
	b, err := primitives.RandomBytes(SeedSize)
	if err != nil {
		return [32]byte{}, err
	}
	var seed [32]byte
	copy(seed[:], b)
	primitives.Zero(b)
	return seed, nil
}

// Encrypt derives a key from passphrase and a fresh salt, seals seed with
// AES-GCM under a fresh nonce, and writes the three artifacts named
// base+".enc", base+".salt", base+".meta.json", each mode 0600.
func Encrypt(seed [32]byte, passphrase string, base string, params primitives.ScryptParams) error {
	salt, err := primitives.RandomBytes(saltSize)
	if err != nil {
		return err
	}

	key, err := primitives.ScryptKey([]byte(passphrase), salt, params)
	if err != nil {
		return errtax.New(errtax.IoError, fmt.Sprintf("scrypt: %v", err))
	}
	defer primitives.Zero(key)

	nonce, sealed, err := primitives.AESGCMSeal(key, seed[:], nil)
	if err != nil {
		return errtax.New(errtax.IoError, fmt.Sprintf("seal: %v", err))
	}

	if err := os.MkdirAll(filepath.Dir(base), 0o700); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}

	encBlob := append(append([]byte(nil), nonce...), sealed...)
	if err := writeOwnerOnly(base+encSuffix, encBlob); err != nil {
		return err
	}
	if err := writeOwnerOnly(base+saltSuffix, salt); err != nil {
		return err
	}

	metaBytes, err := json.Marshal(defaultMeta())
	if err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := writeOwnerOnly(base+metaSuffix, metaBytes); err != nil {
		return err
	}

	log.Infof("encrypted seed written to %s", base+encSuffix)
	return nil
}

// Decrypt reverses Encrypt, returning the plaintext seed. A wrong
// passphrase (or tampered ciphertext) surfaces as errtax.AuthFail.
func Decrypt(passphrase string, base string, params primitives.ScryptParams) ([32]byte, error) {
	salt, err := os.ReadFile(base + saltSuffix)
	if err != nil {
		return [32]byte{}, errtax.New(errtax.IoError, err.Error())
	}

	key, err := primitives.ScryptKey([]byte(passphrase), salt, params)
	if err != nil {
		return [32]byte{}, errtax.New(errtax.IoError, fmt.Sprintf("scrypt: %v", err))
	}
	defer primitives.Zero(key)

	blob, err := os.ReadFile(base + encSuffix)
	if err != nil {
		return [32]byte{}, errtax.New(errtax.IoError, err.Error())
	}
	if len(blob) < nonceSize {
		return [32]byte{}, errtax.New(errtax.DecodeError, "encrypted seed blob truncated")
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]

	plaintext, err := primitives.AESGCMOpen(key, nonce, ciphertext, nil)
	if err != nil {
		return [32]byte{}, errtax.New(errtax.AuthFail, "seed decryption failed")
	}
	if len(plaintext) != SeedSize {
		return [32]byte{}, errtax.New(errtax.DecodeError, "decrypted seed has wrong length")
	}

	var seed [32]byte
	copy(seed[:], plaintext)
	primitives.Zero(plaintext)
	return seed, nil
}

func writeOwnerOnly(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, ownerOnly); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := os.Chmod(tmp, ownerOnly); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := os.Rename(tmp, path); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	return nil
}

// DefaultBasePath is the default seed base path named in spec.md §6.
func DefaultBasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errtax.New(errtax.IoError, err.Error())
	}
	return filepath.Join(home, ".zkp-ham", "seed"), nil
}
