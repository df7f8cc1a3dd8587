// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package manifest defines the enrollment manifest published alongside
// the graph file: the public record a verifier loads before a session can
// begin.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/tomvox444/hamiltonian-crypt/commitment"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/graph"
)

// ProtocolName is the fixed protocol identifier written into every
// manifest, matching spec.md §6.
const ProtocolName = "hamiltonian-zkp-v1"

// CommitScheme names the hash construction used for row commitments.
const CommitScheme = "sha256(row||nonce||ctx)"

// Manifest is the bit-exact structure from spec.md §6.
type Manifest struct {
	N            int      `json:"n"`
	DAvg         float64  `json:"d_avg"`
	SeedPub      string   `json:"seed_pub"`
	CommitScheme string   `json:"commit_scheme"`
	CommitCount  int      `json:"commit_count"`
	// CommitsAll is committed under a fixed enrollment-time session seed,
	// not a live session's seed_session. It records what rows existed at
	// enrollment for inspection; a verifier must never compare it against
	// a session's pinned COMMITS, which are committed under that
	// session's own seed and will not match.
	CommitsAll []string `json:"commits_all"`
	Protocol   string   `json:"protocol"`
}

// Build constructs a Manifest from the enrollment artifacts.
func Build(n int, dAvg float64, seedPub [32]byte, commit *commitment.Commit) *Manifest {
	commitsHex := make([]string, len(commit.Commits))
	for i, c := range commit.Commits {
		commitsHex[i] = hex.EncodeToString(c[:])
	}
	return &Manifest{
		N:            n,
		DAvg:         dAvg,
		SeedPub:      hex.EncodeToString(seedPub[:]),
		CommitScheme: CommitScheme,
		CommitCount:  len(commit.Commits),
		CommitsAll:   commitsHex,
		Protocol:     ProtocolName,
	}
}

// WriteFile atomically writes the manifest as indented JSON.
func WriteFile(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := os.Rename(tmp, path); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	return nil
}

// ReadFile loads and decodes a manifest.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errtax.New(errtax.IoError, err.Error())
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errtax.New(errtax.DecodeError, err.Error())
	}
	return &m, nil
}

// SeedPubBytes decodes the hex-encoded public seed back to [32]byte.
func (m *Manifest) SeedPubBytes() ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(m.SeedPub)
	if err != nil || len(b) != 32 {
		return out, errtax.New(errtax.DecodeError, "malformed seed_pub in manifest")
	}
	copy(out[:], b)
	return out, nil
}

// WriteGraphFile writes the graph binary in the format from spec.md §6.
func WriteGraphFile(path string, g *graph.BitMatrix) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	if _, err := g.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := f.Close(); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	return os.Rename(tmp, path)
}

// ReadGraphFile reads the graph binary format produced by WriteGraphFile.
func ReadGraphFile(path string) (*graph.BitMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errtax.New(errtax.IoError, err.Error())
	}
	defer f.Close()
	return graph.ReadBitMatrix(f)
}
