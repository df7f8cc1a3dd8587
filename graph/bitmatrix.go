// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package graph implements the bit-packed adjacency matrix used as the
// public graph G, and the deterministic builder that plants a Hamiltonian
// cycle in it. The matrix is dense and row-major, never a pointer graph:
// neighbor traversal is bit iteration over a row, matching spec.md §9.
package graph

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tomvox444/hamiltonian-crypt/errtax"
)

// BitMatrix is an n x n symmetric, zero-diagonal adjacency matrix stored
// as bit-packed, row-major, MSB-first rows. Each row occupies
// ceil(n/8) bytes.
type BitMatrix struct {
	n        int
	rowBytes int
	rows     [][]byte
}

// NewBitMatrix allocates an empty (all-zero) n x n matrix.
func NewBitMatrix(n int) (*BitMatrix, error) {
	if n <= 0 {
		return nil, errtax.New(errtax.InvalidSize, "n must be positive")
	}
	rowBytes := (n + 7) / 8
	rows := make([][]byte, n)
	for i := range rows {
		rows[i] = make([]byte, rowBytes)
	}
	return &BitMatrix{n: n, rowBytes: rowBytes, rows: rows}, nil
}

// N returns the matrix dimension.
func (m *BitMatrix) N() int { return m.n }

// RowBytes returns ceil(n/8), the byte length of one row.
func (m *BitMatrix) RowBytes() int { return m.rowBytes }

func bitPos(j int) (byteIdx int, mask byte) {
	return j >> 3, 1 << (7 - uint(j&7))
}

// Get reports whether the edge (i, j) is set.
func (m *BitMatrix) Get(i, j int) bool {
	byteIdx, mask := bitPos(j)
	return m.rows[i][byteIdx]&mask != 0
}

// set sets bit j of row i without enforcing symmetry; callers must set
// both (i,j) and (j,i) via SetEdge.
func (m *BitMatrix) set(i, j int) {
	byteIdx, mask := bitPos(j)
	m.rows[i][byteIdx] |= mask
}

// SetEdge sets the edge (i, j) symmetrically: G[i,j] = G[j,i] = 1. It is a
// no-op (not an error) when i == j, since the diagonal must stay zero.
func (m *BitMatrix) SetEdge(i, j int) {
	if i == j {
		return
	}
	m.set(i, j)
	m.set(j, i)
}

// HasEdge reports whether (i, j) is an edge. Equivalent to Get but named
// for readability at call sites that think in terms of edges rather than
// raw bits.
func (m *BitMatrix) HasEdge(i, j int) bool {
	return m.Get(i, j)
}

// Row returns the raw bytes of row i. The returned slice aliases the
// matrix's internal storage; callers that need to mutate it independently
// must copy.
func (m *BitMatrix) Row(i int) []byte {
	return m.rows[i]
}

// SetRow overwrites row i's raw bytes; used when loading rows opened by a
// prover. Returns InvalidSize if len(row) != RowBytes().
func (m *BitMatrix) SetRow(i int, row []byte) error {
	if len(row) != m.rowBytes {
		return errtax.New(errtax.InvalidSize, fmt.Sprintf("row length %d, want %d", len(row), m.rowBytes))
	}
	copy(m.rows[i], row)
	return nil
}

// IsSymmetric reports whether G[i,j] == G[j,i] for every i, j. O(n^2);
// intended for tests and enrollment-time sanity checks, not the hot path.
func (m *BitMatrix) IsSymmetric() bool {
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			if m.Get(i, j) != m.Get(j, i) {
				return false
			}
		}
	}
	return true
}

// HasZeroDiagonal reports whether G[i,i] == 0 for every i.
func (m *BitMatrix) HasZeroDiagonal() bool {
	for i := 0; i < m.n; i++ {
		if m.Get(i, i) {
			return false
		}
	}
	return true
}

// WriteTo serializes the matrix in the external wire format from spec.md
// §6: a 4-byte big-endian n, followed by n rows of RowBytes() each.
func (m *BitMatrix) WriteTo(w io.Writer) (int64, error) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(m.n))
	if _, err := w.Write(header[:]); err != nil {
		return 0, errtax.New(errtax.IoError, err.Error())
	}
	written := int64(len(header))
	for _, row := range m.rows {
		n, err := w.Write(row)
		written += int64(n)
		if err != nil {
			return written, errtax.New(errtax.IoError, err.Error())
		}
	}
	return written, nil
}

// ReadBitMatrix parses the external wire format produced by WriteTo.
func ReadBitMatrix(r io.Reader) (*BitMatrix, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errtax.New(errtax.DecodeError, "truncated graph header: "+err.Error())
	}
	n := int(binary.BigEndian.Uint32(header[:]))

	m, err := NewBitMatrix(n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, m.rows[i]); err != nil {
			return nil, errtax.New(errtax.DecodeError, fmt.Sprintf("truncated row %d: %v", i, err))
		}
	}
	return m, nil
}
