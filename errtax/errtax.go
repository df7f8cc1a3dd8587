// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package errtax defines the error taxonomy shared by every component of
// the Hamiltonian-cycle ZKP stack. Verification failures, transport
// failures, and configuration failures are all reported as a *Error
// carrying a fixed Kind so callers can branch with errors.Is/errors.As
// without parsing message strings.
package errtax

import "fmt"

// Kind identifies the category of a protocol or I/O failure.
type Kind string

// The error kinds named in the protocol specification. Kind values are
// stable identifiers: they appear in RESULT.msg and in logs, and must not
// change meaning across releases.
const (
	InvalidRange  Kind = "InvalidRange"
	InvalidSize   Kind = "InvalidSize"
	IoError       Kind = "IoError"
	DecodeError   Kind = "DecodeError"
	AuthFail      Kind = "AuthFail"
	ProtocolError Kind = "ProtocolError"
	CommitMismatch Kind = "CommitMismatch"
	CycleInvalid  Kind = "CycleInvalid"
	TimeoutError  Kind = "TimeoutError"
)

// Error is the concrete error type returned by this module's packages.
// Detail must never contain secret material (seeds, permutations, nonces);
// it carries only the offending index, kind, and round number.
type Error struct {
	Kind   Kind
	Detail string
	Round  int // 0 when not applicable
	Index  int // -1 when not applicable
}

func (e *Error) Error() string {
	if e.Round > 0 {
		return fmt.Sprintf("%s: %s (round %d)", e.Kind, e.Detail, e.Round)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is allows errors.Is(err, errtax.New(kind, "")) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a bare *Error of the given kind with no round/index context.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Index: -1}
}

// WithRound attaches a round number, returning a new *Error.
func (e *Error) WithRound(round int) *Error {
	cp := *e
	cp.Round = round
	return &cp
}

// WithIndex attaches an offending index, returning a new *Error.
func (e *Error) WithIndex(index int) *Error {
	cp := *e
	cp.Index = index
	return &cp
}
