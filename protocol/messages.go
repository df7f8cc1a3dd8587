// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package protocol implements the prover and verifier state machines that
// drive a T-round commit/challenge/open session, and the four message
// types they exchange over a transport.Transport.
package protocol

// ProtocolVersion identifies the wire format this package speaks. Bumped
// whenever a message field is added or a verification rule changes in a
// way that affects interoperability — the same role
// wire.ProtocolVersion plays for a peer-to-peer handshake, adapted here
// for a two-party session instead of a gossip network.
const ProtocolVersion uint32 = 1

// CommitsMessage is sent once by the prover at Init -> Committed.
type CommitsMessage struct {
	Session string   `json:"session"`
	Commits []string `json:"commits"`

	// IdentityPub and IdentitySig are present only when the prover is
	// configured with an identity.KeyPair (see package identity).
	IdentityPub string `json:"identity_pub,omitempty"`
	IdentitySig string `json:"identity_sig,omitempty"`
}

// ChallengeMessage is sent once per round by the verifier.
type ChallengeMessage struct {
	Session string `json:"session"`
	Round   int    `json:"round"`
	B       int    `json:"b"`
}

// OpenedRow is one entry of an OpenMessage's opened_rows list.
type OpenedRow struct {
	Index    int    `json:"index"`
	RowHex   string `json:"row_hex"`
	NonceHex string `json:"nonce_hex"`
}

// OpenMessage is sent once per round by the prover in response to a
// ChallengeMessage.
type OpenMessage struct {
	Session     string      `json:"session"`
	B           int         `json:"b"`
	Context     string      `json:"context"`
	OpenedRows  []OpenedRow `json:"opened_rows"`
	CycleIndices []int      `json:"cycle_indices,omitempty"`
}

// ResultMessage is sent once by the verifier after T rounds or on the
// first verification failure.
type ResultMessage struct {
	Session string `json:"session"`
	OK      bool   `json:"ok"`
	Msg     string `json:"msg"`
	Rounds  int    `json:"rounds"`
}

// RowCommitContext is the commitment context label transmitted in OPEN
// messages. It is session-independent by default, matching the fixed
// per-session commitment vector computed once at Init -> Committed; see
// SPEC_FULL.md §4.5/4.6 for why a per-round context cannot replace it
// without re-committing every round.
func RowCommitContext(session string) string {
	return "row-commit"
}
