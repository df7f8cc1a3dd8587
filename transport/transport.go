// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transport abstracts the duplex channel the protocol engine
// carries its four message kinds over. Per spec.md §9, the only contract
// that matters is "atomic publish of named messages with ordered
// consumption" — any queue, pipe, TCP framing, or WebSocket can implement
// Transport; this package also ships the reference shared-mailbox
// implementation built on a directory of files.
package transport

import "context"

// Kind names one of the four message kinds exchanged by a session.
type Kind string

const (
	KindCommits   Kind = "COMMITS"
	KindChallenge Kind = "CHALLENGE"
	KindOpen      Kind = "OPEN"
	KindResult    Kind = "RESULT"
)

// Transport is the duplex channel a prover and verifier exchange typed
// messages over. Publish must be atomic: a concurrent Receive must never
// observe a partially written message. Within one session, ordering is
// the caller's (the protocol engine's) responsibility — Transport only
// guarantees atomicity of each individual publish/receive.
type Transport interface {
	// Publish writes payload under the given message kind for this
	// session, overwriting any prior message of the same kind.
	Publish(ctx context.Context, session string, kind Kind, payload []byte) error

	// Receive blocks until a message of the given kind is available for
	// session, or ctx is done. It returns the raw payload exactly as
	// published.
	Receive(ctx context.Context, session string, kind Kind) ([]byte, error)

	// Close releases resources the session held (the reference file
	// mailbox removes its session files).
	Close(session string) error
}
