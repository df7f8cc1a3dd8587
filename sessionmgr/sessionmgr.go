// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sessionmgr tracks the verifier-side state of concurrently running
// sessions: which ones are open, their graph size and round count, and how
// they ultimately resolved. It does not store a session's commitment
// vector. It is safe for concurrent access from multiple session
// goroutines.
package sessionmgr

import (
	"fmt"
	"sync"
	"time"

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

// Status is the lifecycle stage of a tracked session.
type Status uint8

const (
	StatusPending Status = iota
	StatusRunning
	StatusAccepted
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Session is one tracked verifier-side run.
type Session struct {
	ID        string
	N         int
	Rounds    int
	Status    Status
	Detail    string
	StartedAt time.Time
	EndedAt   time.Time
}

// Registry tracks every session a verifier process is handling concurrently.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open registers a new session as pending. It is an error to reopen an id
// that is still pending or running.
func (r *Registry) Open(id string, n, rounds int) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[id]; ok && (existing.Status == StatusPending || existing.Status == StatusRunning) {
		return nil, errtax.New(errtax.ProtocolError, fmt.Sprintf("session %s already in progress", id))
	}

	s := &Session{ID: id, N: n, Rounds: rounds, Status: StatusPending, StartedAt: now()}
	r.sessions[id] = s
	log.Debugf("opened session %s (n=%d rounds=%d)", id, n, rounds)
	return s, nil
}

// MarkRunning transitions a pending session to running.
func (r *Registry) MarkRunning(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errtax.New(errtax.ProtocolError, fmt.Sprintf("unknown session %s", id))
	}
	s.Status = StatusRunning
	return nil
}

// Resolve records a session's terminal outcome.
func (r *Registry) Resolve(id string, ok bool, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, found := r.sessions[id]
	if !found {
		return errtax.New(errtax.ProtocolError, fmt.Sprintf("unknown session %s", id))
	}
	if ok {
		s.Status = StatusAccepted
	} else {
		s.Status = StatusRejected
	}
	s.Detail = detail
	s.EndedAt = now()
	log.Infof("session %s resolved: %s (%s)", id, s.Status, detail)
	return nil
}

// Get returns a snapshot copy of the tracked session, or false if unknown.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Active returns the ids of every session still pending or running.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sessions))
	for id, s := range r.sessions {
		if s.Status == StatusPending || s.Status == StatusRunning {
			out = append(out, id)
		}
	}
	return out
}

// Evict removes a resolved session's record. Evicting a pending or running
// session is rejected; cancel it through its own context first.
func (r *Registry) Evict(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	if s.Status == StatusPending || s.Status == StatusRunning {
		return errtax.New(errtax.ProtocolError, fmt.Sprintf("session %s still in progress", id))
	}
	delete(r.sessions, id)
	return nil
}

// now is overridable in tests that need deterministic timestamps; nothing
// in this package reaches for time.Now() directly so a later caller can
// inject a fake clock without touching call sites.
var now = time.Now
