// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btclog"
	"github.com/tomvox444/hamiltonian-crypt/commitment"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/graph"
	"github.com/tomvox444/hamiltonian-crypt/identity"
	"github.com/tomvox444/hamiltonian-crypt/transport"
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

// ProverConfig configures one honest-prover session run.
type ProverConfig struct {
	Transport transport.Transport
	Session   string
	Rounds    int
	Graph     *graph.BitMatrix
	Sigma     []int

	// Identity, if non-nil, causes the prover to sign its COMMITS
	// transcript per SPEC_FULL.md's identity binding addition.
	Identity *identity.KeyPair
}

// Prover drives one honest-prover session end to end.
type Prover struct {
	cfg   ProverConfig
	state ProverState
}

// NewProver validates cfg and returns a Prover ready to Run.
func NewProver(cfg ProverConfig) (*Prover, error) {
	if cfg.Rounds <= 0 {
		return nil, errtax.New(errtax.InvalidSize, "rounds must be positive")
	}
	if cfg.Graph == nil {
		return nil, errtax.New(errtax.InvalidSize, "graph is required")
	}
	if len(cfg.Sigma) != cfg.Graph.N() {
		return nil, errtax.New(errtax.InvalidSize, "sigma length must match graph size")
	}
	return &Prover{cfg: cfg, state: ProverInit}, nil
}

// Run executes the full session: publish COMMITS, then answer Rounds
// challenges, then read the final RESULT. ctx bounds every individual
// receive; callers wanting per-phase deadlines should derive sub-contexts
// before calling Run.
func (p *Prover) Run(ctx context.Context) (*ResultMessage, error) {
	seedSession := sha256.Sum256([]byte(p.cfg.Session))
	commit, err := commitment.CommitRows(p.cfg.Graph, seedSession, commitment.DefaultContext)
	if err != nil {
		return nil, err
	}

	commitsMsg := CommitsMessage{
		Session: p.cfg.Session,
		Commits: hexAll(commit.Commits),
	}
	if p.cfg.Identity != nil {
		sig, err := identity.Sign(p.cfg.Identity, p.cfg.Session, commit.Commits)
		if err != nil {
			return nil, err
		}
		commitsMsg.IdentityPub = hex.EncodeToString(p.cfg.Identity.Pub.SerializeCompressed())
		commitsMsg.IdentitySig = hex.EncodeToString(sig.Serialize())
	}

	payload, err := json.Marshal(commitsMsg)
	if err != nil {
		return nil, errtax.New(errtax.DecodeError, err.Error())
	}
	if err := p.cfg.Transport.Publish(ctx, p.cfg.Session, transport.KindCommits, payload); err != nil {
		return nil, err
	}
	p.state = ProverCommitted
	log.Debugf("session %s: published COMMITS", p.cfg.Session)

	for round := 1; round <= p.cfg.Rounds; round++ {
		p.state = ProverWaitChallenge
		raw, err := p.cfg.Transport.Receive(ctx, p.cfg.Session, transport.KindChallenge)
		if err != nil {
			return nil, err
		}
		var chal ChallengeMessage
		if err := json.Unmarshal(raw, &chal); err != nil {
			return nil, errtax.New(errtax.DecodeError, "malformed challenge: "+err.Error())
		}

		if chal.Session != p.cfg.Session || chal.Round != round {
			return nil, (&errtax.Error{
				Kind:   errtax.ProtocolError,
				Detail: fmt.Sprintf("challenge session/round mismatch: got session=%s round=%d, want session=%s round=%d", chal.Session, chal.Round, p.cfg.Session, round),
				Round:  round,
				Index:  -1,
			})
		}
		if chal.B != 0 && chal.B != 1 {
			return nil, errtax.New(errtax.DecodeError, "challenge bit must be 0 or 1").WithRound(round)
		}

		openMsg, err := p.buildOpen(chal.B, p.cfg.Graph, commit)
		if err != nil {
			return nil, err
		}

		openPayload, err := json.Marshal(openMsg)
		if err != nil {
			return nil, errtax.New(errtax.DecodeError, err.Error())
		}
		if err := p.cfg.Transport.Publish(ctx, p.cfg.Session, transport.KindOpen, openPayload); err != nil {
			return nil, err
		}
		p.state = ProverOpened
		log.Tracef("session %s: answered round %d (b=%d)", p.cfg.Session, round, chal.B)
	}

	raw, err := p.cfg.Transport.Receive(ctx, p.cfg.Session, transport.KindResult)
	if err != nil {
		return nil, err
	}
	var result ResultMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errtax.New(errtax.DecodeError, "malformed result: "+err.Error())
	}
	p.state = ProverDone
	return &result, nil
}

// buildOpen produces the OPEN message for challenge bit b. For b=1 the
// prover reveals every row on its Hamiltonian cycle, in cycle order; for
// b=0 it reveals every row, matching spec.md §4.5.
func (p *Prover) buildOpen(b int, g *graph.BitMatrix, commit *commitment.Commit) (*OpenMessage, error) {
	msg := &OpenMessage{
		Session: p.cfg.Session,
		B:       b,
		Context: commitment.DefaultContext,
	}

	if b == 1 {
		n := g.N()
		msg.CycleIndices = append([]int(nil), p.cfg.Sigma...)
		seen := make([]bool, n)
		for _, idx := range p.cfg.Sigma {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			msg.OpenedRows = append(msg.OpenedRows, rowEntry(idx, g, commit))
		}
		return msg, nil
	}

	for i := 0; i < g.N(); i++ {
		msg.OpenedRows = append(msg.OpenedRows, rowEntry(i, g, commit))
	}
	return msg, nil
}

func rowEntry(idx int, g *graph.BitMatrix, commit *commitment.Commit) OpenedRow {
	return OpenedRow{
		Index:    idx,
		RowHex:   hex.EncodeToString(g.Row(idx)),
		NonceHex: hex.EncodeToString(commit.Nonces[idx][:]),
	}
}

func hexAll(commits [][32]byte) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = hex.EncodeToString(c[:])
	}
	return out
}
