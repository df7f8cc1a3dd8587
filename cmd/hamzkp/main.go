// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command hamzkp drives the Hamiltonian-cycle zero-knowledge authentication
// protocol from the command line: generating and encrypting a client seed,
// enrolling a public graph, and running the prover or verifier side of a
// session.
package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"
	"github.com/tomvox444/hamiltonian-crypt/commitment"
	"github.com/tomvox444/hamiltonian-crypt/config"
	"github.com/tomvox444/hamiltonian-crypt/drbg"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/graph"
	"github.com/tomvox444/hamiltonian-crypt/identity"
	"github.com/tomvox444/hamiltonian-crypt/logging"
	"github.com/tomvox444/hamiltonian-crypt/manifest"
	"github.com/tomvox444/hamiltonian-crypt/permutation"
	"github.com/tomvox444/hamiltonian-crypt/primitives"
	"github.com/tomvox444/hamiltonian-crypt/protocol"
	"github.com/tomvox444/hamiltonian-crypt/seedstore"
	"github.com/tomvox444/hamiltonian-crypt/sessionmgr"
	"github.com/tomvox444/hamiltonian-crypt/transport"
)

// exit codes from spec.md §6.
const (
	exitOK           = 0
	exitRejected     = 1
	exitIOOrProtocol = 2
	exitBadConfig    = 3
)

func registry() logging.Registry {
	return logging.Registry{
		logging.SubsystemDRBG:       drbg.UseLogger,
		logging.SubsystemSeedStore:  seedstore.UseLogger,
		logging.SubsystemPermute:    permutation.UseLogger,
		logging.SubsystemGraph:      graph.UseLogger,
		logging.SubsystemCommit:     commitment.UseLogger,
		logging.SubsystemProtocol:   protocol.UseLogger,
		logging.SubsystemTransport:  transport.UseLogger,
		logging.SubsystemSessionMgr: sessionmgr.UseLogger,
		logging.SubsystemIdentity:   identity.UseLogger,
	}
}

func main() {
	cfg, extra, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitBadConfig)
	}

	reg := registry()
	if cfg.NoLogFile {
		logging.DisableAll(reg)
	} else {
		level, _ := btclog.LevelFromString(cfg.LogLevel)
		if err := logging.InitLogRotator(cfg.LogFilePath(), 10, 3, level, reg); err != nil {
			fmt.Fprintln(os.Stderr, "log init:", err)
			os.Exit(exitBadConfig)
		}
	}

	if len(extra) == 0 {
		fmt.Fprintln(os.Stderr, "usage: hamzkp <seed|enroll|prove|verify> [args]")
		os.Exit(exitBadConfig)
	}

	var runErr error
	switch extra[0] {
	case "seed":
		runErr = cmdSeed(cfg, extra[1:])
	case "enroll":
		runErr = cmdEnroll(cfg, extra[1:])
	case "prove":
		runErr = cmdProve(cfg, extra[1:])
	case "verify":
		runErr = cmdVerify(cfg, extra[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", extra[0])
		os.Exit(exitBadConfig)
	}

	os.Exit(exitCodeFor(runErr))
}

func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	if te, ok := err.(*errtax.Error); ok {
		switch te.Kind {
		case errtax.CommitMismatch, errtax.CycleInvalid, errtax.AuthFail:
			fmt.Fprintln(os.Stderr, err)
			return exitRejected
		case errtax.InvalidRange, errtax.InvalidSize:
			fmt.Fprintln(os.Stderr, err)
			return exitBadConfig
		default:
			fmt.Fprintln(os.Stderr, err)
			return exitIOOrProtocol
		}
	}
	fmt.Fprintln(os.Stderr, err)
	return exitIOOrProtocol
}

// resultError turns a RESULT with ok=false into an *errtax.Error carrying
// the Kind named before the first ':' of msg, so exitCodeFor reports a
// CommitMismatch or CycleInvalid rejection as exitRejected.
func resultError(msg string) error {
	kind, detail, found := strings.Cut(msg, ":")
	if !found {
		return errtax.New(errtax.ProtocolError, msg)
	}
	return errtax.New(errtax.Kind(kind), detail)
}

// seedOpts covers the `seed` subcommand's three verbs: gen (which also
// encrypts the new seed), decrypt and derive.
type seedOpts struct {
	Passphrase string `long:"passphrase" description:"Passphrase protecting the seed file"`
	N          int    `long:"n" description:"Graph size, required by derive" default:"0"`
}

func cmdSeed(cfg *config.Config, args []string) error {
	var opts seedOpts
	rest, err := flags.ParseArgs(&opts, args)
	if err != nil {
		return errtax.New(errtax.InvalidSize, err.Error())
	}
	if len(rest) < 1 {
		return errtax.New(errtax.InvalidSize, "usage: seed <gen|decrypt|derive>")
	}

	switch rest[0] {
	case "gen":
		seed, err := seedstore.Generate()
		if err != nil {
			return err
		}
		if opts.Passphrase == "" {
			return errtax.New(errtax.InvalidSize, "--passphrase is required for seed gen")
		}
		if err := seedstore.Encrypt(seed, opts.Passphrase, cfg.SeedPath, cfg.ScryptParams()); err != nil {
			return err
		}
		fmt.Printf("seed written to %s.enc\n", cfg.SeedPath)
		return nil

	case "decrypt":
		if opts.Passphrase == "" {
			return errtax.New(errtax.InvalidSize, "--passphrase is required for seed decrypt")
		}
		seed, err := seedstore.Decrypt(opts.Passphrase, cfg.SeedPath, cfg.ScryptParams())
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", seed)
		return nil

	case "derive":
		if opts.N <= 0 {
			return errtax.New(errtax.InvalidSize, "--n is required for seed derive")
		}
		if opts.Passphrase == "" {
			return errtax.New(errtax.InvalidSize, "--passphrase is required for seed derive")
		}
		seedClient, err := seedstore.Decrypt(opts.Passphrase, cfg.SeedPath, cfg.ScryptParams())
		if err != nil {
			return err
		}
		seedPub, err := readSeedPub(cfg.SeedPath + ".pub")
		if err != nil {
			return err
		}
		sigma, err := permutation.Derive(opts.N, seedClient, seedPub, permutation.DefaultContext)
		if err != nil {
			return err
		}
		fmt.Println(sigma)
		return nil

	default:
		return errtax.New(errtax.InvalidSize, fmt.Sprintf("unknown seed verb %q", rest[0]))
	}
}

// enrollOpts configures the `enroll` subcommand.
type enrollOpts struct {
	Passphrase  string  `long:"passphrase" description:"Passphrase protecting the seed file"`
	N           int     `long:"n" required:"true" description:"Graph size"`
	DAvg        float64 `long:"davg" required:"true" description:"Target average vertex degree"`
	OutGraph    string  `long:"out-graph" required:"true" description:"Path to write the graph binary"`
	OutManifest string  `long:"out-manifest" required:"true" description:"Path to write the enrollment manifest"`
}

func cmdEnroll(cfg *config.Config, args []string) error {
	var opts enrollOpts
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return errtax.New(errtax.InvalidSize, err.Error())
	}

	seedClient, err := seedstore.Decrypt(opts.Passphrase, cfg.SeedPath, cfg.ScryptParams())
	if err != nil {
		return err
	}

	seedPubPath := cfg.SeedPath + ".pub"
	seedPub, err := readOrCreateSeedPub(seedPubPath)
	if err != nil {
		return err
	}

	sigma, err := permutation.Derive(opts.N, seedClient, seedPub, permutation.DefaultContext)
	if err != nil {
		return err
	}

	g, err := graph.Build(opts.N, seedPub, sigma, opts.DAvg)
	if err != nil {
		return err
	}

	enrollSeed := sha256.Sum256([]byte("enrollment"))
	commit, err := commitment.CommitRows(g, enrollSeed, commitment.DefaultContext)
	if err != nil {
		return err
	}

	if err := manifest.WriteGraphFile(opts.OutGraph, g); err != nil {
		return err
	}
	m := manifest.Build(opts.N, opts.DAvg, seedPub, commit)
	if err := manifest.WriteFile(opts.OutManifest, m); err != nil {
		return err
	}

	fmt.Printf("enrolled n=%d d_avg=%.2f -> %s, %s\n", opts.N, opts.DAvg, opts.OutGraph, opts.OutManifest)
	return nil
}

// proveOpts configures the `prove` subcommand.
type proveOpts struct {
	Session     string `long:"session" required:"true" description:"Session identifier, shared with the verifier"`
	Passphrase  string `long:"passphrase" description:"Passphrase protecting the seed file"`
	Graph       string `long:"graph" required:"true" description:"Path to the enrolled graph binary"`
	Manifest    string `long:"manifest" description:"Path to the enrollment manifest (for seed_pub)"`
	UseIdentity bool   `long:"sign" description:"Sign the COMMITS transcript with a session identity keypair"`
}

func cmdProve(cfg *config.Config, args []string) error {
	var opts proveOpts
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return errtax.New(errtax.InvalidSize, err.Error())
	}

	g, err := manifest.ReadGraphFile(opts.Graph)
	if err != nil {
		return err
	}

	seedClient, err := seedstore.Decrypt(opts.Passphrase, cfg.SeedPath, cfg.ScryptParams())
	if err != nil {
		return err
	}

	var seedPub [32]byte
	if opts.Manifest != "" {
		m, err := manifest.ReadFile(opts.Manifest)
		if err != nil {
			return err
		}
		seedPub, err = m.SeedPubBytes()
		if err != nil {
			return err
		}
	} else {
		seedPub, err = readSeedPub(cfg.SeedPath + ".pub")
		if err != nil {
			return err
		}
	}

	sigma, err := permutation.Derive(g.N(), seedClient, seedPub, permutation.DefaultContext)
	if err != nil {
		return err
	}

	mb, err := transport.NewFileMailbox(cfg.MailboxDir)
	if err != nil {
		return err
	}
	defer mb.Close(opts.Session)

	proverCfg := protocol.ProverConfig{
		Transport: mb,
		Session:   opts.Session,
		Rounds:    cfg.Rounds,
		Graph:     g,
		Sigma:     sigma,
	}
	if opts.UseIdentity {
		kp, err := identity.Generate()
		if err != nil {
			return err
		}
		proverCfg.Identity = kp
	}

	prover, err := protocol.NewProver(proverCfg)
	if err != nil {
		return err
	}

	ctx, cancel := withInterrupt(context.Background())
	defer cancel()

	result, err := prover.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("session %s: ok=%v rounds=%d msg=%s\n", result.Session, result.OK, result.Rounds, result.Msg)
	if !result.OK {
		return resultError(result.Msg)
	}
	return nil
}

// verifyOpts configures the `verify` subcommand.
type verifyOpts struct {
	Session  string `long:"session" required:"true" description:"Session identifier, shared with the prover"`
	N        int    `long:"n" required:"true" description:"Graph size, must match the enrolled graph"`
	Manifest string `long:"manifest" description:"Path to the enrollment manifest; accepted but not read by verify"`
}

func cmdVerify(cfg *config.Config, args []string) error {
	var opts verifyOpts
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return errtax.New(errtax.InvalidSize, err.Error())
	}

	mb, err := transport.NewFileMailbox(cfg.MailboxDir)
	if err != nil {
		return err
	}
	defer mb.Close(opts.Session)

	sessions := sessionmgr.NewRegistry()
	if _, err := sessions.Open(opts.Session, opts.N, cfg.Rounds); err != nil {
		return err
	}

	verifier, err := protocol.NewVerifier(protocol.VerifierConfig{
		Transport:        mb,
		Session:          opts.Session,
		Rounds:           cfg.Rounds,
		N:                opts.N,
		RequireFullCycle: cfg.RequireFullCycle,
	})
	if err != nil {
		return err
	}

	if err := sessions.MarkRunning(opts.Session); err != nil {
		return err
	}

	ctx, cancel := withInterrupt(context.Background())
	defer cancel()

	result, err := verifier.Run(ctx)
	if err != nil {
		_ = sessions.Resolve(opts.Session, false, err.Error())
		return err
	}
	_ = sessions.Resolve(opts.Session, result.OK, result.Msg)

	fmt.Printf("session %s: ok=%v rounds=%d msg=%s\n", result.Session, result.OK, result.Rounds, result.Msg)
	if !result.OK {
		return resultError(result.Msg)
	}
	return nil
}

// withInterrupt derives a context that is also canceled on SIGINT/SIGTERM.
func withInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()
	return ctx, cancel
}

func readSeedPub(path string) ([32]byte, error) {
	var out [32]byte
	data, err := os.ReadFile(path)
	if err != nil {
		return out, errtax.New(errtax.IoError, err.Error())
	}
	if len(data) != 32 {
		return out, errtax.New(errtax.DecodeError, "seed_pub file has wrong length")
	}
	copy(out[:], data)
	return out, nil
}

func readOrCreateSeedPub(path string) ([32]byte, error) {
	if out, err := readSeedPub(path); err == nil {
		return out, nil
	}
	var out [32]byte
	b, err := primitives.RandomBytes(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	if err := os.WriteFile(path, out[:], 0o644); err != nil {
		return out, errtax.New(errtax.IoError, err.Error())
	}
	return out, nil
}
