// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config parses the hamzkp command's flags and environment into a
// validated Config, the way btcd's own config.go layers jessevdk/go-flags
// over a struct of tagged fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
	"github.com/tomvox444/hamiltonian-crypt/errtax"
	"github.com/tomvox444/hamiltonian-crypt/primitives"
)

const (
	defaultRounds       = 32
	defaultLogLevel     = "info"
	defaultLogFilename  = "hamzkp.log"
	defaultMailboxDir   = "mailbox"
	defaultSeedFilename = "seed"
)

// DefaultHomeDir returns $HOME/.zkp-ham, creating no directories itself.
func DefaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".zkp-ham")
}

// Config is the fully resolved configuration shared by every hamzkp
// subcommand. Fields are tagged for go-flags so `hamzkp --help` documents
// them without a hand-maintained usage string.
type Config struct {
	HomeDir   string `long:"homedir" description:"Directory for the seed file, graph cache, and log output"`
	SeedPath  string `long:"seedpath" description:"Path to the encrypted seed file (defaults to <homedir>/seed)"`
	LogLevel  string `long:"loglevel" description:"Logging level: trace, debug, info, warn, error, critical" default:"info"`
	LogDir    string `long:"logdir" description:"Directory for rotated log files (defaults to <homedir>/logs)"`
	NoLogFile bool   `long:"nologfile" description:"Disable all logging output, both the log file and stderr"`

	MailboxDir string `long:"mailbox" description:"Directory backing the reference file-based transport"`
	Rounds     int    `long:"rounds" short:"t" description:"Number of commit/challenge/open rounds" default:"32"`

	ScryptN int `long:"scryptn" description:"scrypt CPU/memory cost parameter N (power of two)" default:"131072"`
	ScryptR int `long:"scryptr" description:"scrypt block size parameter r" default:"8"`
	ScryptP int `long:"scryptp" description:"scrypt parallelization parameter p" default:"1"`

	RequireFullCycle bool `long:"requirefullcycle" description:"Reject a b=1 opening unless it reveals the entire n-vertex cycle"`

	IdentityPub string `long:"identitypub" description:"Hex-encoded prover identity public key; not read by any subcommand, so verify runs without an identity allowlist"`
}

// defaultConfig returns a Config with every default populated, before flag
// parsing overrides fields the caller actually set.
func defaultConfig() *Config {
	home := DefaultHomeDir()
	return &Config{
		HomeDir:    home,
		SeedPath:   filepath.Join(home, defaultSeedFilename),
		LogLevel:   defaultLogLevel,
		LogDir:     filepath.Join(home, "logs"),
		MailboxDir: filepath.Join(home, defaultMailboxDir),
		Rounds:     defaultRounds,
		ScryptN:    primitives.DefaultScryptParams.N,
		ScryptR:    primitives.DefaultScryptParams.R,
		ScryptP:    primitives.DefaultScryptParams.P,
	}
}

// Parse parses args (typically os.Args[1:]) against a fresh default Config,
// resolves any path defaults that depend on a flag-overridden HomeDir, and
// validates the result. The returned extra slice holds the subcommand and
// its positional arguments for the caller's command dispatcher.
func Parse(args []string) (cfg *Config, extra []string, err error) {
	cfg = defaultConfig()
	parser := flags.NewParser(cfg, flags.Default)
	parser.SubcommandsOptional = true

	extra, err = parser.ParseArgs(args)
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, errtax.New(errtax.DecodeError, "parsing flags: "+err.Error())
	}

	cfg.resolveDefaults()
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	return cfg, extra, nil
}

// resolveDefaults re-derives any path that should track an explicitly
// overridden HomeDir but was left at its pre-parse default.
func (c *Config) resolveDefaults() {
	def := defaultConfig()
	if c.SeedPath == def.SeedPath {
		c.SeedPath = filepath.Join(c.HomeDir, defaultSeedFilename)
	}
	if c.LogDir == def.LogDir {
		c.LogDir = filepath.Join(c.HomeDir, "logs")
	}
	if c.MailboxDir == def.MailboxDir {
		c.MailboxDir = filepath.Join(c.HomeDir, defaultMailboxDir)
	}
}

func (c *Config) validate() error {
	if c.Rounds <= 0 {
		return errtax.New(errtax.InvalidSize, "rounds must be positive")
	}
	if c.ScryptN <= 1 || c.ScryptN&(c.ScryptN-1) != 0 {
		return errtax.New(errtax.InvalidSize, "scryptn must be a power of two greater than one")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "critical", "off":
	default:
		return errtax.New(errtax.InvalidRange, fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	return nil
}

// ScryptParams builds a primitives.ScryptParams from the parsed flags.
func (c *Config) ScryptParams() primitives.ScryptParams {
	return primitives.ScryptParams{N: c.ScryptN, R: c.ScryptR, P: c.ScryptP, KeyLen: 32}
}

// LogFilePath returns the rotated log file's path, honoring NoLogFile.
func (c *Config) LogFilePath() string {
	if c.NoLogFile {
		return ""
	}
	return filepath.Join(c.LogDir, defaultLogFilename)
}
