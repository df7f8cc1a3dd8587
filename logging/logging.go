// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logging wires a single rotating-file btclog.Backend into every
// subsystem logger of this module. Each package keeps its own
// package-level `log btclog.Logger` (disabled until UseLogger is called);
// this package is the root that installs real backends into all of them.
package logging

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem identifies one of the module's loggers by the same short tag
// used in log lines.
type Subsystem string

const (
	SubsystemDRBG       Subsystem = "DRBG"
	SubsystemSeedStore  Subsystem = "SEED"
	SubsystemPermute    Subsystem = "PERM"
	SubsystemGraph      Subsystem = "GRPH"
	SubsystemCommit     Subsystem = "CMIT"
	SubsystemProtocol   Subsystem = "PROT"
	SubsystemTransport  Subsystem = "XPRT"
	SubsystemSessionMgr Subsystem = "SESS"
	SubsystemIdentity   Subsystem = "IDEN"
)

// UseLoggerFunc is implemented by every subsystem package as
// `UseLogger(btclog.Logger)`.
type UseLoggerFunc func(btclog.Logger)

// Registry maps a subsystem tag to the setter exposed by its package. Main
// packages populate this at init time and call InitLogRotator once flags
// are parsed.
type Registry map[Subsystem]UseLoggerFunc

var backendLog *btclog.Backend

// InitLogRotator initializes a rotating file logger at logFile, sized in
// megabytes, keeping maxRolls old files, and installs loggers for every
// entry in reg at the requested level. It also logs to stderr.
func InitLogRotator(logFile string, maxRollMB int, maxRolls int, level btclog.Level, reg Registry) error {
	if err := os.MkdirAll(dirOf(logFile), 0o700); err != nil {
		return err
	}

	r, err := rotator.New(logFile, int64(maxRollMB)*1024, false, maxRolls)
	if err != nil {
		return err
	}

	w := io.MultiWriter(os.Stderr, r)
	backendLog = btclog.NewBackend(w)

	for tag, setter := range reg {
		l := backendLog.Logger(string(tag))
		l.SetLevel(level)
		setter(l)
	}

	return nil
}

// DisableAll installs btclog.Disabled for every entry in reg, restoring
// the silent default.
func DisableAll(reg Registry) {
	for _, setter := range reg {
		setter(btclog.Disabled)
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
