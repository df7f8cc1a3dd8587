// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"os"
	"path/filepath"
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

// pollInterval is how often FileMailbox checks for a published message
// while Receive blocks.
const pollInterval = 20 * time.Millisecond

// FileMailbox is the reference Transport: a one-slot-per-kind mailbox
// backed by a shared directory. Publish writes to a temp file, fsyncs,
// then renames over the destination, so a concurrent Receive never sees a
// partially written message — the same discipline the btcsuite ecosystem
// uses for its own on-disk state. Receive consumes (removes) the message
// once read, so a session can reuse the same kind across rounds exactly
// like the original file-based mock.
type FileMailbox struct {
	dir string
}

// NewFileMailbox creates a mailbox rooted at dir, creating it if absent.
func NewFileMailbox(dir string) (*FileMailbox, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errtax.New(errtax.IoError, err.Error())
	}
	return &FileMailbox{dir: dir}, nil
}

func (fm *FileMailbox) path(session string, kind Kind) string {
	return filepath.Join(fm.dir, session+"."+string(kind))
}

// Publish implements Transport.
func (fm *FileMailbox) Publish(ctx context.Context, session string, kind Kind, payload []byte) error {
	dest := fm.path(session, kind)
	tmp := dest + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := f.Close(); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}
	if err := os.Rename(tmp, dest); err != nil {
		return errtax.New(errtax.IoError, err.Error())
	}

	log.Debugf("published %s for session %s (%d bytes)", kind, session, len(payload))
	return nil
}

// Receive implements Transport.
func (fm *FileMailbox) Receive(ctx context.Context, session string, kind Kind) ([]byte, error) {
	path := fm.path(session, kind)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		data, err := os.ReadFile(path)
		if err == nil {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warnf("failed to consume %s for session %s: %v", kind, session, rmErr)
			}
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, errtax.New(errtax.IoError, err.Error())
		}

		select {
		case <-ctx.Done():
			return nil, errtax.New(errtax.TimeoutError, "timed out waiting for "+string(kind))
		case <-ticker.C:
		}
	}
}

// Close removes every message kind's file for session, ignoring missing
// files.
func (fm *FileMailbox) Close(session string) error {
	for _, kind := range []Kind{KindCommits, KindChallenge, KindOpen, KindResult} {
		if err := os.Remove(fm.path(session, kind)); err != nil && !os.IsNotExist(err) {
			return errtax.New(errtax.IoError, err.Error())
		}
	}
	return nil
}
