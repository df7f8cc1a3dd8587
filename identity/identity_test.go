// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	commits := [][32]byte{{1}, {2}, {3}}
	sig, err := Sign(kp, "session-1", commits)
	require.NoError(t, err)

	require.NoError(t, Verify(kp.Pub, "session-1", commits, sig))
}

func TestVerifyRejectsWrongTranscript(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	commits := [][32]byte{{1}, {2}, {3}}
	sig, err := Sign(kp, "session-1", commits)
	require.NoError(t, err)

	tampered := [][32]byte{{1}, {2}, {9}}
	require.Error(t, Verify(kp.Pub, "session-1", tampered, sig))
}

func TestAllowlistEmptyAllowsAll(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	al := Allowlist{}
	require.True(t, al.Allows(kp.Pub))
}

func TestAllowlistRejectsUnknown(t *testing.T) {
	known, err := Generate()
	require.NoError(t, err)
	unknown, err := Generate()
	require.NoError(t, err)

	al := NewAllowlist(known.Pub)
	require.True(t, al.Allows(known.Pub))
	require.False(t, al.Allows(unknown.Pub))
}
