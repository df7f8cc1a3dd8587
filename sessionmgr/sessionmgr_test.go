// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sessionmgr

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMarkResolveLifecycle(t *testing.T) {
	r := NewRegistry()

	s, err := r.Open("sess-1", 16, 32)
	require.NoError(t, err)
	require.Equal(t, StatusPending, s.Status)

	require.NoError(t, r.MarkRunning("sess-1"))
	snap, ok := r.Get("sess-1")
	require.True(t, ok)
	require.Equal(t, StatusRunning, snap.Status)

	require.NoError(t, r.Resolve("sess-1", true, "ok"))
	snap, ok = r.Get("sess-1")
	require.True(t, ok)
	require.Equal(t, StatusAccepted, snap.Status)
	require.False(t, snap.EndedAt.IsZero())
}

func TestReopenWhileInProgressRejected(t *testing.T) {
	r := NewRegistry()
	_, err := r.Open("sess-1", 16, 32)
	require.NoError(t, err)

	_, err = r.Open("sess-1", 16, 32)
	require.Error(t, err)
}

func TestReopenAfterResolutionAllowed(t *testing.T) {
	r := NewRegistry()
	_, err := r.Open("sess-1", 16, 32)
	require.NoError(t, err)
	require.NoError(t, r.Resolve("sess-1", false, "CycleInvalid:test"))

	_, err = r.Open("sess-1", 16, 32)
	require.NoError(t, err)
}

func TestEvictRejectsInProgress(t *testing.T) {
	r := NewRegistry()
	_, err := r.Open("sess-1", 16, 32)
	require.NoError(t, err)
	require.Error(t, r.Evict("sess-1"))

	require.NoError(t, r.Resolve("sess-1", true, "ok"))
	require.NoError(t, r.Evict("sess-1"))
	_, ok := r.Get("sess-1")
	require.False(t, ok)
}

func TestConcurrentSessionsAreIsolated(t *testing.T) {
	r := NewRegistry()
	const count = 64

	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", i)
			_, err := r.Open(id, 16, 8)
			require.NoError(t, err)
			require.NoError(t, r.MarkRunning(id))
			require.NoError(t, r.Resolve(id, i%2 == 0, "done"))
		}(i)
	}
	wg.Wait()

	require.Empty(t, r.Active())
	for i := 0; i < count; i++ {
		snap, ok := r.Get(fmt.Sprintf("sess-%d", i))
		require.True(t, ok)
		if i%2 == 0 {
			require.Equal(t, StatusAccepted, snap.Status)
		} else {
			require.Equal(t, StatusRejected, snap.Status)
		}
	}
}
