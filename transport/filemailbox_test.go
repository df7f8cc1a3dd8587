// Copyright (c) 2025 Tomvox Project developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileMailboxPublishReceive(t *testing.T) {
	fm, err := NewFileMailbox(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fm.Publish(ctx, "sess-1", KindCommits, []byte("hello")))

	got, err := fm.Receive(ctx, "sess-1", KindCommits)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestFileMailboxReceiveConsumes(t *testing.T) {
	fm, err := NewFileMailbox(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fm.Publish(ctx, "sess-1", KindOpen, []byte("round-1")))
	_, err = fm.Receive(ctx, "sess-1", KindOpen)
	require.NoError(t, err)

	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = fm.Receive(ctx2, "sess-1", KindOpen)
	require.Error(t, err)
}

func TestFileMailboxReceiveTimesOut(t *testing.T) {
	fm, err := NewFileMailbox(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err = fm.Receive(ctx, "sess-never", KindChallenge)
	require.Error(t, err)
}

func TestFileMailboxConcurrentPublishNeverTorn(t *testing.T) {
	fm, err := NewFileMailbox(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fm.Publish(ctx, "sess-race", KindResult, payload)
		}()
	}
	wg.Wait()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	got, err := fm.Receive(ctx2, "sess-race", KindResult)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
