// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestAcquireNeverExceedsMaxConnectionsUnderConcurrency(t *testing.T) {
	require := require.New(t)

	h := New(ids.Empty, 10, nil)

	var wg sync.WaitGroup
	var admitted int32Counter
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.acquire() {
				admitted.add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(10, admitted.get(), "exactly max_connections admitted, never more")
}

// int32Counter is a tiny atomic counter local to this test file; using
// the production Hub's own atomic field would not exercise anything
// extra, and a sync.Mutex-guarded int is simplest here.
type int32Counter struct {
	mu  sync.Mutex
	val int
}

func (c *int32Counter) add(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val += n
}

func (c *int32Counter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	require := require.New(t)

	h := New(ids.Empty, 1, nil)
	require.True(h.acquire())
	require.False(h.acquire(), "second acquire should fail at capacity 1")

	h.release()
	require.True(h.acquire(), "slot freed after release")
}

func TestNewTipDeliversLatestEvenToSlowSubscriber(t *testing.T) {
	require := require.New(t)

	h := New(ids.Empty, 10, nil)
	ts, _, _ := h.subscribe()
	defer h.unsubscribe(ts, nil)

	first := ids.GenerateTestID()
	second := ids.GenerateTestID()

	h.NewTip(first)
	h.NewTip(second)

	select {
	case got := <-ts.ch:
		require.Equal(second, got, "watch-style slot holds only the latest tip")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tip")
	}
}

func TestNewBlockDropsOldestWhenSubscriberLags(t *testing.T) {
	require := require.New(t)

	h := New(ids.Empty, 10, nil)
	_, bs, _ := h.subscribe()
	defer h.unsubscribe(nil, bs)

	for i := 0; i < 20; i++ {
		h.NewBlock(ids.GenerateTestID())
	}

	require.LessOrEqual(len(bs.ch), 16, "ring never exceeds its capacity")
}
