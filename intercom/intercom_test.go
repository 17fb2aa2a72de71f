// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intercom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageBoxSendRecv(t *testing.T) {
	require := require.New(t)

	box := NewMessageBox[int](1)
	require.NoError(box.Send(context.Background(), 42))

	select {
	case v := <-box.Recv():
		require.Equal(42, v)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestMessageBoxSendRespectsContextCancellation(t *testing.T) {
	require := require.New(t)

	box := NewMessageBox[int](0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := box.Send(ctx, 1)
	require.ErrorIs(err, context.Canceled)
}

func TestReplyFutureRoundTrip(t *testing.T) {
	require := require.New(t)

	future, sender := NewReplyFuture[string]()
	go sender.Reply("hello")

	v, err := future.Wait(context.Background())
	require.NoError(err)
	require.Equal("hello", v)
}

func TestReplyFutureFail(t *testing.T) {
	require := require.New(t)

	future, sender := NewReplyFuture[string]()
	wantErr := errors.New("boom")
	go sender.Fail(wantErr)

	_, err := future.Wait(context.Background())
	require.ErrorIs(err, wantErr)
}

func TestReplyStreamDeliversValuesThenCloses(t *testing.T) {
	require := require.New(t)

	stream, sender := NewReplyStream[int](4)
	go func() {
		for i := 0; i < 3; i++ {
			_ = sender.Send(context.Background(), i)
		}
		sender.Close(nil)
	}()

	var got []int
	for v := range stream.Values() {
		got = append(got, v)
	}
	require.Equal([]int{0, 1, 2}, got)
	require.NoError(stream.Err())
}
