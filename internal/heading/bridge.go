// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"context"
	"errors"
	"sync"
)

// ErrBridgeClosed is returned when the bridge shuts down while a
// permission request is pending.
var ErrBridgeClosed = errors.New("heading: bridge closed")

// BridgeProvider is a permission-gated provider fed from outside the
// process, typically by a phone browser over the web socket. The phone
// asks its user for sensor access and reports the answer with
// ReportPermission; afterwards it streams samples through Push.
type BridgeProvider struct {
	mu       sync.Mutex
	answer   chan bool
	answered bool
	granted  bool
	fn       func(Sample)
	closed   bool
}

func NewBridgeProvider() *BridgeProvider {
	return &BridgeProvider{answer: make(chan bool, 1)}
}

func (b *BridgeProvider) Capability() Capability { return PermissionGated }

// RequestPermission waits for the phone's answer or for ctx.
func (b *BridgeProvider) RequestPermission(ctx context.Context) (bool, error) {
	b.mu.Lock()
	if b.answered {
		g := b.granted
		b.mu.Unlock()
		return g, nil
	}
	b.mu.Unlock()

	select {
	case g, ok := <-b.answer:
		if !ok {
			return false, ErrBridgeClosed
		}
		return g, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// ReportPermission records the phone's answer. Only the first answer counts.
func (b *BridgeProvider) ReportPermission(granted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.answered || b.closed {
		return
	}
	b.answered = true
	b.granted = granted
	b.answer <- granted
}

func (b *BridgeProvider) Subscribe(_ context.Context, fn func(Sample)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBridgeClosed
	}
	b.fn = fn
	return bridgeSub{b}, nil
}

// Push delivers a sample to the subscriber, if any. Samples arriving
// before a subscription are dropped.
func (b *BridgeProvider) Push(s Sample) {
	b.mu.Lock()
	fn := b.fn
	b.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Shutdown unblocks pending permission requests.
func (b *BridgeProvider) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.fn = nil
	if !b.answered {
		close(b.answer)
	}
}

type bridgeSub struct{ b *BridgeProvider }

func (s bridgeSub) Close() error {
	s.b.mu.Lock()
	s.b.fn = nil
	s.b.mu.Unlock()
	return nil
}
