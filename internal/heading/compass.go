// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrUnsupported is returned by providers that have no sensor.
var ErrUnsupported = errors.New("heading: no orientation sensor")

// Subscription is a live attachment to a provider. Close releases it.
type Subscription interface {
	Close() error
}

// Provider is an orientation sensor source.
type Provider interface {
	Capability() Capability
	// RequestPermission asks for sensor access. Only meaningful for
	// PermissionGated providers; the rest return true.
	RequestPermission(ctx context.Context) (bool, error)
	// Subscribe attaches fn to the sensor. fn may be called from any
	// goroutine until the returned Subscription is closed.
	Subscribe(ctx context.Context, fn func(Sample)) (Subscription, error)
}

// Observer is notified about every incoming sample. Used for metrics.
type Observer interface {
	SampleApplied()
	SampleIgnored()
}

// Compass owns one provider subscription and turns raw samples into
// normalised headings. Open it, defer Close.
type Compass struct {
	provider   Provider
	capability Capability
	permission *Permission
	observer   Observer

	headings chan float64

	mu      sync.Mutex
	sub     Subscription
	failed  bool
	closed  bool
	pending chan struct{} // closed when the in-flight permission request ends
}

// Option configures a Compass.
type Option func(*Compass)

// WithObserver sets a sample observer.
func WithObserver(o Observer) Option {
	return func(c *Compass) { c.observer = o }
}

// Open probes the provider's capability and, for providers that do not
// gate the sensor, attaches immediately. It never fails: a provider that
// cannot subscribe leaves the compass in the Failed state.
func Open(ctx context.Context, p Provider, opts ...Option) *Compass {
	if p == nil {
		p = Unavailable{}
	}
	capability := p.Capability()
	c := &Compass{
		provider:   p,
		capability: capability,
		permission: NewPermission(capability),
		headings:   make(chan float64, 1),
	}
	for _, o := range opts {
		o(c)
	}

	if c.permission.State() == Granted {
		c.attach(ctx)
	}
	log.Printf("compass: opened with %s provider, state %s", capability, c.State())
	return c
}

// Capability is the capability probed at Open.
func (c *Compass) Capability() Capability { return c.capability }

// State is the permission state.
func (c *Compass) State() State { return c.permission.State() }

// Failed reports whether attaching to the sensor failed. A failed compass
// delivers no further headings.
func (c *Compass) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// EffectiveState is the state a UI should render: a granted compass whose
// sensor failed is shown as unsupported.
func (c *Compass) EffectiveState() State {
	s := c.State()
	if s == Granted && c.Failed() {
		return Unsupported
	}
	return s
}

// Headings delivers normalised headings. Only the latest value is kept
// when the reader falls behind.
func (c *Compass) Headings() <-chan float64 { return c.headings }

// RequestPermission asks the provider for access. It has an effect only
// in the Unknown state and must be triggered by a user action on
// platforms that require it. On grant the sensor is attached; on refusal
// or error the compass moves to Denied with nothing attached. Concurrent
// callers share one provider request.
func (c *Compass) RequestPermission(ctx context.Context) State {
	c.mu.Lock()
	if c.permission.State() != Unknown {
		c.mu.Unlock()
		return c.State()
	}
	if wait := c.pending; wait != nil {
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
		}
		return c.State()
	}
	done := make(chan struct{})
	c.pending = done
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		close(done)
	}()

	granted, err := c.provider.RequestPermission(ctx)
	if err != nil {
		log.Printf("compass: permission request failed: %v", err)
		c.permission.Deny()
		return c.State()
	}
	if !granted {
		log.Println("compass: permission denied")
		c.permission.Deny()
		return c.State()
	}

	if c.permission.Grant() {
		c.attach(ctx)
	}
	return c.State()
}

func (c *Compass) attach(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.sub != nil {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	sub, err := c.provider.Subscribe(ctx, c.ingest)

	c.mu.Lock()
	if err != nil {
		c.failed = true
		c.mu.Unlock()
		log.Printf("compass: sensor subscription failed, no heading updates this session: %v", err)
		return
	}
	if c.closed {
		c.mu.Unlock()
		_ = sub.Close()
		return
	}
	c.sub = sub
	c.mu.Unlock()
}

func (c *Compass) ingest(s Sample) {
	h, ok := Normalize(s)
	if !ok {
		if c.observer != nil {
			c.observer.SampleIgnored()
		}
		return
	}
	if c.observer != nil {
		c.observer.SampleApplied()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	// latest wins
	select {
	case <-c.headings:
	default:
	}
	c.headings <- h
}

// Close detaches from the provider. Safe to call more than once.
func (c *Compass) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	// outside the lock: providers may wait for an in-flight ingest
	if sub == nil {
		return nil
	}
	return sub.Close()
}

// Unavailable is the provider for devices without an orientation sensor.
type Unavailable struct{}

func (Unavailable) Capability() Capability { return NoSensor }

func (Unavailable) RequestPermission(context.Context) (bool, error) {
	return false, ErrUnsupported
}

func (Unavailable) Subscribe(context.Context, func(Sample)) (Subscription, error) {
	return nil, ErrUnsupported
}
