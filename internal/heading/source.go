// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"context"
	"log"
	"math"
	"sync"
	"time"
)

// Source is anything that can be polled for samples.
type Source interface {
	Next() (Sample, error)
}

type mockSource struct {
	start time.Time
	rate  float64 // degrees per second
	now   func() time.Time
}

// NewMockSource creates a source that turns slowly clockwise with a
// little wobble, reported as an iOS-style compass heading.
func NewMockSource(rate float64) Source {
	return &mockSource{start: time.Now(), rate: rate, now: time.Now}
}

func (m *mockSource) Next() (Sample, error) {
	now := m.now()
	elapsed := now.Sub(m.start).Seconds()
	h := math.Mod(elapsed*m.rate+5*math.Sin(elapsed), 360)
	if h < 0 {
		h += 360
	}
	return Sample{CompassHeading: Float(h), Time: now}, nil
}

// PollingProvider turns a Source into a Provider by polling it on a ticker.
type PollingProvider struct {
	Source   Source
	Interval time.Duration
	Cap      Capability
}

// NewMockProvider polls a mock source at 10 Hz.
func NewMockProvider(rate float64) *PollingProvider {
	return &PollingProvider{
		Source:   NewMockSource(rate),
		Interval: 100 * time.Millisecond,
		Cap:      AbsoluteUngated,
	}
}

func (p *PollingProvider) Capability() Capability { return p.Cap }

func (p *PollingProvider) RequestPermission(context.Context) (bool, error) {
	return true, nil
}

func (p *PollingProvider) Subscribe(ctx context.Context, fn func(Sample)) (Subscription, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &pollingSub{cancel: cancel}
	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s, err := p.Source.Next()
				if err != nil {
					log.Printf("heading: source read error: %v", err)
					continue
				}
				fn(s)
			}
		}
	}()
	return sub, nil
}

type pollingSub struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *pollingSub) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}
