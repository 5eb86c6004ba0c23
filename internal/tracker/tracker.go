// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracker owns the live game state of one player: where we are,
// who else is in the lobby, and where the needle points.
package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/api"
	"github.com/relabs-tech/manhunt_client/internal/game"
	"github.com/relabs-tech/manhunt_client/internal/geo"
	"github.com/relabs-tech/manhunt_client/internal/gps"
	"github.com/relabs-tech/manhunt_client/internal/heading"
)

// API is the part of the game API the tracker calls while playing.
type API interface {
	TradePlayerData(ctx context.Context, lobbyID, playerToken string, pos *geo.Coordinate) (api.TradeResponse, error)
	UpdatePlayerName(ctx context.Context, lobbyID, playerToken, name string) error
	UpdatePlayerRole(ctx context.Context, lobbyID, playerToken string, isSeeker bool) error
}

// Compass is the heading source. *heading.Compass implements it.
type Compass interface {
	Capability() heading.Capability
	EffectiveState() heading.State
	Headings() <-chan float64
	RequestPermission(ctx context.Context) heading.State
}

// Metrics is notified of needle and roster changes.
type Metrics interface {
	NeedleUpdated(moved bool, accumulated float64)
	RosterUpdated(players int)
}

// Config is the tracker's static setup.
type Config struct {
	Session          Session
	PlayerName       string
	Role             game.Role
	LocationInterval time.Duration
	PollInterval     time.Duration
	Views            game.Views // zero value means game.NewViews()
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSink adds a snapshot consumer.
func WithSink(s Sink) Option {
	return func(t *Tracker) { t.sinks = append(t.sinks, s) }
}

// WithMetrics reports needle and roster changes to m.
func WithMetrics(m Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

type tradeResult struct {
	resp    api.TradeResponse
	err     error
	roleGen int // roleGen when the trade started
}

// Tracker is driven by Run. All fields below inbox are owned by the Run
// goroutine; other goroutines talk to it through the inbox.
type Tracker struct {
	cfg     Config
	api     API
	locator gps.Locator
	compass Compass
	sinks   []Sink
	metrics Metrics

	// credentials never change after New and are safe to read anywhere
	lobbyID string
	token   string

	inbox  chan any
	trades chan tradeResult

	lobbyName   string
	playerID    string
	self        *geo.Coordinate
	players     []api.Player
	role        game.Role
	roleGen     int
	name        string
	selected    string
	heading     float64
	haveHeading bool
	rotation    heading.Rotation
	trading     bool
	last        Snapshot
}

// New builds a tracker. compass may be nil when the device has no
// heading source at all.
func New(cfg Config, client API, locator gps.Locator, compass Compass, opts ...Option) *Tracker {
	if cfg.LocationInterval <= 0 {
		cfg.LocationInterval = 2 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Views.Now == nil {
		cfg.Views = game.NewViews()
	}
	if cfg.Role == "" {
		cfg.Role = game.Hider
	}
	t := &Tracker{
		cfg:     cfg,
		api:     client,
		locator: locator,
		compass: compass,
		lobbyID: cfg.Session.LobbyID,
		token:   cfg.Session.PlayerToken,
		inbox:   make(chan any, 32),
		trades:  make(chan tradeResult, 1),

		lobbyName: cfg.Session.LobbyName,
		playerID:  cfg.Session.PlayerID,
		role:      cfg.Role,
		name:      cfg.PlayerName,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run owns the game state until ctx is cancelled or the lobby ends the
// session. It returns nil on cancellation and the api error when the
// lobby is gone or our token was rejected.
func (t *Tracker) Run(ctx context.Context) error {
	locTicker := time.NewTicker(t.cfg.LocationInterval)
	defer locTicker.Stop()
	pollTicker := time.NewTicker(t.cfg.PollInterval)
	defer pollTicker.Stop()

	var headings <-chan float64
	if t.compass != nil {
		headings = t.compass.Headings()
	}

	t.sampleLocation(ctx)
	t.startTrade(ctx)
	t.update()

	for {
		select {
		case <-ctx.Done():
			return nil

		case cmd := <-t.inbox:
			t.handleCommand(cmd)

		case h := <-headings:
			t.heading = h
			t.haveHeading = true
			t.update()

		case <-locTicker.C:
			if t.sampleLocation(ctx) {
				t.update()
			}

		case <-pollTicker.C:
			t.startTrade(ctx)

		case res := <-t.trades:
			t.trading = false
			if res.err != nil {
				if api.SessionEnded(res.err) {
					log.Printf("tracker: session ended: %v", res.err)
					return res.err
				}
				log.Printf("tracker: trade player data: %v", res.err)
				continue
			}
			t.players = res.resp.Players
			if res.resp.LobbyName != "" {
				t.lobbyName = res.resp.LobbyName
			}
			if res.resp.PlayerID != "" {
				t.playerID = res.resp.PlayerID
			}
			if res.roleGen == t.roleGen {
				t.syncRole()
			}
			if t.metrics != nil {
				t.metrics.RosterUpdated(len(t.players))
			}
			t.update()
		}
	}
}

func (t *Tracker) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case selectTarget:
		t.selected = c.PlayerID
	case setRole:
		t.role = c.Role
		t.roleGen++
	case setName:
		t.name = c.Name
	case refresh:
	case snapshotRequest:
		c.Reply <- t.last
		return
	default:
		log.Printf("tracker: unknown command %T", cmd)
		return
	}
	t.update()
}

// sampleLocation asks the locator for a position and reports whether it
// changed. A locator with no fix keeps the previous position.
func (t *Tracker) sampleLocation(ctx context.Context) bool {
	if t.locator == nil {
		return false
	}
	pos, ok := t.locator.Locate(ctx)
	if !ok {
		return false
	}
	if t.self != nil && *t.self == pos {
		return false
	}
	t.self = &pos
	return true
}

// syncRole adopts the role the lobby has on record for us, so a change
// made from another device shows up here too.
func (t *Tracker) syncRole() {
	if t.playerID == "" {
		return
	}
	for _, p := range t.players {
		if p.PlayerID == t.playerID {
			if role := game.RoleOf(p); role != t.role {
				log.Printf("tracker: lobby has us as %s, was %s", role, t.role)
				t.role = role
			}
			return
		}
	}
}

// startTrade sends our latest position and fetches the roster. At most
// one trade is in flight; its result comes back on t.trades.
func (t *Tracker) startTrade(ctx context.Context) {
	if t.trading {
		return
	}
	t.trading = true

	var pos *geo.Coordinate
	if t.self != nil {
		p := *t.self
		pos = &p
	}
	gen := t.roleGen
	go func() {
		resp, err := t.api.TradePlayerData(ctx, t.lobbyID, t.token, pos)
		select {
		case t.trades <- tradeResult{resp: resp, err: err, roleGen: gen}:
		case <-ctx.Done():
		}
	}()
}

// update recomputes the views and the needle, then publishes.
func (t *Tracker) update() {
	snap := Snapshot{
		Time:       time.Now(),
		LobbyID:    t.lobbyID,
		LobbyName:  t.lobbyName,
		PlayerID:   t.playerID,
		PlayerName: t.name,
		Role:       t.role,
		Location:   t.self,
		Players:    len(t.players),
	}
	if t.compass != nil {
		state := t.compass.EffectiveState()
		snap.Compass = CompassStatus{
			Capability: t.compass.Capability().String(),
			State:      state,
			Advisory:   heading.Advisory(state),
		}
	} else {
		snap.Compass = CompassStatus{
			Capability: heading.NoSensor.String(),
			State:      heading.Unsupported,
			Advisory:   heading.Advisory(heading.Unsupported),
		}
	}

	var bearing float64
	var haveBearing bool
	snap.Needle.DistanceText = geo.FormatDistance(0, false)

	switch t.role {
	case game.Seeker:
		view := t.cfg.Views.Seeker(t.players, t.playerID, t.self, t.selected)
		t.selected = view.SelectedID
		if target, ok := view.Selected(); ok {
			bearing, haveBearing = t.cfg.Views.Geo.Bearing(t.self, target.Position)
			snap.Needle.Target = target.Name
			snap.Needle.DistanceText = target.DistanceText
		}
		snap.Seeker = &view
	default:
		view := t.cfg.Views.Hider(t.players, t.playerID, t.self)
		snap.Needle.DistanceText = view.ClosestText
		snap.Hider = &view
	}

	// Without a heading the needle is drawn relative to north.
	h := 0.0
	if t.haveHeading {
		h = t.heading
	}
	next := heading.Reconcile(t.rotation, heading.RawRotation(bearing, haveBearing, h))
	moved := next != t.rotation
	t.rotation = next
	if t.metrics != nil {
		t.metrics.NeedleUpdated(moved, next.Accumulated)
	}

	snap.Needle.Heading = h
	snap.Needle.HaveHeading = t.haveHeading
	snap.Needle.Bearing = bearing
	snap.Needle.HaveBearing = haveBearing
	snap.Needle.Rotation = t.rotation

	t.last = snap
	for _, s := range t.sinks {
		s.Publish(snap)
	}
}

func (t *Tracker) send(ctx context.Context, cmd any) error {
	select {
	case t.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select makes playerID the tracked target. An id that is not a hider in
// the roster falls back to the first hider on the next update.
func (t *Tracker) Select(ctx context.Context, playerID string) error {
	return t.send(ctx, selectTarget{PlayerID: playerID})
}

// SetRole switches sides on the server, then locally.
func (t *Tracker) SetRole(ctx context.Context, role game.Role) error {
	if err := t.api.UpdatePlayerRole(ctx, t.lobbyID, t.token, role == game.Seeker); err != nil {
		return fmt.Errorf("set role %s: %w", role, err)
	}
	return t.send(ctx, setRole{Role: role})
}

// SetName renames the player on the server, then locally.
func (t *Tracker) SetName(ctx context.Context, name string) error {
	name, err := api.ValidateName(name)
	if err != nil {
		return err
	}
	if err := t.api.UpdatePlayerName(ctx, t.lobbyID, t.token, name); err != nil {
		return fmt.Errorf("set name: %w", err)
	}
	return t.send(ctx, setName{Name: name})
}

// RequestPermission asks the compass for sensor access. It blocks until
// the provider answers, then republishes with the new state.
func (t *Tracker) RequestPermission(ctx context.Context) (heading.State, error) {
	if t.compass == nil {
		return heading.Unsupported, nil
	}
	state := t.compass.RequestPermission(ctx)
	if err := t.send(ctx, refresh{}); err != nil {
		return state, err
	}
	return state, nil
}

// Snapshot returns the last published snapshot.
func (t *Tracker) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := t.send(ctx, snapshotRequest{Reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
