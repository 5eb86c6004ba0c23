// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package game turns a lobby roster into what a seeker or a hider sees.
package game

import (
	"fmt"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/api"
	"github.com/relabs-tech/manhunt_client/internal/geo"
)

// DangerRadius is how close a seeker has to be before a hider is warned.
const DangerRadius = 100.0

// Role is the player's side.
type Role string

const (
	Seeker Role = "seeker"
	Hider  Role = "hider"
)

// RoleOf returns the role a roster entry plays.
func RoleOf(p api.Player) Role {
	if p.IsSeeker {
		return Seeker
	}
	return Hider
}

// ParseRole accepts "seeker" or "hider".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case Seeker, Hider:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// DisplayName is the player's name, or "Player <id>" if unnamed.
func DisplayName(p api.Player) string {
	if p.Name != "" {
		return p.Name
	}
	return "Player " + p.PlayerID
}

// Entry is one other player with their distance from us.
type Entry struct {
	PlayerID     string          `json:"player_id"`
	Name         string          `json:"name"`
	Role         Role            `json:"role"`
	Position     *geo.Coordinate `json:"position,omitempty"`
	Distance     float64         `json:"distance_m"`
	HaveDistance bool            `json:"have_distance"`
	DistanceText string          `json:"distance_text"`
	Danger       bool            `json:"danger,omitempty"`
	Selected     bool            `json:"selected,omitempty"`
	LastSeen     string          `json:"last_seen"`
}

// SeekerView is a seeker's list of targets.
type SeekerView struct {
	Targets    []Entry `json:"targets"`
	SelectedID string  `json:"selected_id,omitempty"`
}

// Selected returns the tracked target, if any.
func (v SeekerView) Selected() (Entry, bool) {
	for _, e := range v.Targets {
		if e.PlayerID == v.SelectedID {
			return e, true
		}
	}
	return Entry{}, false
}

// HiderView is a hider's list of threats.
type HiderView struct {
	Threats         []Entry `json:"threats"`
	Closest         float64 `json:"closest_m"`
	HaveClosest     bool    `json:"have_closest"`
	ClosestText     string  `json:"closest_text"`
	ClosestInDanger bool    `json:"closest_danger"`
}

// Views computes distances with a geo.Calculator.
type Views struct {
	Geo geo.Calculator
	Now func() time.Time
}

// NewViews uses the default missing-coordinate policy and the wall clock.
func NewViews() Views {
	return Views{Geo: geo.Default, Now: time.Now}
}

func (v Views) entry(p api.Player, self *geo.Coordinate) Entry {
	pos := p.Position()
	d, ok := v.Geo.Distance(self, pos)
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	return Entry{
		PlayerID:     p.PlayerID,
		Name:         DisplayName(p),
		Role:         RoleOf(p),
		Position:     pos,
		Distance:     d,
		HaveDistance: ok,
		DistanceText: geo.FormatDistance(d, ok),
		Danger:       ok && d < DangerRadius,
		LastSeen:     TimeAgo(p.LocationLastUpdated, now()),
	}
}

// Seeker lists the hiders in players and picks the tracked one: the
// previous selection while it is still in the lobby, otherwise the first
// hider, otherwise nobody.
func (v Views) Seeker(players []api.Player, selfID string, self *geo.Coordinate, selectedID string) SeekerView {
	var view SeekerView
	for _, p := range players {
		if p.PlayerID == selfID || p.IsSeeker {
			continue
		}
		view.Targets = append(view.Targets, v.entry(p, self))
	}

	view.SelectedID = ""
	for _, e := range view.Targets {
		if e.PlayerID == selectedID && selectedID != "" {
			view.SelectedID = selectedID
			break
		}
	}
	if view.SelectedID == "" && len(view.Targets) > 0 {
		view.SelectedID = view.Targets[0].PlayerID
	}
	for i := range view.Targets {
		view.Targets[i].Selected = view.Targets[i].PlayerID == view.SelectedID
	}
	return view
}

// Hider lists the seekers in players and finds the closest one with a
// known distance.
func (v Views) Hider(players []api.Player, selfID string, self *geo.Coordinate) HiderView {
	var view HiderView
	for _, p := range players {
		if p.PlayerID == selfID || !p.IsSeeker {
			continue
		}
		e := v.entry(p, self)
		view.Threats = append(view.Threats, e)
		if e.HaveDistance && (!view.HaveClosest || e.Distance < view.Closest) {
			view.Closest = e.Distance
			view.HaveClosest = true
		}
	}
	view.ClosestText = geo.FormatDistance(view.Closest, view.HaveClosest)
	// a seeker at exactly our position (0 m) counts as danger
	view.ClosestInDanger = view.HaveClosest && view.Closest < DangerRadius
	return view
}

// TimeAgo renders how long ago an epoch-milliseconds timestamp was.
func TimeAgo(epochMillis int64, now time.Time) string {
	if epochMillis == 0 {
		return "N/A"
	}
	secs := (now.UnixMilli() - epochMillis) / 1000
	switch {
	case secs < 5:
		// includes timestamps from the future (clock skew)
		return "Just now"
	case secs < 60:
		return fmt.Sprintf("%ds ago", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	}
	return fmt.Sprintf("%dh ago", secs/3600)
}
