// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// State is the compass permission state.
type State int

const (
	Unknown State = iota // waiting for the user to grant access
	Granted
	Denied
	Unsupported
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v {
	case "unknown":
		*s = Unknown
	case "granted":
		*s = Granted
	case "denied":
		*s = Denied
	case "unsupported":
		*s = Unsupported
	default:
		return fmt.Errorf("unknown compass state %q", v)
	}
	return nil
}

// Advisory is the message shown to the player for a terminal state, or "".
func Advisory(s State) string {
	switch s {
	case Denied:
		return "Compass access denied. Please enable in device settings."
	case Unsupported:
		return "Compass not available on this device. Arrow shows direction from North."
	}
	return ""
}

// Capability is what the orientation provider can do. It is probed once
// when the compass opens and never re-evaluated per event.
type Capability int

const (
	PermissionGated Capability = iota // absolute heading behind an explicit grant
	AbsoluteUngated                   // absolute heading, no grant needed
	RelativeUngated                   // relative alpha only, no grant needed
	NoSensor                          // no orientation sensor at all
)

func (c Capability) String() string {
	switch c {
	case PermissionGated:
		return "permission_gated"
	case AbsoluteUngated:
		return "absolute"
	case RelativeUngated:
		return "relative"
	case NoSensor:
		return "unsupported"
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// ParseCapability accepts the names produced by Capability.String.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permission_gated", "gated":
		return PermissionGated, nil
	case "absolute":
		return AbsoluteUngated, nil
	case "relative":
		return RelativeUngated, nil
	case "unsupported", "none":
		return NoSensor, nil
	}
	return 0, fmt.Errorf("unknown heading capability %q", s)
}

// InitialState is where the permission machine starts for a capability.
func InitialState(c Capability) State {
	switch c {
	case PermissionGated:
		return Unknown
	case AbsoluteUngated, RelativeUngated:
		return Granted
	}
	return Unsupported
}

// Permission is the state machine unknown -> granted | denied. Granted,
// Denied and Unsupported are terminal.
type Permission struct {
	mu    sync.Mutex
	state State
}

func NewPermission(c Capability) *Permission {
	return &Permission{state: InitialState(c)}
}

func (p *Permission) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Grant moves Unknown to Granted. It reports whether the transition happened.
func (p *Permission) Grant() bool { return p.transition(Granted) }

// Deny moves Unknown to Denied. It reports whether the transition happened.
func (p *Permission) Deny() bool { return p.transition(Denied) }

func (p *Permission) transition(to State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Unknown {
		return false
	}
	p.state = to
	return true
}
