// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/game"
	"github.com/relabs-tech/manhunt_client/internal/tracker"
)

// consoleSink prints at most one line per interval. Only the tracker
// goroutine calls Publish, so it needs no lock.
type consoleSink struct {
	out   io.Writer
	every time.Duration
	last  time.Time
}

func (c *consoleSink) Publish(s tracker.Snapshot) {
	if !c.last.IsZero() && s.Time.Sub(c.last) < c.every {
		return
	}
	c.last = s.Time
	fmt.Fprintln(c.out, formatSnapshot(s))
}

// formatSnapshot renders one console line for a snapshot.
func formatSnapshot(s tracker.Snapshot) string {
	var b strings.Builder
	switch s.Role {
	case game.Seeker:
		target := s.Needle.Target
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(&b, "[SEEK] target=%s dist=%s", target, s.Needle.DistanceText)
		if s.Seeker != nil {
			fmt.Fprintf(&b, " hiders=%d", len(s.Seeker.Targets))
		}
	default:
		fmt.Fprintf(&b, "[HIDE] closest=%s", s.Needle.DistanceText)
		if s.Hider != nil {
			fmt.Fprintf(&b, " seekers=%d", len(s.Hider.Threats))
			if s.Hider.ClosestInDanger {
				b.WriteString(" DANGER")
			}
		}
	}

	fmt.Fprintf(&b, "  needle=%7.1f°", s.Needle.Rotation.Accumulated)
	if s.Needle.HaveBearing {
		fmt.Fprintf(&b, " bearing=%5.1f°", s.Needle.Bearing)
	}
	if s.Needle.HaveHeading {
		fmt.Fprintf(&b, " heading=%5.1f°", s.Needle.Heading)
	}
	fmt.Fprintf(&b, "  compass=%s", s.Compass.State)
	if s.Location != nil {
		fmt.Fprintf(&b, "  lat=%.6f lon=%.6f", s.Location.Latitude, s.Location.Longitude)
	} else {
		b.WriteString("  location=none")
	}
	return b.String()
}
