// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Parser folds NMEA sentences into the latest fix. RMC carries position,
// speed and validity; GGA adds altitude and satellite count. Each sentence
// also reports whether the receiver has a fix right now; one that says it
// has none updates the status but never the position.
type Parser struct {
	current Fix
}

// Feed parses one line. It reports whether the line updated the position.
// Garbage and partial sentences are skipped silently: serial GPS output is
// noisy right after power-up.
func (p *Parser) Feed(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return false
	}

	switch m := sentence.(type) {
	case nmea.RMC:
		p.current.Time = m.Time.String()
		p.current.Date = m.Date.String()
		p.current.Validity = m.Validity
		if m.Validity != nmea.ValidRMC {
			return false
		}
		p.current.Latitude = m.Latitude
		p.current.Longitude = m.Longitude
		p.current.SpeedKnots = m.Speed
		p.current.CourseDeg = m.Course
		return true
	case nmea.GGA:
		p.current.Time = m.Time.String()
		p.current.FixQuality = m.FixQuality
		p.current.Satellites = m.NumSatellites
		if m.FixQuality == "" || m.FixQuality == nmea.Invalid {
			return false
		}
		p.current.Latitude = m.Latitude
		p.current.Longitude = m.Longitude
		p.current.Altitude = m.Altitude
		return true
	}
	// GSA, GSV, VTG etc. are not needed
	return false
}

// Fix returns the accumulated fix.
func (p *Parser) Fix() Fix { return p.current }
