// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"math"

	"github.com/relabs-tech/manhunt_client/internal/geo"
)

// NoiseThreshold is the smallest change in degrees that moves the needle.
const NoiseThreshold = 0.1

// Rotation is the needle state. Accumulated is deliberately not wrapped:
// it is the total rotation applied since the first reading, so a renderer
// animating between two values always turns the short way.
type Rotation struct {
	Accumulated float64 `json:"accumulated"`
	Reference   float64 `json:"reference"` // last accepted raw rotation, [0,360)
	Initialized bool    `json:"initialized"`
}

// RawRotation is the needle angle relative to the device's top edge:
// bearing minus heading, in [0,360). Without a bearing the needle points
// at 0.
func RawRotation(bearing float64, haveBearing bool, heading float64) float64 {
	if !haveBearing {
		return 0
	}
	return geo.Wrap360(bearing - heading)
}

// ShortestDelta returns to - from folded into [-180,180].
func ShortestDelta(from, to float64) float64 {
	diff := to - from
	if diff > 180 {
		diff -= 360
	} else if diff < -180 {
		diff += 360
	}
	return diff
}

// Reconcile folds a new raw rotation into prev and returns the next state.
// The accumulated value never moves by more than 180° per call, and
// changes at or below NoiseThreshold leave the state untouched.
func Reconcile(prev Rotation, raw float64) Rotation {
	raw = geo.Wrap360(raw)
	if !prev.Initialized {
		return Rotation{Accumulated: raw, Reference: raw, Initialized: true}
	}

	diff := ShortestDelta(prev.Reference, raw)
	if math.Abs(diff) <= NoiseThreshold {
		return prev
	}
	return Rotation{
		Accumulated: prev.Accumulated + diff,
		Reference:   raw,
		Initialized: true,
	}
}
