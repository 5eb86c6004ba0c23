// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"math"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/geo"
)

// Sample is one raw orientation event as a phone or producer reports it.
// Which fields are set depends on the platform that produced it.
type Sample struct {
	// CompassHeading is the iOS-style true heading from North, 0-360.
	CompassHeading *float64 `json:"compass_heading,omitempty"`

	// Alpha is the device rotation around the z axis, 0-360.
	Alpha *float64 `json:"alpha,omitempty"`

	// Absolute marks Alpha/Quaternion as referenced to magnetic North.
	Absolute bool `json:"absolute,omitempty"`

	// Quaternion is [x, y, z, w] from an absolute orientation sensor.
	Quaternion *[4]float64 `json:"quaternion,omitempty"`

	Time time.Time `json:"time"`
}

// Normalize turns a raw sample into a compass heading in [0,360).
//
// Priority:
//
//  1. compass heading, used as-is
//  2. absolute quaternion, yaw
//  3. absolute alpha, 360 - alpha
//  4. relative alpha, used as-is (drifts without magnetic correction)
//
// ok is false when the sample carries nothing usable.
func Normalize(s Sample) (float64, bool) {
	switch {
	case finite(s.CompassHeading):
		return geo.Wrap360(*s.CompassHeading), true
	case s.Absolute && s.Quaternion != nil:
		return QuaternionYaw(*s.Quaternion), true
	case s.Absolute && finite(s.Alpha):
		return geo.Wrap360(360 - *s.Alpha), true
	case finite(s.Alpha):
		return geo.Wrap360(*s.Alpha), true
	}
	return 0, false
}

// QuaternionYaw extracts the yaw angle in [0,360) from q = [x, y, z, w]:
//
//	yaw = atan2(2(wz + xy), 1 - 2(y² + z²))
func QuaternionYaw(q [4]float64) float64 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	return geo.Wrap360(math.Atan2(sinyCosp, cosyCosp) * 180 / math.Pi)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Float is a helper for building samples in literals.
func Float(v float64) *float64 { return &v }
