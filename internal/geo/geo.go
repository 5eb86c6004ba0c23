// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geo computes great-circle distance and initial bearing between
// player coordinates.
package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371e3

// Coordinate is a WGS-84 position in decimal degrees.
// A nil *Coordinate means "no fix yet".
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Calculator applies a missing-input policy on top of the total formulas.
//
// With ZeroIsMissing set, a 0 latitude or longitude is treated the same as an
// absent coordinate. Players sitting exactly on the equator or the prime
// meridian then read as "Unknown", which matches how the game API has always
// been consumed.
type Calculator struct {
	ZeroIsMissing bool
}

// Default is the calculator used by Distance and Bearing.
var Default = Calculator{ZeroIsMissing: true}

func (c Calculator) complete(p *Coordinate) bool {
	if p == nil {
		return false
	}
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	if c.ZeroIsMissing && (p.Latitude == 0 || p.Longitude == 0) {
		return false
	}
	return true
}

// Distance returns the Haversine distance in meters, or ok=false when either
// coordinate is missing under the calculator's policy.
func (c Calculator) Distance(origin, target *Coordinate) (float64, bool) {
	if !c.complete(origin) || !c.complete(target) {
		return 0, false
	}
	return HaversineDistance(*origin, *target), true
}

// Bearing returns the initial bearing in [0,360), or ok=false when either
// coordinate is missing under the calculator's policy.
func (c Calculator) Bearing(origin, target *Coordinate) (float64, bool) {
	if !c.complete(origin) || !c.complete(target) {
		return 0, false
	}
	return InitialBearing(*origin, *target), true
}

// Distance uses the Default calculator.
func Distance(origin, target *Coordinate) (float64, bool) {
	return Default.Distance(origin, target)
}

// Bearing uses the Default calculator.
func Bearing(origin, target *Coordinate) (float64, bool) {
	return Default.Bearing(origin, target)
}

// HaversineDistance is the great-circle distance in meters:
//
//	a = sin²(Δφ/2) + cos(φ1)·cos(φ2)·sin²(Δλ/2)
//	d = 2R·atan2(√a, √(1−a))
func HaversineDistance(a, b Coordinate) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * EarthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InitialBearing is the forward azimuth from a to b in [0,360).
// The bearing from a point to itself is 0.
func InitialBearing(a, b Coordinate) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return Wrap360(toDegrees(math.Atan2(y, x)))
}

// Wrap360 maps any angle into [0,360).
func Wrap360(deg float64) float64 {
	w := math.Mod(deg, 360)
	if w < 0 {
		w += 360
	}
	// -1e-15 + 360 rounds to 360
	if w >= 360 {
		w = 0
	}
	return w
}

// FormatDistance renders a distance for display. It takes the (value, ok)
// pair returned by Distance so the two compose directly:
//
//	geo.FormatDistance(geo.Distance(me, them))
func FormatDistance(meters float64, ok bool) string {
	if !ok || math.IsNaN(meters) {
		return "Unknown"
	}
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", math.Floor(meters+0.5))
	}
	return fmt.Sprintf("%.2fkm", meters/1000)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
