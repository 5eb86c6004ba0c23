package gps

import "github.com/relabs-tech/manhunt_client/internal/geo"

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "06/12/25"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	Altitude   float64 `json:"alt_m"`       // from GGA
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void), from RMC
	FixQuality string  `json:"fix_quality"` // "0" = no fix, from GGA
	Satellites int64   `json:"satellites"`
}

// Valid reports whether the receiver claims a position fix. The latest
// RMC and GGA must both agree; either one reporting no fix wins.
func (f Fix) Valid() bool {
	if f.Validity == "V" || f.FixQuality == "0" {
		return false
	}
	return f.Validity == "A" || f.FixQuality != ""
}

// Coordinate returns the fix position.
func (f Fix) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: f.Latitude, Longitude: f.Longitude}
}
