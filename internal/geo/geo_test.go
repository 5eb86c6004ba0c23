package geo

import (
	"math"
	"testing"
)

func coord(lat, lon float64) *Coordinate { return &Coordinate{Latitude: lat, Longitude: lon} }

func TestHaversineEquatorDegree(t *testing.T) {
	d := HaversineDistance(Coordinate{0, 0}, Coordinate{0, 1})
	if math.Abs(d-111195) > 1 {
		t.Fatalf("distance = %.2f, want ~111195", d)
	}
	b := InitialBearing(Coordinate{0, 0}, Coordinate{0, 1})
	if math.Abs(b-90) > 1e-9 {
		t.Fatalf("bearing = %.6f, want 90", b)
	}
}

func TestStrictCalculatorAcceptsZero(t *testing.T) {
	strict := Calculator{ZeroIsMissing: false}
	d, ok := strict.Distance(coord(0, 0), coord(0, 1))
	if !ok || math.Abs(d-111195) > 1 {
		t.Fatalf("strict distance = %.2f ok=%v", d, ok)
	}
	b, ok := strict.Bearing(coord(0, 0), coord(0, 1))
	if !ok || math.Abs(b-90) > 1e-9 {
		t.Fatalf("strict bearing = %.6f ok=%v", b, ok)
	}
}

func TestMissingInputs(t *testing.T) {
	london := coord(51.5, -0.1)
	cases := []struct {
		name           string
		origin, target *Coordinate
	}{
		{"nil origin", nil, london},
		{"nil target", london, nil},
		{"zero lat", coord(0, 10), london},
		{"zero lon", london, coord(10, 0)},
		{"nan", coord(math.NaN(), 1), london},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := Distance(tc.origin, tc.target); ok {
				t.Errorf("Distance ok, want missing")
			}
			if _, ok := Bearing(tc.origin, tc.target); ok {
				t.Errorf("Bearing ok, want missing")
			}
		})
	}
}

func TestDistanceSymmetricAndZeroForSelf(t *testing.T) {
	pts := []*Coordinate{
		coord(51.5, -0.1),
		coord(-33.86, 151.21),
		coord(40.71, -74.0),
		coord(35.68, 139.69),
		coord(-89.9, 179.9),
	}
	for i, a := range pts {
		self, ok := Distance(a, a)
		if !ok || self != 0 {
			t.Errorf("d(p%d,p%d) = %v ok=%v, want 0", i, i, self, ok)
		}
		for j, b := range pts {
			ab, _ := Distance(a, b)
			ba, _ := Distance(b, a)
			if math.Abs(ab-ba) > 1e-6 {
				t.Errorf("d(p%d,p%d)=%f d(p%d,p%d)=%f", i, j, ab, j, i, ba)
			}
		}
	}
}

func TestBearingRange(t *testing.T) {
	for lat := -80.0; lat <= 80; lat += 13.7 {
		for lon := -170.0; lon <= 170; lon += 17.3 {
			b, ok := Bearing(coord(12.3, 45.6), coord(lat, lon))
			if !ok {
				continue
			}
			if b < 0 || b >= 360 {
				t.Fatalf("bearing to (%.1f,%.1f) = %f out of [0,360)", lat, lon, b)
			}
		}
	}
}

func TestBearingToSelfIsZero(t *testing.T) {
	p := coord(51.5, -0.1)
	b, ok := Bearing(p, p)
	if !ok || b != 0 {
		t.Fatalf("bearing(A,A) = %v ok=%v, want 0", b, ok)
	}
	d, _ := Distance(p, p)
	if d != 0 {
		t.Fatalf("distance(A,A) = %v, want 0", d)
	}
}

func TestBearingCardinal(t *testing.T) {
	origin := coord(10, 10)
	cases := []struct {
		target *Coordinate
		want   float64
	}{
		{coord(11, 10), 0},
		{coord(9, 10), 180},
		{coord(10, 9), 270},
	}
	for _, tc := range cases {
		b, _ := Bearing(origin, tc.target)
		if math.Abs(b-tc.want) > 0.5 {
			t.Errorf("bearing to %+v = %.3f, want ~%.0f", *tc.target, b, tc.want)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		d    float64
		ok   bool
		want string
	}{
		{999, true, "999m"},
		{1500, true, "1.50km"},
		{0, false, "Unknown"},
		{0, true, "0m"},
		{12.4, true, "12m"},
		{12.5, true, "13m"},
		{1000, true, "1.00km"},
		{111195, true, "111.19km"},
	}
	for _, tc := range cases {
		if got := FormatDistance(tc.d, tc.ok); got != tc.want {
			t.Errorf("FormatDistance(%v, %v) = %q, want %q", tc.d, tc.ok, got, tc.want)
		}
	}
	if got := FormatDistance(Distance(nil, coord(1, 1))); got != "Unknown" {
		t.Errorf("composed FormatDistance = %q", got)
	}
}

func TestWrap360(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, -10: 350, 370: 10, 720.5: 0.5, -360: 0}
	for in, want := range cases {
		if got := Wrap360(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("Wrap360(%v) = %v, want %v", in, got, want)
		}
	}
}
