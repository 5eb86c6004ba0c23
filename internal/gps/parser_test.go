package gps

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
)

const (
	rmcValid = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	rmcVoid  = "$GPRMC,123520,V,,,,,,,230394,,*39"
	ggaValid = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	rmcSouth = "$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62"
	ggaNoFix = "$GPGGA,123520,,,,,0,00,,,M,,M,,*61"
)

func TestParserRMC(t *testing.T) {
	var p Parser
	if !p.Feed(rmcValid + "\r\n") {
		t.Fatal("RMC not accepted")
	}
	f := p.Fix()
	if !f.Valid() {
		t.Fatalf("fix not valid: %+v", f)
	}
	if math.Abs(f.Latitude-48.1173) > 1e-4 || math.Abs(f.Longitude-11.516667) > 1e-4 {
		t.Fatalf("position = %f,%f", f.Latitude, f.Longitude)
	}
	if f.SpeedKnots != 22.4 || f.CourseDeg != 84.4 {
		t.Fatalf("speed/course = %v/%v", f.SpeedKnots, f.CourseDeg)
	}
}

func TestParserSouthernHemisphere(t *testing.T) {
	var p Parser
	p.Feed(rmcSouth)
	f := p.Fix()
	if f.Latitude >= 0 || f.Longitude <= 0 {
		t.Fatalf("hemisphere signs wrong: %f,%f", f.Latitude, f.Longitude)
	}
}

func TestParserGGAAddsAltitude(t *testing.T) {
	var p Parser
	p.Feed(rmcValid)
	if !p.Feed(ggaValid) {
		t.Fatal("GGA not accepted")
	}
	f := p.Fix()
	if f.Altitude != 545.4 || f.Satellites != 8 || f.FixQuality != "1" {
		t.Fatalf("GGA fields: %+v", f)
	}
}

func TestParserSkipsNoise(t *testing.T) {
	var p Parser
	for _, line := range []string{
		"",
		"garbage",
		"$GPRMC,123519,A,4807.038,N*00",
		"$GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00*74",
	} {
		if p.Feed(line) {
			t.Errorf("line %q changed position", line)
		}
	}
	if p.Fix().Valid() {
		t.Fatal("noise produced a valid fix")
	}
}

func TestParserVoidFixNotValid(t *testing.T) {
	var p Parser
	p.Feed(rmcVoid)
	if p.Fix().Valid() {
		t.Fatalf("void RMC reported valid: %+v", p.Fix())
	}
}

func TestParserLostFix(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"RMC then GGA without fix", []string{rmcValid, ggaNoFix}},
		{"GGA then void RMC", []string{ggaValid, rmcVoid}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Parser
			if !p.Feed(tt.lines[0]) {
				t.Fatal("first sentence not accepted")
			}
			if p.Feed(tt.lines[1]) {
				t.Fatal("no-fix sentence reported a position update")
			}
			f := p.Fix()
			if f.Valid() {
				t.Fatalf("fix still valid after losing it: %+v", f)
			}
			if math.Abs(f.Latitude-48.1173) > 1e-4 || math.Abs(f.Longitude-11.516667) > 1e-4 {
				t.Fatalf("position overwritten: %f,%f", f.Latitude, f.Longitude)
			}
		})
	}
}

func TestParserRegainsFix(t *testing.T) {
	var p Parser
	p.Feed(rmcValid)
	p.Feed(ggaNoFix)
	p.Feed(rmcValid)
	if p.Fix().Valid() {
		t.Fatal("valid before GGA reports a fix again")
	}
	if !p.Feed(ggaValid) || !p.Fix().Valid() {
		t.Fatalf("fix not regained: %+v", p.Fix())
	}
}

func TestStreamLocatorKeepsLastGoodPosition(t *testing.T) {
	input := strings.Join([]string{rmcValid, ggaValid, rmcVoid, ggaNoFix, ""}, "\r\n")
	l := NewStreamLocator(strings.NewReader(input))
	<-l.Done()

	c, ok := l.Locate(context.Background())
	if !ok {
		t.Fatal("lost the last good position")
	}
	if c.Latitude == 0 || c.Longitude == 0 {
		t.Fatalf("located at %+v", c)
	}
}

func TestStreamLocator(t *testing.T) {
	input := strings.Join([]string{"junk", rmcVoid, rmcValid, ggaValid, ""}, "\r\n")
	l := NewStreamLocator(strings.NewReader(input))
	<-l.Done()

	c, ok := l.Locate(context.Background())
	if !ok {
		t.Fatal("no location")
	}
	if math.Abs(c.Latitude-48.1173) > 1e-4 {
		t.Fatalf("latitude = %f", c.Latitude)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestStreamLocatorNoFix(t *testing.T) {
	l := NewStreamLocator(strings.NewReader(rmcVoid + "\n"))
	<-l.Done()
	if _, ok := l.Locate(context.Background()); ok {
		t.Fatal("located without a fix")
	}
}

func TestMQTTLocatorHandle(t *testing.T) {
	l := &MQTTLocator{topic: "manhunt/gps"}
	if _, ok := l.Locate(context.Background()); ok {
		t.Fatal("located before any message")
	}
	l.handle([]byte("not json"))
	void, _ := json.Marshal(Fix{Latitude: 1, Longitude: 2, Validity: "V"})
	l.handle(void)
	if _, ok := l.Locate(context.Background()); ok {
		t.Fatal("void fix accepted")
	}
	good, _ := json.Marshal(Fix{Latitude: 51.5, Longitude: -0.1, Validity: "A"})
	l.handle(good)
	c, ok := l.Locate(context.Background())
	if !ok || c.Latitude != 51.5 || c.Longitude != -0.1 {
		t.Fatalf("locate = %+v %v", c, ok)
	}
}

func TestStaticLocator(t *testing.T) {
	s := StaticLocator{}
	s.Position.Latitude = 1
	c, ok := s.Locate(context.Background())
	if !ok || c.Latitude != 1 {
		t.Fatalf("static = %+v %v", c, ok)
	}
}
