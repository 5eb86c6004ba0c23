package sensors

import (
	"errors"
	"math"
	"testing"
	"time"

	"periph.io/x/devices/v3/mpu9250"

	"github.com/relabs-tech/manhunt_client/internal/heading"
)

// the upstream driver must keep satisfying the reader OpenGyro wraps
var _ gyroReader = (*mpu9250.MPU9250)(nil)

type fakeGyro struct {
	rate int16
	err  error
}

func (f *fakeGyro) GetRotationZ() (int16, error) { return f.rate, f.err }

func TestGyroIntegratesYaw(t *testing.T) {
	dev := &fakeGyro{rate: 131 * 10} // 10°/s
	src := NewGyroSource("test", dev, GyroSensitivity)
	clock := time.Unix(0, 0)
	src.now = func() time.Time { return clock }

	s, err := src.Next()
	if err != nil {
		t.Fatal(err)
	}
	if *s.Alpha != 0 || s.Absolute {
		t.Fatalf("first sample = %v absolute=%v", *s.Alpha, s.Absolute)
	}

	clock = clock.Add(500 * time.Millisecond)
	s, _ = src.Next()
	if math.Abs(*s.Alpha-5) > 1e-9 {
		t.Fatalf("alpha after 0.5s = %v, want 5", *s.Alpha)
	}

	// turning the other way wraps below zero
	dev.rate = -131 * 20
	clock = clock.Add(500 * time.Millisecond)
	s, _ = src.Next()
	if math.Abs(*s.Alpha-355) > 1e-9 {
		t.Fatalf("alpha = %v, want 355", *s.Alpha)
	}

	h, ok := heading.Normalize(s)
	if !ok || math.Abs(h-355) > 1e-9 {
		t.Fatalf("relative heading = %v, %v", h, ok)
	}
}

func TestGyroSkipsLongGaps(t *testing.T) {
	src := NewGyroSource("test", &fakeGyro{rate: 1310}, GyroSensitivity)
	clock := time.Unix(0, 0)
	src.now = func() time.Time { return clock }

	src.Next()
	clock = clock.Add(5 * time.Second)
	s, _ := src.Next()
	if *s.Alpha != 0 {
		t.Fatalf("alpha after stall = %v, want 0", *s.Alpha)
	}
}

func TestGyroReadError(t *testing.T) {
	src := NewGyroSource("test", &fakeGyro{err: errors.New("spi")}, GyroSensitivity)
	if _, err := src.Next(); err == nil {
		t.Fatal("expected read error")
	}
}

func TestGyroProviderIsRelative(t *testing.T) {
	p := NewGyroProvider(NewGyroSource("test", &fakeGyro{}, GyroSensitivity), 10*time.Millisecond)
	if p.Capability() != heading.RelativeUngated {
		t.Fatalf("capability = %v", p.Capability())
	}
}
