// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors reads headings from hardware attached to the Pi.
package sensors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/manhunt_client/internal/geo"
	"github.com/relabs-tech/manhunt_client/internal/heading"
)

// GyroSensitivity is LSB per °/s at the MPU9250's ±250°/s power-on range.
const GyroSensitivity = 131.0

// maxStep drops integration gaps longer than this; a stalled read loop
// would otherwise turn one sample into a large jump.
const maxStep = time.Second

type gyroReader interface {
	GetRotationZ() (int16, error)
}

// GyroSource integrates the Z-axis rate gyro into a yaw angle. It has no
// magnetic reference, so the result is relative and drifts; samples are
// reported as relative alpha.
type GyroSource struct {
	name        string
	dev         gyroReader
	sensitivity float64
	now         func() time.Time

	mu   sync.Mutex
	yaw  float64
	last time.Time
}

// NewGyroSource wraps any Z-rate reader.
func NewGyroSource(name string, dev gyroReader, sensitivity float64) *GyroSource {
	return &GyroSource{name: name, dev: dev, sensitivity: sensitivity, now: time.Now}
}

// OpenGyro initializes an MPU9250 over SPI, e.g. spiDev "/dev/spidev6.0"
// with chip select on GPIO "18".
func OpenGyro(spiDev, csPin string) (*GyroSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	// Self-test
	if _, err := dev.SelfTest(); err != nil {
		log.Printf("IMU: warning: self-test failed: %v", err)
	}

	// Calibration removes the gyro bias; keep the device still.
	if err := dev.Calibrate(); err != nil {
		log.Printf("IMU: warning: calibration failed: %v", err)
	} else {
		log.Printf("IMU: calibration complete on %s", spiDev)
	}

	return NewGyroSource(spiDev, dev, GyroSensitivity), nil
}

// Next reads the gyro and advances the yaw estimate.
func (g *GyroSource) Next() (heading.Sample, error) {
	raw, err := g.dev.GetRotationZ()
	if err != nil {
		return heading.Sample{}, fmt.Errorf("IMU %s gyro Z: %w", g.name, err)
	}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.last.IsZero() {
		dt := now.Sub(g.last)
		if dt > 0 && dt <= maxStep {
			// positive Z rate is a counter-clockwise turn seen from above,
			// which is the direction alpha grows in
			g.yaw = geo.Wrap360(g.yaw + float64(raw)/g.sensitivity*dt.Seconds())
		}
	}
	g.last = now
	return heading.Sample{Alpha: heading.Float(g.yaw), Time: now}, nil
}

// NewGyroProvider polls src as a relative heading provider.
func NewGyroProvider(src heading.Source, interval time.Duration) *heading.PollingProvider {
	return &heading.PollingProvider{Source: src, Interval: interval, Cap: heading.RelativeUngated}
}
