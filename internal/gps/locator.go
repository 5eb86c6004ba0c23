// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/manhunt_client/internal/geo"
)

// Locator supplies the player's current position on demand. It may have
// nothing to report for as long as the receiver has no fix.
type Locator interface {
	Locate(ctx context.Context) (geo.Coordinate, bool)
}

// StaticLocator always reports the same position.
type StaticLocator struct {
	Position geo.Coordinate
}

func (s StaticLocator) Locate(context.Context) (geo.Coordinate, bool) {
	return s.Position, true
}

// latest holds the most recent valid fix.
type latest struct {
	mu   sync.RWMutex
	fix  Fix
	have bool
}

func (l *latest) set(f Fix) {
	l.mu.Lock()
	l.fix = f
	l.have = true
	l.mu.Unlock()
}

func (l *latest) get() (Fix, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fix, l.have
}

// StreamLocator reads NMEA lines from r in the background and keeps the
// latest valid fix.
type StreamLocator struct {
	last latest
	done chan struct{}
	rc   io.Closer
}

// NewStreamLocator starts reading from r. If r is also an io.Closer it is
// closed by Close.
func NewStreamLocator(r io.Reader) *StreamLocator {
	l := &StreamLocator{done: make(chan struct{})}
	if c, ok := r.(io.Closer); ok {
		l.rc = c
	}
	go l.run(r)
	return l
}

func (l *StreamLocator) run(r io.Reader) {
	defer close(l.done)
	var p Parser
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 && p.Feed(line) {
			if f := p.Fix(); f.Valid() {
				l.last.set(f)
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("gps: read error: %v", err)
			}
			return
		}
	}
}

func (l *StreamLocator) Locate(context.Context) (geo.Coordinate, bool) {
	f, ok := l.last.get()
	if !ok {
		return geo.Coordinate{}, false
	}
	return f.Coordinate(), true
}

// Fix returns the latest valid fix.
func (l *StreamLocator) Fix() (Fix, bool) { return l.last.get() }

// Done is closed when the reader stops.
func (l *StreamLocator) Done() <-chan struct{} { return l.done }

// Close closes the underlying reader and waits for the read loop.
func (l *StreamLocator) Close() error {
	var err error
	if l.rc != nil {
		err = l.rc.Close()
	}
	<-l.done
	return err
}

// SerialOptions returns the port settings used for NMEA receivers.
func SerialOptions(port string, baud int) serial.OpenOptions {
	return serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
}

// OpenSerial opens an NMEA receiver on a serial port, e.g. /dev/serial0.
func OpenSerial(port string, baud int) (*StreamLocator, error) {
	opts := SerialOptions(port, baud)
	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open gps serial %s: %w", port, err)
	}
	log.Printf("gps: serial port opened on %s at %d baud", opts.PortName, opts.BaudRate)
	return NewStreamLocator(rwc), nil
}

// MQTTLocator follows the fixes published by gps_producer.
type MQTTLocator struct {
	client mqtt.Client
	topic  string
	last   latest
}

// SubscribeMQTT subscribes to topic and returns a locator fed from it.
func SubscribeMQTT(client mqtt.Client, topic string) (*MQTTLocator, error) {
	l := &MQTTLocator{client: client, topic: topic}
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		l.handle(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Printf("gps: subscribed to %s", topic)
	return l, nil
}

func (l *MQTTLocator) handle(payload []byte) {
	var f Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		log.Printf("gps: %s unmarshal error: %v", l.topic, err)
		return
	}
	if f.Valid() {
		l.last.set(f)
	}
}

func (l *MQTTLocator) Locate(context.Context) (geo.Coordinate, bool) {
	f, ok := l.last.get()
	if !ok {
		return geo.Coordinate{}, false
	}
	return f.Coordinate(), true
}

// Close unsubscribes from the topic.
func (l *MQTTLocator) Close() error {
	token := l.client.Unsubscribe(l.topic)
	token.Wait()
	return token.Error()
}
