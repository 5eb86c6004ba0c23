// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTProvider reads JSON samples from a topic, for example the ones
// published by heading_producer or a phone bridge. The broker does not
// gate access, so Cap should be AbsoluteUngated or RelativeUngated.
type MQTTProvider struct {
	Client mqtt.Client
	Topic  string
	Cap    Capability
}

func (p *MQTTProvider) Capability() Capability { return p.Cap }

func (p *MQTTProvider) RequestPermission(context.Context) (bool, error) {
	return true, nil
}

func (p *MQTTProvider) Subscribe(_ context.Context, fn func(Sample)) (Subscription, error) {
	token := p.Client.Subscribe(p.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := DecodeSample(msg.Payload())
		if err != nil {
			log.Printf("heading: %s unmarshal error: %v", p.Topic, err)
			return
		}
		fn(s)
	})
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", p.Topic, token.Error())
	}
	log.Printf("heading: subscribed to %s", p.Topic)
	return &mqttSub{client: p.Client, topic: p.Topic}, nil
}

type mqttSub struct {
	client mqtt.Client
	topic  string
}

func (s *mqttSub) Close() error {
	token := s.client.Unsubscribe(s.topic)
	token.Wait()
	return token.Error()
}

// DecodeSample parses a JSON sample payload.
func DecodeSample(b []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(b, &s); err != nil {
		return Sample{}, err
	}
	return s, nil
}
