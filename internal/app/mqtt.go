package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/manhunt_client/internal/tracker"
)

// connectMQTT connects to broker. A short random suffix keeps two copies
// of the same binary from kicking each other off the broker.
func connectMQTT(broker, clientID, component string) (mqtt.Client, error) {
	id := clientID + "-" + uuid.NewString()[:8]
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Printf("%s: connected to MQTT broker at %s as %s", component, broker, id)
	return client, nil
}

// publishJSON publishes v as a retained message and waits for the broker.
func publishJSON(client mqtt.Client, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

// mqttSink republishes snapshots for the display and console_mqtt. It
// does not wait for the broker; the tracker goroutine must not block.
type mqttSink struct {
	client mqtt.Client
	topic  string
}

func (s *mqttSink) Publish(snap tracker.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("client: snapshot marshal error: %v", err)
		return
	}
	token := s.client.Publish(s.topic, 0, true, payload)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("client: snapshot publish error: %v", token.Error())
		}
	}()
}
