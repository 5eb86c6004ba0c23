package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/manhunt_client/internal/config"
	"github.com/relabs-tech/manhunt_client/internal/gps"
	"github.com/relabs-tech/manhunt_client/internal/heading"
	"github.com/relabs-tech/manhunt_client/internal/tracker"
)

// RunConsoleMQTT prints everything the client and producers publish.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("console: config not initialised")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, "console")
	if err != nil {
		return err
	}

	// Subscribe to snapshots
	snapToken := client.Subscribe(cfg.TopicSnapshot, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s tracker.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: snapshot unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSnapshot(s))
	})
	snapToken.Wait()
	if snapToken.Error() != nil {
		return snapToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSnapshot)

	// Subscribe to heading samples
	headingToken := client.Subscribe(cfg.TopicHeading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := heading.DecodeSample(msg.Payload())
		if err != nil {
			log.Printf("console: heading unmarshal error: %v", err)
			return
		}
		h, ok := heading.Normalize(s)
		if !ok {
			fmt.Println("[HDG ]  no usable heading in sample")
			return
		}
		fmt.Printf("[HDG ]  heading=%6.2f°\n", h)
	})
	headingToken.Wait()
	if headingToken.Error() != nil {
		return headingToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicHeading)

	// Subscribe to GPS
	gpsToken := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[GPS ]  time=%s lat=%.6f lon=%.6f alt=%.0fm sats=%d speed=%.1fkn course=%.1f° valid=%t\n",
			f.Time, f.Latitude, f.Longitude, f.Altitude, f.Satellites, f.SpeedKnots, f.CourseDeg, f.Valid(),
		)
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicGPS)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
