package app

import (
	"bufio"
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/manhunt_client/internal/config"
	"github.com/relabs-tech/manhunt_client/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes combined GPS fixes as JSON to TOPIC_GPS.
func RunGPSProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("gps producer: config not initialised")
	}

	// ---- 1) Connect to MQTT broker ----
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS, "gps producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// ---- 2) Open GPS serial port ----
	serialOpts := gps.SerialOptions(cfg.GPSSerialPort, cfg.GPSBaudRate)
	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	log.Printf("gps producer: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// Closing the port unblocks the reader on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	reader := bufio.NewReader(port)
	var parser gps.Parser
	published := 0

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("gps producer: shutting down after %d fixes", published)
				return nil
			}
			log.Printf("gps producer: read error: %v", err)
			return err
		}

		if !parser.Feed(line) {
			continue
		}
		fix := parser.Fix()
		if err := publishJSON(client, cfg.TopicGPS, fix); err != nil {
			log.Printf("gps producer: publish error: %v", err)
			continue
		}
		published++
		if fix.Valid() {
			log.Printf("gps producer: fix %.6f,%.6f alt=%.0fm sats=%d", fix.Latitude, fix.Longitude, fix.Altitude, fix.Satellites)
		}
	}
}
