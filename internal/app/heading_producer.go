package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/config"
	"github.com/relabs-tech/manhunt_client/internal/heading"
)

// RunHeadingProducer publishes mock compass samples to TOPIC_HEADING so
// the client can be bench tested with HEADING_SOURCE=mqtt and no phone.
func RunHeadingProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("heading producer: config not initialised")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDHeading, "heading producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	src := heading.NewMockSource(cfg.MockHeadingRate)
	log.Printf("heading producer: publishing mock heading at %.1f°/s to %s", cfg.MockHeadingRate, cfg.TopicHeading)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.HeadingEvery())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("heading producer: shutting down")
			return nil
		case <-ticker.C:
			s, err := src.Next()
			if err != nil {
				log.Printf("heading producer: mock source error: %v", err)
				continue
			}
			if err := publishJSON(client, cfg.TopicHeading, s); err != nil {
				log.Printf("heading producer: publish error: %v", err)
			}
		}
	}
}
