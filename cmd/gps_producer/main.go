package main

import (
	"log"

	"github.com/relabs-tech/manhunt_client/internal/app"
	"github.com/relabs-tech/manhunt_client/internal/config"
)

func main() {
	log.Println("starting manhunt GPS producer (NMEA → MQTT)")

	if err := config.InitGlobal(config.Path()); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGPSProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
