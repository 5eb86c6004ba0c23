package main

import (
	"log"

	"github.com/relabs-tech/manhunt_client/internal/app"
	"github.com/relabs-tech/manhunt_client/internal/config"
)

func main() {
	if err := config.InitGlobal(config.Path()); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("console MQTT error: %v", err)
	}
}
