// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/manhunt_client/internal/app"
	"github.com/relabs-tech/manhunt_client/internal/config"
)

func main() {
	log.Println("starting manhunt OLED display (MQTT subscriber)")

	if err := config.InitGlobal(config.Path()); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
