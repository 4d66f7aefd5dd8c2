// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gps_logger/internal/app"
	"github.com/relabs-tech/gps_logger/internal/config"
)

func main() {
	configPath := flag.String("config", "gps_config.txt", "KEY=VALUE configuration file")
	flag.Parse()

	log.Println("starting GPS web server (MQTT subscriber)")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunWeb(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
