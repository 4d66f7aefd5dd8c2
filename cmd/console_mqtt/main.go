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

	log.Println("starting GPS console (MQTT subscriber)")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
