// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/gps_logger/internal/app"
	"github.com/relabs-tech/gps_logger/internal/config"
)

func main() {
	configPath := flag.String("config", "gps_config.txt", "KEY=VALUE configuration file (empty for defaults and environment only)")
	flag.Parse()

	log.Println("starting GPS logger (NMEA → stdout JSON, CSV)")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunGPSLogger(ctx, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
