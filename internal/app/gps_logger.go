// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/metrics"
	"github.com/relabs-tech/gps_logger/internal/pipeline"
	"github.com/relabs-tech/gps_logger/internal/sink"
	"github.com/relabs-tech/gps_logger/internal/transport"
)

// RunGPSLogger reads NMEA sentences from the configured receiver and writes
// every fix to stdout as JSON, to the CSV log and to any configured message
// bus until ctx is cancelled or a replayed capture ends.
func RunGPSLogger(ctx context.Context, cfg *config.Config) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	return runGPSLogger(ctx, cfg, os.Stdout, logger)
}

func runGPSLogger(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *log.Logger) error {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// ---- 1) Sinks ----
	sinks, closeSinks, err := buildSinks(ctx, cfg, stdout, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	// ---- 2) Receiver ----
	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	logger.Printf("gps: reading from %s source", cfg.GPSSource)

	// ---- 3) Metrics endpoint ----
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(reg)}
		go func() {
			logger.Printf("gps: metrics listening on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("gps: error: metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	// ---- 4) Loop ----
	clock := pipeline.SystemClock{}
	dispatcher := sink.NewDispatcher(logger, m, sinks...)
	proc := pipeline.NewProcessor(clock, dispatcher, logger, m)
	loop := pipeline.NewLoop(src, proc, clock, cfg.PollInterval(), logger, m)

	err = loop.Run(ctx)
	logger.Println("gps: shutting down")
	return err
}

func metricsMux(g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	return mux
}

// openSource opens the receiver selected by GPS_SOURCE.
func openSource(cfg *config.Config) (transport.Source, error) {
	switch cfg.GPSSource {
	case config.SourceSerial:
		src, err := transport.OpenSerial(transport.SerialOptions{
			PortName:    cfg.GPSSerialPort,
			BaudRate:    uint(cfg.GPSBaudRate),
			ReadTimeout: cfg.ReadTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceFile:
		src, err := transport.OpenFile(cfg.GPSReplayFile)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceMock:
		return transport.NewMockSource(transport.MockOptions{
			Latitude:  cfg.MockLatitude,
			Longitude: cfg.MockLongitude,
			Altitude:  cfg.MockAltitude,
			FixAfter:  cfg.MockFixAfter,
		}), nil
	default:
		return nil, fmt.Errorf("unknown GPS source %q", cfg.GPSSource)
	}
}

// buildSinks creates the enabled sinks. The CSV log must be usable before
// the loop starts; a message bus that cannot be reached is logged and left out.
func buildSinks(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *log.Logger) ([]sink.Sink, func(), error) {
	var (
		sinks   []sink.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.SerialOutput {
		sinks = append(sinks, sink.NewJSONLines(stdout))
	}

	if cfg.RecordToCSV {
		csvLog := sink.NewCSVLog(cfg.CSVFilename, logger)
		if err := csvLog.Ensure(); err != nil {
			return nil, closeAll, fmt.Errorf("prepare CSV log: %w", err)
		}
		sinks = append(sinks, csvLog)
	}

	if cfg.MQTTBroker != "" {
		client, err := sink.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
		if err != nil {
			logger.Printf("gps: error: %v", err)
		} else {
			logger.Printf("gps: publishing fixes to MQTT %s topic %s", cfg.MQTTBroker, cfg.TopicGPS)
			sinks = append(sinks, sink.NewMQTT(client, cfg.TopicGPS))
			closers = append(closers, func() { client.Disconnect(250) })
		}
	}

	if cfg.NATSURL != "" {
		conn, err := sink.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Printf("gps: error: %v", err)
		} else {
			logger.Printf("gps: publishing fixes to NATS %s subject %s", cfg.NATSURL, cfg.NATSSubjectGPS)
			sinks = append(sinks, sink.NewNATS(conn, cfg.NATSSubjectGPS))
			closers = append(closers, func() {
				conn.Flush()
				conn.Close()
			})
		}
	}

	if cfg.RedisAddr != "" {
		client, err := sink.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Printf("gps: error: %v", err)
		} else {
			logger.Printf("gps: storing latest fix in Redis %s key %s", cfg.RedisAddr, cfg.RedisKeyGPS)
			sinks = append(sinks, sink.NewRedis(client, cfg.RedisKeyGPS, cfg.RedisTTL()))
			closers = append(closers, func() { client.Close() })
		}
	}

	if len(sinks) == 0 {
		logger.Println("gps: warning: no output enabled, fixes are only logged")
	}
	return sinks, closeAll, nil
}
