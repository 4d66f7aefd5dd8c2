package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/nmea"
)

// RunConsoleMQTT prints every fix published on TOPIC_GPS until Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not configured")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	gpsToken := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m gps.Message
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Println(formatConsoleFix(m))
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

func formatConsoleFix(m gps.Message) string {
	ts64 := float64(m.Timestamp)
	sec := int64(ts64)
	nsec := int64((ts64 - float64(sec)) * 1e9)
	ts := time.Unix(sec, nsec).UTC().Format("15:04:05")
	return fmt.Sprintf(
		"[GPS ]  time=%s lat=%.6f lon=%.6f alt=%.1fm sats=%2d hdop=%.1f quality=%s",
		ts, m.Latitude, m.Longitude, m.Altitude, m.NumSatellites, m.HDOP, nmea.FixQuality(m.GPSQuality),
	)
}
