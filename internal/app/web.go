// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/gps"
)

const (
	wsSendBuffer   = 16
	wsWriteTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RunWeb subscribes to TOPIC_GPS and serves the latest fix on /api/gps, a
// live feed of fixes on /ws and the dashboard from ./web.
func RunWeb(cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not configured")
	}
	feed := newFixFeed()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to GPS topic and fan each fix out
	token := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := feed.update(msg.Payload()); err != nil {
			log.Printf("web: MQTT payload error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicGPS)

	// 3) HTTP
	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, feed.routes("web"))
}

// fixFeed keeps the latest fix message and pushes new ones to websocket clients.
type fixFeed struct {
	mu      sync.RWMutex
	last    []byte
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newFixFeed() *fixFeed {
	return &fixFeed{clients: make(map[*wsClient]struct{})}
}

func (f *fixFeed) routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/gps", f.handleLatest)
	mux.HandleFunc("/ws", f.handleWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// update stores payload as the latest fix and sends it to every client.
// A client that cannot keep up misses the message.
func (f *fixFeed) update(payload []byte) error {
	var m gps.Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return fmt.Errorf("unmarshal fix: %w", err)
	}
	if m.Type != gps.MessageType {
		return fmt.Errorf("unexpected message type %q", m.Type)
	}

	data := append([]byte(nil), payload...)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = data
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	return nil
}

func (f *fixFeed) handleLatest(w http.ResponseWriter, r *http.Request) {
	f.mu.RLock()
	last := f.last
	f.mu.RUnlock()

	if last == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(last); err != nil {
		log.Printf("web: write error: %v", err)
	}
}

func (f *fixFeed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	f.register(c)
	defer f.unregister(c)
	go c.writeLoop()

	// The feed is one-way; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			return
		}
	}
}

// register adds c and queues the latest fix so a new page shows a position at once.
func (f *fixFeed) register(c *wsClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c] = struct{}{}
	if f.last != nil {
		c.send <- f.last
	}
}

func (f *fixFeed) unregister(c *wsClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
	}
}

func (c *wsClient) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
}
