// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	pn5180 "github.com/ZaparooProject/go-pn5180"
	"github.com/ZaparooProject/go-pn5180/polling"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 2 * time.Second
)

// publisher delivers detection events somewhere outside the process.
type publisher interface {
	Publish(topic string, payload any) error
}

// detectionMessage is the JSON payload published for each detection.
type detectionMessage struct {
	Time  time.Time `json:"time"`
	IRQ   string    `json:"irq"`
	Count int64     `json:"count"`
	Woken bool      `json:"woken"`
}

func newDetectionMessage(ev polling.Event) detectionMessage {
	return detectionMessage{
		Time:  ev.Time.UTC(),
		IRQ:   ev.IRQ.String(),
		Count: ev.Count,
		Woken: ev.Woken,
	}
}

// mqttPublisher is a handle onto a broker connection. paho reconnects on
// its own after a disconnect.
type mqttPublisher struct {
	conn mqtt.Client
	qos  byte
}

func newMQTTPublisher(broker string, debug pn5180.LogPrintf) (*mqttPublisher, error) {
	hostname, _ := os.Hostname()
	id := "pn5180-" + hostname
	if debug != nil {
		debug("Configuring MQTT with client id %s for %s", id, broker)
	}
	mqtt.ERROR = log.New(os.Stderr, "mqtt: ", 0)

	opts := mqtt.NewClientOptions().AddBroker(broker)
	opts.ClientID = id
	opts.AutoReconnect = true

	conn := mqtt.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return &mqttPublisher{conn: conn, qos: 1}, nil
}

// Publish encodes payload as JSON and waits for the broker to accept it.
func (m *mqttPublisher) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mqtt payload: %w", err)
	}
	token := m.conn.Publish(topic, m.qos, false, data)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

func (m *mqttPublisher) Close() {
	m.conn.Disconnect(250)
}
