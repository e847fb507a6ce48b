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

package pn5180

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Transport is the host side of the PN5180 interface: a full-duplex SPI
// transfer plus the NSS, BUSY and RST lines. The transaction engine only
// talks to the chip through this interface, so a simulator can stand in for
// real hardware.
type Transport interface {
	// Tx clocks len(w) bytes out and the same number in. r may alias w.
	Tx(w, r []byte) error

	// SetNSS drives the active-low chip-select line.
	SetNSS(level gpio.Level) error

	// Busy samples the BUSY line driven by the chip.
	Busy() gpio.Level

	// SetReset drives the active-low reset line.
	SetReset(level gpio.Level) error

	// Close releases the bus and the lines.
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// PortNamer is implemented by transports that know the name of the bus
// they are attached to. The name appears in wire traces.
type PortNamer interface {
	Port() string
}

func transportPort(t Transport) string {
	if p, ok := t.(PortNamer); ok {
		return p.Port()
	}
	return ""
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI is a periph.io SPI port with GPIO control lines.
	TransportSPI TransportType = "spi"
	// TransportMock represents a simulated chip for testing
	TransportMock TransportType = "mock"
)

// Clock is the time source for every wait in the driver. Tests inject a
// clock whose Sleep advances virtual time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock used by default.
func SystemClock() Clock {
	return systemClock{}
}
