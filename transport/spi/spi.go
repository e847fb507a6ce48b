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

// Package spi provides the periph.io SPI transport for the PN5180.
//
// The PN5180 needs chip select held across the BUSY handshake, so NSS is a
// plain GPIO driven by the driver rather than the controller's own CS line.
package spi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	pn5180 "github.com/ZaparooProject/go-pn5180"
	"github.com/ZaparooProject/go-pn5180/internal/syncutil"
)

const (
	// DefaultFrequency is the highest SCK the PN5180 accepts.
	DefaultFrequency = 7 * physic.MegaHertz

	// CPOL=0, CPHA=0, MSB first. NSS is a GPIO held across the BUSY
	// handshake, so the controller must not toggle its own chip select.
	mode = spi.Mode0 | spi.NoCS
	bits = 8
)

// Config names the SPI port and the GPIO lines wired to the PN5180.
type Config struct {
	// Port is the periph SPI port name, "" for the first one.
	Port string
	// NSSPin is the GPIO used as chip select. It may be the port's CE line;
	// the port is opened without hardware chip select.
	NSSPin string
	// BusyPin is the GPIO connected to BUSY.
	BusyPin string
	// ResetPin is the GPIO connected to RST.
	ResetPin string
	// IRQPin is the optional GPIO connected to IRQ.
	IRQPin string
	// Frequency is the SCK rate.
	Frequency physic.Frequency
}

// DefaultConfig returns the wiring of the common Raspberry Pi hats.
func DefaultConfig() Config {
	return Config{
		Port:      "/dev/spidev0.0",
		NSSPin:    "GPIO8",
		BusyPin:   "GPIO25",
		ResetPin:  "GPIO7",
		IRQPin:    "",
		Frequency: DefaultFrequency,
	}
}

// outputPin and inputPin are the parts of gpio.PinIO the transport uses.
type outputPin interface {
	Out(l gpio.Level) error
}

type inputPin interface {
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// Transport implements pn5180.Transport over a periph SPI connection.
type Transport struct {
	conn     spi.Conn
	port     io.Closer
	nss      outputPin
	rst      outputPin
	busy     inputPin
	irq      inputPin
	portName string
	mu       syncutil.Mutex
	closed   bool
}

// New opens the SPI port and the control lines described by cfg.
func New(cfg Config) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultFrequency
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", cfg.Port, err)
	}

	conn, err := port.Connect(cfg.Frequency, mode, bits)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	nss, err := lookupPin("NSS", cfg.NSSPin)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	rst, err := lookupPin("RST", cfg.ResetPin)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	busy, err := lookupPin("BUSY", cfg.BusyPin)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	if err := busy.In(gpio.Float, gpio.NoEdge); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure BUSY pin: %w", err)
	}

	var irq inputPin
	if cfg.IRQPin != "" {
		irqPin, err := lookupPin("IRQ", cfg.IRQPin)
		if err != nil {
			_ = port.Close()
			return nil, err
		}
		if err := irqPin.In(gpio.Float, gpio.RisingEdge); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to configure IRQ pin: %w", err)
		}
		irq = irqPin
	}

	t, err := newTransport(cfg.Port, conn, port, nss, rst, busy, irq)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

func lookupPin(role, name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no %s pin configured", pn5180.ErrInvalidParameter, role)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to open %s pin %s", role, name)
	}
	return p, nil
}

// newTransport wires an already opened bus. NSS and RST start high.
func newTransport(
	portName string, conn spi.Conn, port io.Closer, nss, rst outputPin, busy, irq inputPin,
) (*Transport, error) {
	if err := nss.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to idle NSS: %w", err)
	}
	if err := rst.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to release RST: %w", err)
	}
	return &Transport{
		conn:     conn,
		port:     port,
		nss:      nss,
		rst:      rst,
		busy:     busy,
		irq:      irq,
		portName: portName,
	}, nil
}

// Port returns the SPI port name given to New.
func (t *Transport) Port() string {
	return t.portName
}

// Tx performs one full-duplex transfer. r may be nil for writes.
func (t *Transport) Tx(w, r []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pn5180.ErrTransportClosed
	}
	if err := t.conn.Tx(w, r); err != nil {
		return fmt.Errorf("spi tx on %s: %w", t.portName, err)
	}
	return nil
}

// SetNSS drives chip select.
func (t *Transport) SetNSS(level gpio.Level) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pn5180.ErrTransportClosed
	}
	return t.nss.Out(level) //nolint:wrapcheck // caller adds context
}

// Busy samples BUSY.
func (t *Transport) Busy() gpio.Level {
	return t.busy.Read()
}

// SetReset drives RST.
func (t *Transport) SetReset(level gpio.Level) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pn5180.ErrTransportClosed
	}
	return t.rst.Out(level) //nolint:wrapcheck // caller adds context
}

// HasIRQ reports whether an IRQ line is wired.
func (t *Transport) HasIRQ() bool {
	return t.irq != nil
}

// WaitForWake blocks until the IRQ line rises, timeout passes or ctx is
// done. It reports whether an edge was seen. Without an IRQ line it
// returns false after the timeout.
func (t *Transport) WaitForWake(ctx context.Context, timeout time.Duration) (bool, error) {
	if t.irq == nil {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, nil
		}
	}

	// Already high: the chip raised IRQ before we started waiting.
	if t.irq.Read() == gpio.High {
		return true, nil
	}

	deadline := time.Now().Add(timeout)
	const slice = 50 * time.Millisecond
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		if t.irq.WaitForEdge(min(slice, remaining)) {
			return true, nil
		}
	}
}

// Close releases the SPI port. NSS is left high.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	nssErr := t.nss.Out(gpio.High)
	portErr := t.port.Close()
	if err := errors.Join(nssErr, portErr); err != nil {
		return fmt.Errorf("failed to close SPI transport: %w", err)
	}
	return nil
}

// Type implements pn5180.Transport.
func (*Transport) Type() pn5180.TransportType {
	return pn5180.TransportSPI
}
