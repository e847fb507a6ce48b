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
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/physic"

	pn5180 "github.com/ZaparooProject/go-pn5180"
	"github.com/ZaparooProject/go-pn5180/polling"
	"github.com/ZaparooProject/go-pn5180/transport/spi"
)

const (
	modeInfo    = "info"
	modeMonitor = "monitor"
)

type config struct {
	spi     spi.Config
	mode    string
	logDir  string
	broker  string
	topic   string
	timeout time.Duration
	wakeup  uint
	debug   bool
}

// Package-level flag variables
var (
	flagPort    string
	flagNSS     string
	flagBusy    string
	flagReset   string
	flagIRQ     string
	flagMode    string
	flagLogDir  string
	flagBroker  string
	flagTopic   string
	flagFreq    = spi.DefaultFrequency
	flagTimeout time.Duration
	flagWakeup  uint
	flagDebug   bool
)

func init() {
	defaults := spi.DefaultConfig()
	flag.StringVar(&flagPort, "spi", defaults.Port, "SPI port name")
	flag.StringVar(&flagNSS, "nss", defaults.NSSPin, "GPIO driving NSS")
	flag.StringVar(&flagBusy, "busy", defaults.BusyPin, "GPIO reading BUSY")
	flag.StringVar(&flagReset, "rst", defaults.ResetPin, "GPIO driving RST")
	flag.StringVar(&flagIRQ, "irq", "", "GPIO reading IRQ (optional)")
	flag.Var(&flagFreq, "freq", "SPI clock frequency")
	flag.StringVar(&flagMode, "mode", modeInfo, "info prints chip versions, monitor runs card detection")
	flag.StringVar(&flagLogDir, "log", "", "Directory for a session debug log")
	flag.StringVar(&flagBroker, "mqtt", "", "MQTT broker URL for detection events, e.g. tcp://localhost:1883")
	flag.StringVar(&flagTopic, "topic", "pn5180/detect", "MQTT topic for detection events")
	flag.DurationVar(&flagTimeout, "timeout", pn5180.DefaultCommandTimeout, "Per-command BUSY timeout")
	flag.UintVar(&flagWakeup, "wakeup", 0x03FF, "LPCD wake-up period in milliseconds")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() (*config, error) {
	cfg := &config{
		spi: spi.Config{
			Port:      flagPort,
			NSSPin:    flagNSS,
			BusyPin:   flagBusy,
			ResetPin:  flagReset,
			IRQPin:    flagIRQ,
			Frequency: flagFreq,
		},
		mode:    flagMode,
		logDir:  flagLogDir,
		broker:  flagBroker,
		topic:   flagTopic,
		timeout: flagTimeout,
		wakeup:  flagWakeup,
		debug:   flagDebug,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Enable debug output if --debug flag is set
	if cfg.debug {
		pn5180.SetDebugEnabled(true)
	}
	return cfg, nil
}

func (c *config) validate() error {
	switch c.mode {
	case modeInfo, modeMonitor:
	default:
		return fmt.Errorf("unknown mode %q", c.mode)
	}
	if c.wakeup > pn5180.MaxWakeupCounter {
		return fmt.Errorf("wakeup %d exceeds %d ms", c.wakeup, pn5180.MaxWakeupCounter)
	}
	if c.timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.spi.Frequency <= 0 || c.spi.Frequency > 7*physic.MegaHertz {
		return fmt.Errorf("frequency %s out of range", c.spi.Frequency)
	}
	return nil
}

func runInfo(ctx context.Context, device *pn5180.Device, out io.Writer) error {
	if err := device.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset PN5180: %w", err)
	}

	versions, err := device.GetVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read versions: %w", err)
	}
	dieID, err := device.GetDieIdentifier(ctx)
	if err != nil {
		return fmt.Errorf("failed to read die identifier: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Product version:  %s\n", versions.Product)
	_, _ = fmt.Fprintf(out, "Firmware version: %s\n", versions.Firmware)
	_, _ = fmt.Fprintf(out, "EEPROM version:   %s\n", versions.EEPROM)
	_, _ = fmt.Fprintf(out, "Die identifier:   %s\n", hex.EncodeToString(dieID))
	return nil
}

func runMonitor(
	ctx context.Context,
	device *pn5180.Device,
	wake polling.WakeSource,
	pub publisher,
	cfg *config,
	out io.Writer,
) error {
	if err := device.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset PN5180: %w", err)
	}

	sessionConfig := polling.DefaultConfig()
	sessionConfig.WakeupInterval = uint16(cfg.wakeup) //nolint:gosec // validated against MaxWakeupCounter
	session := polling.NewSession(device, sessionConfig)
	if wake != nil {
		session.SetWakeSource(wake)
	}

	// Ensure session cleanup for fast shutdown
	defer func() {
		if err := session.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close session: %v\n", err)
		}
	}()

	session.SetOnCardDetected(func(_ context.Context, ev polling.Event) error {
		_, _ = fmt.Fprintf(out, "Card detected: #%d irq=%s\n", ev.Count, ev.IRQ)
		if pub == nil {
			return nil
		}
		return pub.Publish(cfg.topic, newDetectionMessage(ev))
	})
	session.SetOnError(func(err error) {
		_, _ = fmt.Fprintf(os.Stderr, "Monitor error: %v\n", err)
	})

	_, _ = fmt.Fprintln(out, "Waiting for cards. Press Ctrl+C to stop...")
	return session.Start(ctx)
}

func run(ctx context.Context, cfg *config) error {
	if cfg.logDir != "" {
		path, err := pn5180.InitSessionLog(cfg.logDir)
		if err != nil {
			return fmt.Errorf("failed to open session log: %w", err)
		}
		defer func() { _ = pn5180.CloseSessionLog() }()
		if cfg.debug {
			_, _ = fmt.Printf("Session log: %s\n", path)
		}
	}

	transport, err := spi.New(cfg.spi)
	if err != nil {
		return fmt.Errorf("failed to create SPI transport: %w", err)
	}

	device, err := pn5180.New(transport,
		pn5180.WithCommandTimeout(cfg.timeout),
		pn5180.WithLogger(pn5180.Debugf))
	if err != nil {
		_ = transport.Close()
		return fmt.Errorf("failed to create device: %w", err)
	}
	defer func() {
		if err := device.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", err)
		}
	}()

	if cfg.mode == modeInfo {
		return runInfo(ctx, device, os.Stdout)
	}

	var pub publisher
	if cfg.broker != "" {
		mq, err := newMQTTPublisher(cfg.broker, pn5180.Debugf)
		if err != nil {
			return err
		}
		defer mq.Close()
		pub = mq
	}

	var wake polling.WakeSource
	if transport.HasIRQ() {
		wake = transport
	}
	return runMonitor(ctx, device, wake, pub, cfg, os.Stdout)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			// User requested shutdown, exit cleanly
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
