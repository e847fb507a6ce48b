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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn5180/internal/syncutil"
)

const (
	// DefaultCommandTimeout bounds every BUSY wait in a transaction.
	DefaultCommandTimeout = 500 * time.Millisecond

	// pollInterval is the sleep between BUSY and IRQ samples.
	pollInterval = time.Millisecond

	defaultTraceDepth = 24
)

// Device is a PN5180 driven through a Transport.
//
// Thread Safety: a Device serializes its own operations, so at most one bus
// transaction is in flight per instance. Compound operations such as
// SendData hold the device for their whole sequence.
type Device struct {
	transport  Transport
	clock      Clock
	logf       LogPrintf
	buffers    *buffers
	timeout    time.Duration
	largeSize  int
	traceDepth int
	mu         syncutil.Mutex
	strictLPCD bool
	closed     bool
}

// Option configures a Device in New.
type Option func(*Device) error

// WithCommandTimeout sets the bound on each BUSY wait and on reset.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: command timeout must be positive, got %v", ErrInvalidParameter, timeout)
		}
		d.timeout = timeout
		return nil
	}
}

// WithClock replaces the wall clock used for every wait.
func WithClock(clock Clock) Option {
	return func(d *Device) error {
		if clock == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidParameter)
		}
		d.clock = clock
		return nil
	}
}

// WithLogger routes the device's diagnostic output to logf instead of
// Debugf.
func WithLogger(logf LogPrintf) Option {
	return func(d *Device) error {
		if logf == nil {
			logf = func(string, ...any) {}
		}
		d.logf = logf
		return nil
	}
}

// WithLargeBufferSize sizes the receive buffer used by ReadData for
// lengths above 16. Zero disables it.
func WithLargeBufferSize(size int) Option {
	return func(d *Device) error {
		if size < 0 || size > MaxReadDataLength {
			return fmt.Errorf("%w: large buffer size %d outside 0..%d",
				ErrInvalidParameter, size, MaxReadDataLength)
		}
		d.largeSize = size
		return nil
	}
}

// WithStrictLPCDVerify makes PrepareLPCD fail when a read-back differs from
// the value written.
func WithStrictLPCDVerify() Option {
	return func(d *Device) error {
		d.strictLPCD = true
		return nil
	}
}

// WithTraceDepth sets how many handshake steps are kept for error traces.
func WithTraceDepth(depth int) Option {
	return func(d *Device) error {
		if depth <= 0 {
			return fmt.Errorf("%w: trace depth must be positive, got %d", ErrInvalidParameter, depth)
		}
		d.traceDepth = depth
		return nil
	}
}

// New creates a Device on top of transport. Scratch buffers are allocated
// here, once, for the lifetime of the device.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport:  transport,
		clock:      SystemClock(),
		logf:       Debugf,
		timeout:    DefaultCommandTimeout,
		largeSize:  MaxReadDataLength,
		traceDepth: defaultTraceDepth,
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	device.buffers = newBuffers(device.largeSize)
	return device, nil
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.transport
}

// CommandTimeout returns the bound on a single BUSY wait.
func (d *Device) CommandTimeout() time.Duration {
	return d.timeout
}

// Close releases the transport. Further operations fail with
// ErrTransportClosed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.transport.Close(); err != nil && !errors.Is(err, ErrTransportClosed) {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}
