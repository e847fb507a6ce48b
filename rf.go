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
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn5180/internal/frame"
)

// rfFieldTimeout bounds the wait for the field on/off IRQ.
const rfFieldTimeout = 500 * time.Millisecond

// SetRFOn switches the RF field on and waits for TX_RFON. On timeout the
// field state is unknown; check GetIRQStatus before relying on it.
func (d *Device) SetRFOn(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.switchField(ctx, "rf on", frame.RFOn(0), IRQTxRFOn)
}

// SetRFOff switches the RF field off and waits for TX_RFOFF.
func (d *Device) SetRFOff(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.switchField(ctx, "rf off", frame.RFOff(), IRQTxRFOff)
}

func (d *Device) switchField(ctx context.Context, op string, cmd []byte, done IRQStatus) error {
	if err := d.transceive(ctx, op, cmd, nil); err != nil {
		return err
	}
	if err := d.waitForIRQ(ctx, done, rfFieldTimeout); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := d.clearIRQ(ctx, done); err != nil {
		return fmt.Errorf("%s: failed to clear %s: %w", op, done, err)
	}
	return nil
}

// waitForIRQ polls IRQ_STATUS every millisecond until a bit of mask is set.
// The caller must hold d.mu.
func (d *Device) waitForIRQ(ctx context.Context, mask IRQStatus, timeout time.Duration) error {
	start := d.clock.Now()
	for {
		status, err := d.irqStatus(ctx)
		if err != nil {
			return err
		}
		if status.Has(mask) {
			return nil
		}
		if d.clock.Now().Sub(start) > timeout {
			d.logf("irq %s not raised within %v (status %s)", mask, timeout, status)
			return fmt.Errorf("%w: %s after %v", ErrIRQTimeout, mask, timeout)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		d.clock.Sleep(pollInterval)
	}
}
