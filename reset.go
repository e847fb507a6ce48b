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

	"periph.io/x/conn/v3/gpio"
)

// Reset pulse timing. The chip needs at least 10us low and 2ms to ramp up;
// the recovery pulse is longer.
const (
	resetPulse         = 1 * time.Millisecond
	resetRampUp        = 5 * time.Millisecond
	recoveryResetPulse = 10 * time.Millisecond
	recoveryRampUp     = 50 * time.Millisecond
)

// Reset pulses RST and waits for the IDLE IRQ. If the chip does not report
// idle within the command timeout, RST is pulsed once more with longer
// delays and ErrNotIdle is returned; the second pulse is not verified. When
// the last IRQ_STATUS read failed, its error is wrapped as well.
func (d *Device) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if err := d.pulseReset(resetPulse, resetRampUp); err != nil {
		return err
	}

	var lastErr error
	start := d.clock.Now()
	for {
		status, err := d.irqStatus(ctx)
		if err == nil && status.Has(IRQIdle) {
			return nil
		}
		lastErr = err
		if err != nil {
			d.logf("reset: irq status not readable yet: %v", err)
		}
		if d.clock.Now().Sub(start) > d.timeout {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("reset: %w", ctxErr)
		}
		d.clock.Sleep(pollInterval)
	}

	d.logf("reset: chip not idle after %v, retrying with longer pulse", d.timeout)
	if err := d.pulseReset(recoveryResetPulse, recoveryRampUp); err != nil {
		return err
	}
	if lastErr != nil {
		return fmt.Errorf("reset: %w within %v: %w", ErrNotIdle, d.timeout, lastErr)
	}
	return fmt.Errorf("reset: %w within %v", ErrNotIdle, d.timeout)
}

func (d *Device) pulseReset(low, rampUp time.Duration) error {
	if err := d.transport.SetReset(gpio.Low); err != nil {
		return fmt.Errorf("reset: %w", NewTransportWriteError("rst", "", err))
	}
	d.clock.Sleep(low)
	if err := d.transport.SetReset(gpio.High); err != nil {
		return fmt.Errorf("reset: %w", NewTransportWriteError("rst", "", err))
	}
	d.clock.Sleep(rampUp)
	return nil
}
