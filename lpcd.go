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

// lpcdSettleDelay lets the chip pick up new LPCD settings.
const lpcdSettleDelay = 100 * time.Millisecond

// LPCDConfig holds the EEPROM settings used by low power card detection.
type LPCDConfig struct {
	// FieldOnTime is the field-on duration, value*8us + 62us.
	FieldOnTime byte
	// Threshold is the AGC change that counts as a card.
	Threshold byte
	// RefValGPOControl selects the calibration mode; 1 is self calibration.
	RefValGPOControl byte
	// GPOToggleBeforeFieldOn and GPOToggleAfterFieldOn control GPO timing
	// around each field pulse.
	GPOToggleBeforeFieldOn byte
	GPOToggleAfterFieldOn  byte
}

// DefaultLPCDConfig returns the settings known to work with common antennas.
func DefaultLPCDConfig() LPCDConfig {
	return LPCDConfig{
		FieldOnTime:            0xF0,
		Threshold:              0x03,
		RefValGPOControl:       0x01,
		GPOToggleBeforeFieldOn: 0xF0,
		GPOToggleAfterFieldOn:  0xF0,
	}
}

func (c *LPCDConfig) fields() []struct {
	value *byte
	name  string
	addr  byte
} {
	return []struct {
		value *byte
		name  string
		addr  byte
	}{
		{&c.FieldOnTime, "field on time", EELPCDFieldOnTime},
		{&c.Threshold, "threshold", EELPCDThreshold},
		{&c.RefValGPOControl, "refval gpo control", EELPCDRefValGPOControl},
		{&c.GPOToggleBeforeFieldOn, "gpo toggle before field on", EELPCDGPOToggleBeforeFieldOn},
		{&c.GPOToggleAfterFieldOn, "gpo toggle after field on", EELPCDGPOToggleAfterFieldOn},
	}
}

// PrepareLPCD writes cfg to EEPROM one byte at a time, reading each byte
// back. The returned config holds the read-back values, which are the ones
// in effect. A mismatch is logged, or returned as ErrVerifyMismatch when
// the device was built WithStrictLPCDVerify.
func (d *Device) PrepareLPCD(ctx context.Context, cfg LPCDConfig) (LPCDConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	effective := cfg
	for _, f := range effective.fields() {
		written := *f.value
		if err := d.writeEEPROM(ctx, f.addr, []byte{written}); err != nil {
			return effective, fmt.Errorf("lpcd %s: %w", f.name, err)
		}

		var readBack [1]byte
		cmd, err := frame.ReadEEPROM(int(f.addr), 1)
		if err != nil {
			return effective, err
		}
		if err := d.transceive(ctx, "read eeprom", cmd, readBack[:]); err != nil {
			return effective, fmt.Errorf("lpcd %s: %w", f.name, err)
		}
		*f.value = readBack[0]

		d.logf("lpcd %s (0x%02X) = 0x%02X", f.name, f.addr, readBack[0])
		if readBack[0] != written {
			if d.strictLPCD {
				return effective, fmt.Errorf("%w: lpcd %s wrote 0x%02X, read 0x%02X",
					ErrVerifyMismatch, f.name, written, readBack[0])
			}
			d.logf("lpcd %s: wrote 0x%02X but chip kept 0x%02X", f.name, written, readBack[0])
		}
	}

	d.clock.Sleep(lpcdSettleDelay)
	return effective, nil
}

// SwitchToLPCD clears all IRQs, enables only the LPCD and general error
// IRQs and enters low power card detection. wakeupMs is the interval
// between field pulses, at most MaxWakeupCounter.
func (d *Device) SwitchToLPCD(ctx context.Context, wakeupMs uint16) error {
	cmd, err := frame.SwitchToLPCD(wakeupMs)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.clearIRQ(ctx, IRQAll); err != nil {
		return fmt.Errorf("failed to clear irqs: %w", err)
	}
	enable := uint32(IRQLPCD | IRQGeneralError)
	if err := d.writeRegister(ctx, frame.CmdWriteRegister, RegIRQEnable, enable); err != nil {
		return fmt.Errorf("failed to enable lpcd irq: %w", err)
	}
	d.logf("switching to lpcd, wake-up every %d ms", wakeupMs)
	return d.transceive(ctx, "switch mode", cmd, nil)
}
