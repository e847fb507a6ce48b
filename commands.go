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

	"github.com/ZaparooProject/go-pn5180/internal/frame"
)

// Limits enforced before any bus traffic.
const (
	MaxEEPROMAddress   = frame.MaxEEPROMAddress
	MaxSendDataLength  = frame.MaxSendDataLength
	MaxReadDataLength  = frame.MaxReadDataLength
	MaxWakeupCounter   = frame.MaxWakeupCounter
	RFConfigUnchanged  = frame.RFConfigUnchanged
	registerValueBytes = frame.RegisterValueLength
)

// WriteRegister overwrites a 32-bit register.
func (d *Device) WriteRegister(ctx context.Context, addr byte, value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(ctx, frame.CmdWriteRegister, addr, value)
}

// WriteRegisterWithOrMask sets the bits of mask in a register.
func (d *Device) WriteRegisterWithOrMask(ctx context.Context, addr byte, mask uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(ctx, frame.CmdWriteRegisterOrMask, addr, mask)
}

// WriteRegisterWithAndMask keeps only the bits of mask in a register.
func (d *Device) WriteRegisterWithAndMask(ctx context.Context, addr byte, mask uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(ctx, frame.CmdWriteRegisterAndMask, addr, mask)
}

// ReadRegister reads a 32-bit register.
func (d *Device) ReadRegister(ctx context.Context, addr byte) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(ctx, addr)
}

// WriteEEPROM writes data starting at addr. Only the payload size is
// checked; an out-of-range write surfaces as a chip error IRQ.
func (d *Device) WriteEEPROM(ctx context.Context, addr byte, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeEEPROM(ctx, addr, data)
}

// ReadEEPROM reads length bytes starting at addr. Ranges reaching past
// address 254 are rejected without touching the bus.
func (d *Device) ReadEEPROM(ctx context.Context, addr, length int) ([]byte, error) {
	cmd, err := frame.ReadEEPROM(addr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	if length == 0 {
		return out, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.transceive(ctx, "read eeprom", cmd, out); err != nil {
		return nil, err
	}
	d.logf("eeprom[0x%02X..0x%02X] = % X", addr, addr+length-1, out)
	return out, nil
}

// LoadRFConfig loads the TX and RX protocol settings from EEPROM into the
// RF registers. Pass RFConfigUnchanged to keep one side as is.
func (d *Device) LoadRFConfig(ctx context.Context, tx, rx byte) error {
	cmd, err := frame.LoadRFConfig(tx, rx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transceive(ctx, "load rf config", cmd, nil)
}

// GetIRQStatus reads IRQ_STATUS.
func (d *Device) GetIRQStatus(ctx context.Context) (IRQStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.irqStatus(ctx)
}

// ClearIRQStatus clears the bits of mask. The chip clears on write-one.
func (d *Device) ClearIRQStatus(ctx context.Context, mask IRQStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearIRQ(ctx, mask)
}

// GetTransceiveState reads the transceive state from RF_STATUS.
func (d *Device) GetTransceiveState(ctx context.Context) (TransceiveState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transceiveState(ctx)
}

func (d *Device) writeRegister(ctx context.Context, op, addr byte, value uint32) error {
	return d.transceive(ctx, "write register", frame.WriteRegister(op, addr, value), nil)
}

func (d *Device) readRegister(ctx context.Context, addr byte) (uint32, error) {
	var resp [registerValueBytes]byte
	if err := d.transceive(ctx, "read register", frame.ReadRegister(addr), resp[:]); err != nil {
		return 0, err
	}
	return frame.RegisterValue(resp[:]), nil
}

func (d *Device) writeEEPROM(ctx context.Context, addr byte, data []byte) error {
	cmd, err := frame.WriteEEPROM(addr, data)
	if err != nil {
		return err
	}
	return d.transceive(ctx, "write eeprom", cmd, nil)
}

func (d *Device) irqStatus(ctx context.Context) (IRQStatus, error) {
	v, err := d.readRegister(ctx, RegIRQStatus)
	if err != nil {
		return 0, err
	}
	return IRQStatus(v), nil
}

func (d *Device) clearIRQ(ctx context.Context, mask IRQStatus) error {
	return d.writeRegister(ctx, frame.CmdWriteRegister, RegIRQClear, uint32(mask))
}

func (d *Device) transceiveState(ctx context.Context) (TransceiveState, error) {
	v, err := d.readRegister(ctx, RegRFStatus)
	if err != nil {
		return 0, fmt.Errorf("failed to read rf status: %w", err)
	}
	return transceiveStateFromRFStatus(v), nil
}
