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

// SendData transmits data over RF. validBits is the number of bits sent
// from the last byte, 0 for all eight.
//
// The transceiver is put into Transceive first and must report
// WaitTransmit before the data is sent; otherwise ErrInvalidTransceiveState
// is returned and nothing is transmitted.
func (d *Device) SendData(ctx context.Context, data []byte, validBits byte) error {
	cmd, err := frame.SendData(data, validBits)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeRegister(ctx, frame.CmdWriteRegisterAndMask, RegSystemConfig, ^systemConfigCommandMask); err != nil {
		return fmt.Errorf("failed to set idle: %w", err)
	}
	if err := d.writeRegister(ctx, frame.CmdWriteRegisterOrMask, RegSystemConfig, systemConfigTransceive); err != nil {
		return fmt.Errorf("failed to start transceive: %w", err)
	}

	state, err := d.transceiveState(ctx)
	if err != nil {
		return err
	}
	if state != TransceiveWaitTransmit {
		d.logf("send data: transceiver in %s", state)
		return fmt.Errorf("%w: got %s", ErrInvalidTransceiveState, state)
	}

	d.logf("send data: % X (valid bits %d)", data, validBits)
	return d.transceive(ctx, "send data", cmd, nil)
}

// ReadData reads length bytes of received RF data into the device's
// scratch space. The returned slice is only valid until the next ReadData.
func (d *Device) ReadData(ctx context.Context, length int) ([]byte, error) {
	if err := frame.ValidateReadLength(length); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf, err := d.buffers.get(length)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return buf, nil
	}
	if err := d.transceive(ctx, "read data", frame.ReadData(), buf); err != nil {
		return nil, err
	}
	d.logf("read data: % X", buf)
	return buf, nil
}

// ReadDataInto reads len(buf) bytes of received RF data into buf.
func (d *Device) ReadDataInto(ctx context.Context, buf []byte) error {
	if err := frame.ValidateReadLength(len(buf)); err != nil {
		return err
	}
	if len(buf) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transceive(ctx, "read data", frame.ReadData(), buf)
}
