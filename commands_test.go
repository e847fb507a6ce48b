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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisters_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	device, sim, _ := newTestDevice(t)

	require.NoError(t, device.WriteRegister(ctx, 0x10, 0x12345678))
	v, err := device.ReadRegister(ctx, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	require.NoError(t, device.WriteRegisterWithOrMask(ctx, 0x10, 0x80000000))
	assert.Equal(t, uint32(0x92345678), sim.Register(0x10))

	require.NoError(t, device.WriteRegisterWithAndMask(ctx, 0x10, 0x0000FFFF))
	assert.Equal(t, uint32(0x00005678), sim.Register(0x10))

	assert.Equal(t, [][]byte{
		{0x00, 0x10, 0x78, 0x56, 0x34, 0x12},
		{0x04, 0x10},
		{0x01, 0x10, 0x00, 0x00, 0x00, 0x80},
		{0x02, 0x10, 0xFF, 0xFF, 0x00, 0x00},
	}, sim.Commands())
}

func TestRegisters_RoundTripAllAddresses(t *testing.T) {
	t.Parallel()

	values := []uint32{0x00000000, 0xFFFFFFFF, 0x12345678, 0x80000001, 0x00FF00FF}

	for addr := range byte(0x40) {
		if !roundTripRegister(addr) {
			continue
		}
		device, _, _ := newTestDevice(t)
		for _, value := range values {
			require.NoError(t, device.WriteRegister(context.Background(), addr, value))
			got, err := device.ReadRegister(context.Background(), addr)
			require.NoError(t, err)
			assert.Equal(t, value, got, "register 0x%02X", addr)
		}
	}
}

func TestIRQStatus_ReadAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	device, sim, _ := newTestDevice(t)
	sim.RaiseIRQ(uint32(IRQLPCD | IRQTx))

	status, err := device.GetIRQStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Has(IRQLPCD))
	assert.True(t, status.Has(IRQIdle))
	assert.False(t, status.HasError())

	require.NoError(t, device.ClearIRQStatus(ctx, IRQLPCD))
	status, err = device.GetIRQStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, IRQIdle|IRQTx, status)

	require.NoError(t, device.ClearIRQStatus(ctx, IRQAll))
	status, err = device.GetIRQStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status)
}

func TestEEPROM_WriteRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	device, sim, _ := newTestDevice(t)

	require.NoError(t, device.WriteEEPROM(ctx, 0x36, []byte{0xF0, 0x03}))
	assert.Equal(t, []byte{0xF0, 0x03}, sim.EEPROM(0x36, 2))

	got, err := device.ReadEEPROM(ctx, 0x36, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0x03}, got)
}

func TestEEPROM_ReadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		addr   int
		length int
		ok     bool
	}{
		{name: "last byte", addr: 253, length: 1, ok: true},
		{name: "reaches 255", addr: 250, length: 5},
		{name: "far past end", addr: 250, length: 10},
		{name: "address 255", addr: 255, length: 0},
		{name: "negative address", addr: -1, length: 1},
		{name: "negative length", addr: 0, length: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, sim, _ := newTestDevice(t)

			_, err := device.ReadEEPROM(context.Background(), tt.addr, tt.length)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrAddressOutOfRange)
			assert.Zero(t, sim.TxCount())
		})
	}
}

func TestEEPROM_ZeroLengthRead(t *testing.T) {
	t.Parallel()

	device, sim, _ := newTestDevice(t)
	got, err := device.ReadEEPROM(context.Background(), 0x10, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, sim.TxCount())
}

func TestEEPROM_WriteValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		device, sim, _ := newTestDevice(t)
		require.ErrorIs(t, device.WriteEEPROM(ctx, 0x10, nil), ErrDataTooLarge)
		assert.Zero(t, sim.TxCount())
	})

	t.Run("oversized payload", func(t *testing.T) {
		t.Parallel()
		device, sim, _ := newTestDevice(t)
		require.ErrorIs(t, device.WriteEEPROM(ctx, 0, make([]byte, 256)), ErrDataTooLarge)
		assert.Zero(t, sim.TxCount())
	})

	t.Run("past the end is a chip error", func(t *testing.T) {
		t.Parallel()
		device, _, _ := newTestDevice(t)
		require.NoError(t, device.WriteEEPROM(ctx, 0xFE, []byte{1, 2}))

		status, err := device.GetIRQStatus(ctx)
		require.NoError(t, err)
		assert.True(t, status.HasError())
	})
}

func TestLoadRFConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tx      byte
		rx      byte
		wantErr bool
	}{
		{name: "ISO14443A 106", tx: 0x00, rx: 0x80},
		{name: "highest", tx: 0x1C, rx: 0x9C},
		{name: "both unchanged", tx: RFConfigUnchanged, rx: RFConfigUnchanged},
		{name: "tx out of range", tx: 0x1D, rx: 0x80, wantErr: true},
		{name: "rx below range", tx: 0x00, rx: 0x7F, wantErr: true},
		{name: "rx above range", tx: 0x00, rx: 0x9D, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, sim, _ := newTestDevice(t)

			err := device.LoadRFConfig(context.Background(), tt.tx, tt.rx)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				assert.Zero(t, sim.TxCount())
				return
			}
			require.NoError(t, err)
			configs := sim.RFConfigs()
			require.Len(t, configs, 1)
			assert.Equal(t, tt.tx, configs[0].Tx)
			assert.Equal(t, tt.rx, configs[0].Rx)
		})
	}
}

func TestGetTransceiveState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	device, sim, _ := newTestDevice(t)

	state, err := device.GetTransceiveState(ctx)
	require.NoError(t, err)
	assert.Equal(t, TransceiveIdle, state)

	sim.SetRegister(RegRFStatus, 0x03000000|0x00001234)
	state, err = device.GetTransceiveState(ctx)
	require.NoError(t, err)
	assert.Equal(t, TransceiveWaitReceive, state)
}
