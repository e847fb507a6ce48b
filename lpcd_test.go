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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-pn5180/internal/testing"
)

func TestPrepareLPCD_WritesAndVerifies(t *testing.T) {
	t.Parallel()

	device, sim, clock := newTestDevice(t)
	cfg := DefaultLPCDConfig()

	got, err := device.PrepareLPCD(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
	assert.Equal(t, []byte{0xF0, 0x03, 0x01, 0xF0, 0xF0}, sim.EEPROM(int(EELPCDFieldOnTime), 5))
	assert.GreaterOrEqual(t, clock.Slept(), lpcdSettleDelay)

	// One write and one read-back per byte.
	cmds := sim.Commands()
	require.Len(t, cmds, 10)
	assert.Equal(t, []byte{0x06, 0x36, 0xF0}, cmds[0])
	assert.Equal(t, []byte{0x07, 0x36, 0x01}, cmds[1])
	assert.Equal(t, []byte{0x06, 0x3A, 0xF0}, cmds[8])
}

func TestPrepareLPCD_ReadBackMismatch(t *testing.T) {
	t.Parallel()

	readOnly := testutil.FaultConfig{ReadOnlyEEPROM: map[byte]bool{EELPCDThreshold: true}}

	t.Run("lenient keeps the chip value", func(t *testing.T) {
		t.Parallel()
		device, sim, _ := newTestDevice(t)
		sim.SetFaults(readOnly)

		got, err := device.PrepareLPCD(context.Background(), DefaultLPCDConfig())
		require.NoError(t, err)
		assert.Equal(t, byte(0x00), got.Threshold)
		assert.Equal(t, byte(0xF0), got.GPOToggleAfterFieldOn)
	})

	t.Run("strict fails", func(t *testing.T) {
		t.Parallel()
		device, sim, _ := newTestDevice(t, WithStrictLPCDVerify())
		sim.SetFaults(readOnly)

		got, err := device.PrepareLPCD(context.Background(), DefaultLPCDConfig())
		require.ErrorIs(t, err, ErrVerifyMismatch)
		assert.Equal(t, byte(0x00), got.Threshold)
		assert.Equal(t, byte(0x00), sim.EEPROM(int(EELPCDRefValGPOControl), 1)[0], "later fields untouched")
	})
}

func TestSwitchToLPCD(t *testing.T) {
	t.Parallel()

	device, sim, _ := newTestDevice(t)
	sim.RaiseIRQ(uint32(IRQTx | IRQRx))

	require.NoError(t, device.SwitchToLPCD(context.Background(), MaxWakeupCounter))

	cmds := sim.Commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, []byte{0x00, 0x03, 0xFF, 0xFF, 0xFF, 0xFF}, cmds[0])
	assert.Equal(t, []byte{0x0B, 0x01, 0x82, 0x0A}, cmds[2])

	armed, wakeup := sim.LPCDArmed()
	assert.True(t, armed)
	assert.Equal(t, uint16(MaxWakeupCounter), wakeup)
	assert.Equal(t, uint32(IRQLPCD|IRQGeneralError), sim.IRQEnable())
	assert.Zero(t, sim.Register(RegIRQStatus))
}

func TestSwitchToLPCD_WakeupOutOfRange(t *testing.T) {
	t.Parallel()

	device, sim, _ := newTestDevice(t)
	err := device.SwitchToLPCD(context.Background(), MaxWakeupCounter+1)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Zero(t, sim.TxCount())
}

func TestLPCD_DetectsCard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	device, sim, _ := newTestDevice(t)

	_, err := device.PrepareLPCD(ctx, DefaultLPCDConfig())
	require.NoError(t, err)
	require.NoError(t, device.SwitchToLPCD(ctx, 100))

	status, err := device.GetIRQStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Has(IRQLPCD))

	sim.PlaceCard(testutil.NewVirtualMifareCard(nil))
	status, err = device.GetIRQStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Has(IRQLPCD))
}

func TestDefaultLPCDConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultLPCDConfig()
	assert.Equal(t, byte(0xF0), cfg.FieldOnTime)
	assert.Equal(t, byte(0x03), cfg.Threshold)
	assert.Equal(t, byte(0x01), cfg.RefValGPOControl)
	// FieldOnTime is value*8us + 62us.
	assert.Equal(t, 1982*time.Microsecond, time.Duration(cfg.FieldOnTime)*8*time.Microsecond+62*time.Microsecond)
}
