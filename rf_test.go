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

func TestRFField_OnOff(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	device, sim, _ := newTestDevice(t)

	require.NoError(t, device.SetRFOn(ctx))
	assert.True(t, sim.RFOn())
	assert.Zero(t, IRQStatus(sim.Register(RegIRQStatus))&IRQTxRFOn, "TX_RFON is cleared after the wait")

	require.NoError(t, device.SetRFOff(ctx))
	assert.False(t, sim.RFOn())
	assert.Zero(t, IRQStatus(sim.Register(RegIRQStatus))&IRQTxRFOff)

	cmds := sim.Commands()
	assert.Contains(t, cmds, []byte{0x16, 0x00})
	assert.Contains(t, cmds, []byte{0x17, 0x00})
	assert.Zero(t, sim.Violations())
}

func TestRFField_IRQTimeout(t *testing.T) {
	t.Parallel()

	device, sim, clock := newTestDevice(t)
	sim.SetFaults(testutil.FaultConfig{SuppressRFIRQ: true})

	start := clock.Now()
	err := device.SetRFOn(context.Background())
	elapsed := clock.Now().Sub(start)

	require.ErrorIs(t, err, ErrIRQTimeout)
	assert.True(t, IsTimeout(err))
	assert.True(t, sim.RFOn(), "the field command itself went through")
	assert.GreaterOrEqual(t, elapsed, rfFieldTimeout)
	assert.Less(t, elapsed, rfFieldTimeout+100*time.Millisecond)
}

func TestRFField_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	device, sim, _ := newTestDevice(t)
	sim.SetFaults(testutil.FaultConfig{SuppressRFIRQ: true})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	device.clock = cancellingClock{Clock: device.clock, after: 3, calls: &calls, cancel: cancel}

	err := device.SetRFOn(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// cancellingClock cancels a context after a number of sleeps.
type cancellingClock struct {
	Clock
	calls  *int
	cancel context.CancelFunc
	after  int
}

func (c cancellingClock) Sleep(d time.Duration) {
	*c.calls++
	if *c.calls == c.after {
		c.cancel()
	}
	c.Clock.Sleep(d)
}
