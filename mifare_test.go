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

	testutil "github.com/ZaparooProject/go-pn5180/internal/testing"
)

func TestMifareAuthenticate(t *testing.T) {
	t.Parallel()

	uid := testutil.TestMifareUID
	key := testutil.DefaultMifareKey
	wrongKey := []byte{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}

	tests := []struct {
		name    string
		key     []byte
		uid     []byte
		keyType byte
		card    bool
		rfOn    bool
		want    int16
	}{
		{name: "key A accepted", key: key, keyType: MifareKeyA, uid: uid, card: true, rfOn: true, want: AuthOK},
		{name: "key B accepted", key: key, keyType: MifareKeyB, uid: uid, card: true, rfOn: true, want: AuthOK},
		{name: "wrong key", key: wrongKey, keyType: MifareKeyA, uid: uid, card: true, rfOn: true, want: AuthFailed},
		{name: "no card", key: key, keyType: MifareKeyA, uid: uid, rfOn: true, want: AuthTimeout},
		{name: "field off", key: key, keyType: MifareKeyA, uid: uid, card: true, want: AuthTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			device, sim, _ := newTestDevice(t)
			if tt.card {
				sim.PlaceCard(testutil.NewVirtualMifareCard(nil))
			}
			if tt.rfOn {
				require.NoError(t, device.SetRFOn(ctx))
			}

			code, err := device.MifareAuthenticate(ctx, 4, tt.key, tt.keyType, tt.uid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestMifareAuthenticate_Frame(t *testing.T) {
	t.Parallel()

	device, sim, _ := newTestDevice(t)
	_, err := device.MifareAuthenticate(context.Background(), 0x07,
		[]byte{1, 2, 3, 4, 5, 6}, MifareKeyB, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)

	assert.Equal(t, [][]byte{{
		0x0C,
		1, 2, 3, 4, 5, 6,
		0x61,
		0x07,
		0xDE, 0xAD, 0xBE, 0xEF,
	}}, sim.Commands())
}

func TestMifareAuthenticate_InvalidParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     []byte
		uid     []byte
		keyType byte
	}{
		{name: "bad key type", key: testutil.DefaultMifareKey, keyType: 0x62, uid: testutil.TestMifareUID},
		{name: "short key", key: []byte{1, 2, 3, 4, 5}, keyType: MifareKeyA, uid: testutil.TestMifareUID},
		{name: "long key", key: make([]byte, 7), keyType: MifareKeyA, uid: testutil.TestMifareUID},
		{name: "seven byte uid", key: testutil.DefaultMifareKey, keyType: MifareKeyA, uid: make([]byte, 7)},
		{name: "nil uid", key: testutil.DefaultMifareKey, keyType: MifareKeyA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, sim, _ := newTestDevice(t)

			code, err := device.MifareAuthenticate(context.Background(), 4, tt.key, tt.keyType, tt.uid)
			require.Error(t, err)
			assert.Equal(t, AuthInvalidParameter, code)
			assert.True(t, IsAuthParameterError(err))
			assert.Zero(t, sim.TxCount())
		})
	}
}

func TestMifareAuthenticate_TransportError(t *testing.T) {
	t.Parallel()

	device, sim, _ := newTestDevice(t)
	sim.SetFaults(testutil.FaultConfig{BusyStuckHigh: true})

	code, err := device.MifareAuthenticate(context.Background(), 4,
		testutil.DefaultMifareKey, MifareKeyA, testutil.TestMifareUID)
	require.Error(t, err)
	assert.Equal(t, AuthTransportError, code)
	assert.False(t, IsAuthParameterError(err))
}
