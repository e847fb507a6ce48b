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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIRQStatus_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want   string
		status IRQStatus
	}{
		{want: "none", status: 0},
		{want: "IDLE", status: IRQIdle},
		{want: "IDLE|LPCD", status: IRQIdle | IRQLPCD},
		{want: "TX_RFON|GENERAL_ERROR", status: IRQTxRFOn | IRQGeneralError},
		{want: "RX|0x00100000", status: IRQRx | 1<<20},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestIRQStatus_Has(t *testing.T) {
	t.Parallel()

	s := IRQIdle | IRQGeneralError
	assert.True(t, s.Has(IRQIdle))
	assert.True(t, s.Has(IRQIdle|IRQLPCD))
	assert.False(t, s.Has(IRQLPCD))
	assert.True(t, s.HasError())
	assert.False(t, IRQIdle.HasError())
}

func TestTransceiveState(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TransceiveWaitTransmit, transceiveStateFromRFStatus(0x01000000))
	assert.Equal(t, TransceiveReserved, transceiveStateFromRFStatus(0xFF000000))
	assert.Equal(t, TransceiveIdle, transceiveStateFromRFStatus(0x00FFFFFF))

	assert.Equal(t, "WaitTransmit", TransceiveWaitTransmit.String())
	assert.Equal(t, "LoopBack", TransceiveLoopBack.String())
	assert.Equal(t, "TransceiveState(9)", TransceiveState(9).String())
}
