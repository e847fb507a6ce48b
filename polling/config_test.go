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

package polling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	pn5180 "github.com/ZaparooProject/go-pn5180"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.LessOrEqual(t, cfg.WakeupInterval, uint16(pn5180.MaxWakeupCounter))
	assert.Equal(t, pn5180.DefaultLPCDConfig(), cfg.LPCD)
	assert.NotNil(t, cfg.ArmRetry)
	assert.True(t, cfg.SleepRecovery.Enabled)
}

func TestSleepRecoveryConfig_DetectSleep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      SleepRecoveryConfig
		elapsed  time.Duration
		expected time.Duration
		want     bool
	}{
		{
			name:     "disabled",
			cfg:      SleepRecoveryConfig{Enabled: false, TimeDiscontinuityThreshold: time.Second},
			elapsed:  time.Hour,
			expected: time.Millisecond,
			want:     false,
		},
		{
			name:     "normal wait",
			cfg:      DefaultSleepRecoveryConfig(),
			elapsed:  300 * time.Millisecond,
			expected: 250 * time.Millisecond,
			want:     false,
		},
		{
			name:     "at threshold",
			cfg:      DefaultSleepRecoveryConfig(),
			elapsed:  2250 * time.Millisecond,
			expected: 250 * time.Millisecond,
			want:     false,
		},
		{
			name:     "host slept",
			cfg:      DefaultSleepRecoveryConfig(),
			elapsed:  10 * time.Second,
			expected: 250 * time.Millisecond,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.DetectSleep(tt.elapsed, tt.expected))
		})
	}
}
