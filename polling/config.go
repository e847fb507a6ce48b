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
	"time"

	pn5180 "github.com/ZaparooProject/go-pn5180"
)

// SleepRecoveryConfig configures recovery after the host slept. The chip may
// have lost power meanwhile, so it is reset and re-armed.
type SleepRecoveryConfig struct {
	// Enabled enables sleep detection and recovery attempts
	Enabled bool

	// TimeDiscontinuityThreshold is the minimum elapsed time beyond the expected
	// wait that indicates a sleep occurred. Default: 2 seconds
	TimeDiscontinuityThreshold time.Duration

	// MaxRecoveryAttempts is the number of reset-and-re-arm attempts a
	// recovery makes before the session gives up. It bounds recovery after
	// consecutive errors too, even when Enabled is false. Default: 3
	MaxRecoveryAttempts int

	// RecoveryBackoff is the delay between recovery attempts
	RecoveryBackoff time.Duration
}

// DefaultSleepRecoveryConfig returns sensible defaults for sleep recovery
func DefaultSleepRecoveryConfig() SleepRecoveryConfig {
	return SleepRecoveryConfig{
		Enabled:                    true,
		TimeDiscontinuityThreshold: 2 * time.Second,
		MaxRecoveryAttempts:        3,
		RecoveryBackoff:            500 * time.Millisecond,
	}
}

// DetectSleep checks if the elapsed time since the last wait indicates a
// system sleep. Returns true if elapsed exceeds expected plus the threshold.
func (cfg SleepRecoveryConfig) DetectSleep(elapsed, expected time.Duration) bool {
	if !cfg.Enabled {
		return false
	}
	return elapsed > expected+cfg.TimeDiscontinuityThreshold
}

// Config holds LPCD monitoring options
type Config struct {
	// ArmRetry is the retry policy for entering LPCD.
	ArmRetry *pn5180.RetryConfig
	// LPCD is written to EEPROM before the first arm and after every reset.
	LPCD pn5180.LPCDConfig
	// PollInterval is how long to wait for a wake signal before reading
	// IRQ_STATUS anyway. Without a wake source it is the poll period.
	PollInterval time.Duration
	// ReArmDelay is the pause after a detection before LPCD is re-armed, so
	// a card left on the reader is not reported on every field pulse.
	ReArmDelay time.Duration
	// MaxConsecutiveErrors triggers recovery when reached. Zero disables it.
	MaxConsecutiveErrors int
	// SleepRecovery configures automatic recovery after host sleep/wake cycles
	SleepRecovery SleepRecoveryConfig
	// WakeupInterval is the LPCD field pulse period in milliseconds.
	WakeupInterval uint16
}

// DefaultConfig returns the default monitoring configuration
func DefaultConfig() *Config {
	return &Config{
		ArmRetry:             pn5180.ReArmRetryConfig(),
		LPCD:                 pn5180.DefaultLPCDConfig(),
		PollInterval:         250 * time.Millisecond,
		ReArmDelay:           time.Second,
		MaxConsecutiveErrors: 5,
		SleepRecovery:        DefaultSleepRecoveryConfig(),
		WakeupInterval:       0x03FF,
	}
}
