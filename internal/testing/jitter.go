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

package testing

import "math/rand/v2"

// JitterConfig configures how slowly the simulated chip moves BUSY.
type JitterConfig struct {
	// MaxBusyLatency is the most BUSY samples that still read the old level
	// after a transition is due.
	MaxBusyLatency int
	// TxErrorEvery makes every Nth Tx fail. Zero disables it.
	TxErrorEvery int
	// Seed makes the latency sequence reproducible. Zero picks a random seed.
	Seed uint64
}

// DefaultJitterConfig returns a mild latency profile.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxBusyLatency: 5,
	}
}

// jitter draws BUSY latencies from a seeded source.
type jitter struct {
	rng    *rand.Rand
	config JitterConfig
}

func newJitter(config JitterConfig) *jitter {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	if config.MaxBusyLatency < 0 {
		config.MaxBusyLatency = 0
	}
	return &jitter{rng: rng, config: config}
}

// busyLatency returns how many samples the next BUSY transition is delayed.
func (j *jitter) busyLatency() int {
	if j == nil || j.config.MaxBusyLatency == 0 {
		return 0
	}
	return j.rng.IntN(j.config.MaxBusyLatency + 1)
}

// txFails reports whether the count-th Tx should fail.
func (j *jitter) txFails(count int) bool {
	if j == nil || j.config.TxErrorEvery <= 0 {
		return false
	}
	return count%j.config.TxErrorEvery == 0
}
