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

//go:build !prod

package pn5180

import (
	testutil "github.com/ZaparooProject/go-pn5180/internal/testing"
)

// SimulatorTransport adapts the chip simulator to Transport.
type SimulatorTransport struct {
	*testutil.VirtualPN5180
}

// NewSimulatorTransport wraps sim so a Device can drive it.
func NewSimulatorTransport(sim *testutil.VirtualPN5180) *SimulatorTransport {
	return &SimulatorTransport{VirtualPN5180: sim}
}

// Type implements Transport.
func (*SimulatorTransport) Type() TransportType {
	return TransportMock
}

// NewSimulatedDevice returns a device backed by a fresh simulator and a
// virtual clock.
func NewSimulatedDevice(opts ...Option) (*Device, *testutil.VirtualPN5180, *testutil.SimClock, error) {
	sim := testutil.NewVirtualPN5180()
	clock := testutil.NewSimClock()
	all := append([]Option{WithClock(clock)}, opts...)
	device, err := New(NewSimulatorTransport(sim), all...)
	if err != nil {
		return nil, nil, nil, err
	}
	return device, sim, clock, nil
}
