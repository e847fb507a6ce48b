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
	"errors"
	"fmt"
	"time"

	pn5180 "github.com/ZaparooProject/go-pn5180"
)

// SessionState is the monitor's position in the arm/detect cycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateArmed
	StateDetected
	StateRecovering
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDetected:
		return "detected"
	case StateRecovering:
		return "recovering"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session errors
var (
	ErrSessionRunning = errors.New("session already running")
	ErrSessionClosed  = errors.New("session closed")
	// ErrChipError is reported when the chip raised GENERAL_ERROR.
	ErrChipError = errors.New("chip reported general error")
)

// Event describes one card detection.
type Event struct {
	Time time.Time
	// IRQ is the IRQ_STATUS that carried the LPCD bit.
	IRQ pn5180.IRQStatus
	// Count is the number of detections in this session, this one included.
	Count int64
	// Woken is true when the IRQ line signalled the detection.
	Woken bool
}

// Metrics tracks operational counters of a Session
type Metrics struct {
	LastDetection time.Time
	Arms          int64 // times LPCD was entered
	Polls         int64 // IRQ_STATUS reads
	Detections    int64
	Errors        int64
	Recoveries    int64
}

// safeTimerStop stops a timer and drains its channel
func safeTimerStop(timer *time.Timer) {
	if timer != nil && !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
