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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	pn5180 "github.com/ZaparooProject/go-pn5180"
	"github.com/ZaparooProject/go-pn5180/internal/syncutil"
)

// WakeSource signals that the chip may have raised an IRQ. The SPI
// transport satisfies it when an IRQ line is wired.
type WakeSource interface {
	WaitForWake(ctx context.Context, timeout time.Duration) (bool, error)
}

// Session keeps a PN5180 in low power card detection and reports cards.
//
// The session owns the device while Start runs. Callbacks are invoked on the
// session goroutine; the chip is re-armed after they return.
type Session struct {
	lastDetection  time.Time
	device         *pn5180.Device
	config         *Config
	wake           WakeSource
	recoverer      DeviceRecoverer
	onCardDetected func(context.Context, Event) error
	onError        func(error)
	stopChan       chan struct{}
	doneChan       chan struct{}
	state          SessionState
	stateMutex     syncutil.RWMutex
	arms           atomic.Int64
	polls          atomic.Int64
	detections     atomic.Int64
	errs           atomic.Int64
	recoveries     atomic.Int64
	running        atomic.Bool
	closed         atomic.Bool
}

// NewSession creates a monitoring session for device.
func NewSession(device *pn5180.Device, config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	return &Session{
		device:   device,
		config:   config,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// SetWakeSource makes the session sleep on an IRQ line instead of a timer.
func (s *Session) SetWakeSource(wake WakeSource) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.wake = wake
}

// SetRecoverer replaces the recovery strategy. Without one the session
// resets the chip itself.
func (s *Session) SetRecoverer(r DeviceRecoverer) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.recoverer = r
}

// SetOnCardDetected sets the callback for when a card is detected.
func (s *Session) SetOnCardDetected(callback func(context.Context, Event) error) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.onCardDetected = callback
}

// SetOnError sets the callback for errors the session recovers from.
func (s *Session) SetOnError(callback func(error)) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.onError = callback
}

// GetDevice returns the device currently monitored.
func (s *Session) GetDevice() *pn5180.Device {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.device
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.state
}

// Metrics returns a snapshot of the session counters.
func (s *Session) Metrics() Metrics {
	s.stateMutex.RLock()
	last := s.lastDetection
	s.stateMutex.RUnlock()
	return Metrics{
		Arms:          s.arms.Load(),
		Polls:         s.polls.Load(),
		Detections:    s.detections.Load(),
		Errors:        s.errs.Load(),
		Recoveries:    s.recoveries.Load(),
		LastDetection: last,
	}
}

// Start arms LPCD and monitors until ctx is done or Close is called. It
// returns ctx.Err() on cancellation, nil after Close, and the last error
// when recovery gives up.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrSessionRunning
	}
	defer close(s.doneChan)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.run(ctx)
	if s.closed.Load() {
		return nil
	}
	return err
}

// Close stops a running session and waits for it to exit.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopChan)
	if s.running.Load() {
		<-s.doneChan
	}
	s.setState(StateClosed)
	return nil
}

func (s *Session) run(ctx context.Context) error {
	if err := s.arm(ctx, true); err != nil {
		return fmt.Errorf("failed to arm lpcd: %w", err)
	}

	consecutive := 0
	for {
		start := time.Now()
		woken, err := s.waitForWake(ctx)
		if err != nil {
			return err
		}

		if s.config.SleepRecovery.DetectSleep(time.Since(start), s.config.PollInterval) {
			pn5180.Debugf("host sleep detected after %v, recovering", time.Since(start))
			if err := s.recover(ctx); err != nil {
				return err
			}
			continue
		}

		if err := s.pollOnce(ctx, woken); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.reportError(err)
			if pn5180.IsFatal(err) {
				return err
			}
			consecutive++
			if s.config.MaxConsecutiveErrors > 0 && consecutive >= s.config.MaxConsecutiveErrors {
				if err := s.recover(ctx); err != nil {
					return err
				}
				consecutive = 0
			}
			continue
		}
		consecutive = 0
	}
}

// pollOnce reads IRQ_STATUS once and acts on it. A general error resets
// the chip and re-arms; an LPCD detection is reported and re-armed.
func (s *Session) pollOnce(ctx context.Context, woken bool) error {
	device := s.GetDevice()
	s.polls.Add(1)

	status, err := device.GetIRQStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read irq status: %w", err)
	}

	switch {
	case status.HasError():
		if err := device.ClearIRQStatus(ctx, pn5180.IRQGeneralError); err != nil {
			s.reportError(fmt.Errorf("failed to clear general error irq: %w", err))
		}
		s.reportError(fmt.Errorf("%w: irq %s", ErrChipError, status))
		if err := device.Reset(ctx); err != nil {
			return fmt.Errorf("reset after chip error: %w", err)
		}
		return s.arm(ctx, true)

	case status.Has(pn5180.IRQLPCD):
		if err := device.ClearIRQStatus(ctx, pn5180.IRQLPCD); err != nil {
			return fmt.Errorf("failed to clear lpcd irq: %w", err)
		}
		s.handleDetection(ctx, status, woken)
		if err := s.sleep(ctx, s.config.ReArmDelay); err != nil {
			return err
		}
		return s.arm(ctx, false)

	default:
		return nil
	}
}

func (s *Session) handleDetection(ctx context.Context, status pn5180.IRQStatus, woken bool) {
	now := time.Now()
	count := s.detections.Add(1)

	s.stateMutex.Lock()
	s.state = StateDetected
	s.lastDetection = now
	callback := s.onCardDetected
	s.stateMutex.Unlock()

	if callback == nil {
		return
	}
	event := Event{Time: now, IRQ: status, Count: count, Woken: woken}
	if err := callback(ctx, event); err != nil {
		s.reportError(fmt.Errorf("card detected callback: %w", err))
	}
}

// arm enters LPCD, writing the EEPROM configuration first when prepare is
// set. Transient failures are retried.
func (s *Session) arm(ctx context.Context, prepare bool) error {
	device := s.GetDevice()
	err := pn5180.RetryWithConfig(ctx, s.config.ArmRetry, func() error {
		if prepare {
			if _, err := device.PrepareLPCD(ctx, s.config.LPCD); err != nil {
				return err
			}
		}
		return device.SwitchToLPCD(ctx, s.config.WakeupInterval)
	})
	if err != nil {
		return err
	}
	s.arms.Add(1)
	s.setState(StateArmed)
	return nil
}

// recover resets the chip, or lets the recoverer do it, and re-arms. It
// makes up to SleepRecovery.MaxRecoveryAttempts attempts, pausing
// RecoveryBackoff between them, and stops early on a fatal error.
func (s *Session) recover(ctx context.Context) error {
	s.setState(StateRecovering)
	s.recoveries.Add(1)

	attempts := max(s.config.SleepRecovery.MaxRecoveryAttempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if sleepErr := s.sleep(ctx, s.config.SleepRecovery.RecoveryBackoff); sleepErr != nil {
				return sleepErr
			}
		}
		if err = s.recoverOnce(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if pn5180.IsFatal(err) {
			return err
		}
		pn5180.Debugf("lpcd session: recovery attempt %d/%d failed: %v", attempt, attempts, err)
	}
	return fmt.Errorf("recovery failed after %d attempts: %w", attempts, err)
}

func (s *Session) recoverOnce(ctx context.Context) error {
	s.stateMutex.RLock()
	recoverer := s.recoverer
	s.stateMutex.RUnlock()

	if recoverer != nil {
		if err := recoverer.AttemptRecovery(ctx); err != nil {
			return fmt.Errorf("device recovery failed: %w", err)
		}
		s.stateMutex.Lock()
		s.device = recoverer.GetDevice()
		s.stateMutex.Unlock()
	} else if err := s.GetDevice().Reset(ctx); err != nil {
		return fmt.Errorf("device reset failed: %w", err)
	}

	return s.arm(ctx, true)
}

func (s *Session) waitForWake(ctx context.Context) (bool, error) {
	s.stateMutex.RLock()
	wake := s.wake
	s.stateMutex.RUnlock()

	if wake != nil {
		woken, err := wake.WaitForWake(ctx, s.config.PollInterval)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("wake source: %w", err)
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return woken, nil
	}
	return false, s.sleep(ctx, s.config.PollInterval)
}

func (*Session) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer safeTimerStop(timer)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Session) reportError(err error) {
	s.errs.Add(1)
	s.stateMutex.RLock()
	callback := s.onError
	s.stateMutex.RUnlock()

	pn5180.Debugf("lpcd session: %v", err)
	if callback != nil {
		callback(err)
	}
}

func (s *Session) setState(state SessionState) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = state
}
