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
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// transceive runs one framed exchange: the command phase always, the
// receive phase only when recv is non-empty.
//
//	wait BUSY low, NSS low, Tx(send), wait BUSY high, NSS high, wait BUSY low
//	[NSS low, Tx(0xFF...), wait BUSY high, NSS high, wait BUSY low]
//
// Any wait that exceeds the command timeout drives NSS high and fails the
// exchange. The caller must hold d.mu.
func (d *Device) transceive(ctx context.Context, op string, send, recv []byte) error {
	if d.closed {
		return ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tb := NewTraceBuffer(string(d.transport.Type()), transportPort(d.transport), d.traceDepth, d.clock)

	if err := d.waitBusy(gpio.Low, tb); err != nil {
		return d.abort(op, "wait ready", err, tb)
	}
	if err := d.setNSS(gpio.Low, tb); err != nil {
		return d.abort(op, "assert nss", err, tb)
	}
	d.clock.Sleep(pollInterval)

	tb.RecordTX(send, op)
	if err := d.transport.Tx(send, nil); err != nil {
		return d.abort(op, "send", NewTransportWriteError(op, "", err), tb)
	}
	if err := d.endPhase(tb); err != nil {
		return d.abort(op, "send", err, tb)
	}

	if len(recv) == 0 {
		return nil
	}

	if err := d.setNSS(gpio.Low, tb); err != nil {
		return d.abort(op, "assert nss", err, tb)
	}
	for i := range recv {
		recv[i] = 0xFF
	}
	if err := d.transport.Tx(recv, recv); err != nil {
		return d.abort(op, "receive", NewTransportReadError(op, "", err), tb)
	}
	tb.RecordRX(recv, "")
	if err := d.endPhase(tb); err != nil {
		return d.abort(op, "receive", err, tb)
	}
	return nil
}

// endPhase is steps 4 to 6 of the handshake, shared by both phases.
func (d *Device) endPhase(tb *TraceBuffer) error {
	if err := d.waitBusy(gpio.High, tb); err != nil {
		return err
	}
	if err := d.setNSS(gpio.High, tb); err != nil {
		return err
	}
	d.clock.Sleep(pollInterval)
	return d.waitBusy(gpio.Low, tb)
}

func (d *Device) setNSS(level gpio.Level, tb *TraceBuffer) error {
	tb.RecordLine(TraceNSS, level.String())
	if err := d.transport.SetNSS(level); err != nil {
		return NewTransportWriteError("nss", "", err)
	}
	return nil
}

// waitBusy polls BUSY every millisecond until it reads want or the command
// timeout elapses.
func (d *Device) waitBusy(want gpio.Level, tb *TraceBuffer) error {
	start := d.clock.Now()
	for d.transport.Busy() != want {
		if d.clock.Now().Sub(start) > d.timeout {
			tb.RecordTimeout(fmt.Sprintf("busy never went %s", want))
			return NewTimeoutError("wait busy "+want.String(), "")
		}
		d.clock.Sleep(pollInterval)
	}
	tb.RecordLine(TraceBusy, want.String())
	return nil
}

// abort leaves NSS deasserted and attaches the trace to err.
func (d *Device) abort(op, stage string, err error, tb *TraceBuffer) error {
	if nssErr := d.transport.SetNSS(gpio.High); nssErr != nil {
		d.logf("%s: failed to release nss after %s error: %v", op, stage, nssErr)
	}
	tb.RecordLine(TraceNSS, "High (abort)")
	d.logf("%s: %s failed: %v", op, stage, err)
	return tb.WrapError(fmt.Errorf("%s: %s: %w", op, stage, err))
}
