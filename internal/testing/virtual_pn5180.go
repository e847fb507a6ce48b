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

// Package testing provides a PN5180 simulator for driver tests.
//
// VirtualPN5180 models the host interface of the chip: the BUSY/NSS
// handshake, the register file, the EEPROM, IRQ_STATUS bookkeeping, the RF
// field, LPCD and Mifare authentication against a VirtualCard. It records
// every line operation so tests can check the handshake order, and offers
// fault injection for stuck lines and missing IRQs.
package testing

import (
	"encoding/binary"
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/ZaparooProject/go-pn5180/internal/syncutil"
)

// Host interface command codes (PN5180 datasheet, section 11.4).
const (
	cmdWriteRegister        = 0x00
	cmdWriteRegisterOrMask  = 0x01
	cmdWriteRegisterAndMask = 0x02
	cmdReadRegister         = 0x04
	cmdWriteEEPROM          = 0x06
	cmdReadEEPROM           = 0x07
	cmdSendData             = 0x09
	cmdReadData             = 0x0A
	cmdSwitchMode           = 0x0B
	cmdMifareAuthenticate   = 0x0C
	cmdLoadRFConfig         = 0x11
	cmdRFOn                 = 0x16
	cmdRFOff                = 0x17
)

// Registers and bits the simulator gives meaning to.
const (
	regSystemConfig = 0x00
	regIRQEnable    = 0x01
	regIRQStatus    = 0x02
	regIRQClear     = 0x03
	regRFStatus     = 0x1D
	registerCount   = 0x40

	irqRx           uint32 = 1 << 0
	irqTx           uint32 = 1 << 1
	irqIdle         uint32 = 1 << 2
	irqTxRFOff      uint32 = 1 << 8
	irqTxRFOn       uint32 = 1 << 9
	irqGeneralError uint32 = 1 << 17
	irqLPCD         uint32 = 1 << 19

	systemConfigCommandMask = 0x07
	systemConfigTransceive  = 0x03

	transceiveStateShift = 24
	transceiveStateMask  = uint32(0x07) << transceiveStateShift
	stateIdle            = 0
	stateWaitTransmit    = 1
	stateWaitReceive     = 3

	eepromSize = 255
	modeLPCD   = 0x01

	authOK      = 0x00
	authFailed  = 0x01
	authTimeout = 0x02
)

// Errors returned by the simulated bus.
var (
	ErrClosed      = errors.New("simulator closed")
	ErrInjectedTx  = errors.New("injected tx failure")
	ErrNSSNotLow   = errors.New("tx with nss deasserted")
	ErrInReset     = errors.New("chip held in reset")
	errNoCommand   = errors.New("empty command frame")
	errUnknownCode = errors.New("unknown command code")
)

// LineOpKind identifies a recorded line operation.
type LineOpKind string

// Line operation kinds.
const (
	OpNSS  LineOpKind = "NSS"
	OpBusy LineOpKind = "BUSY"
	OpTx   LineOpKind = "TX"
	OpRST  LineOpKind = "RST"
)

// LineOp is one entry of the handshake trace. Consecutive BUSY samples
// reading the same level are folded into a single entry.
type LineOp struct {
	Kind  LineOpKind
	Data  []byte
	Level gpio.Level
}

func (o LineOp) String() string {
	if o.Kind == OpTx {
		return fmt.Sprintf("TX % X", o.Data)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Level)
}

// FaultConfig selects misbehaviour of the simulated chip.
type FaultConfig struct {
	// BusyStuckHigh keeps BUSY high forever.
	BusyStuckHigh bool
	// BusyStuckLow keeps BUSY low forever, so commands never complete.
	BusyStuckLow bool
	// SuppressRFIRQ stops RF_ON/RF_OFF from raising TX_RFON/TX_RFOFF.
	SuppressRFIRQ bool
	// BootFailures is the number of resets that will not raise IDLE.
	BootFailures int
	// StuckTransceiveState, when set, is reported instead of WaitTransmit
	// after SYSTEM_CONFIG selects Transceive.
	StuckTransceiveState *byte
	// ReadOnlyEEPROM lists EEPROM cells that ignore writes.
	ReadOnlyEEPROM map[byte]bool
}

// RFConfig is a LOAD_RF_CONFIG request seen by the simulator.
type RFConfig struct {
	Tx byte
	Rx byte
}

// VirtualPN5180 simulates a PN5180 behind its SPI host interface.
//
// The chip raises BUSY once a frame has been clocked in while NSS is low and
// drops it after NSS is released. A frame that expects an answer leaves the
// answer pending; the next Tx with NSS low clocks it out.
type VirtualPN5180 struct {
	card          *VirtualCard
	jitter        *jitter
	pending       []byte
	rxData        []byte
	lastSent      []byte
	trace         []LineOp
	commands      [][]byte
	rfConfigs     []RFConfig
	faults        FaultConfig
	eeprom        [eepromSize]byte
	regs          [registerCount]uint32
	busyCountdown int
	txCount       int
	violations    int
	resets        int
	mu            syncutil.Mutex
	lpcdWakeup    uint16
	nss           gpio.Level
	rst           gpio.Level
	busy          gpio.Level
	busyTarget    gpio.Level
	rfOn          bool
	lpcdArmed     bool
	hasPending    bool
	closed        bool
}

// NewVirtualPN5180 creates a simulator in the state the chip has after
// power-up: idle, IDLE IRQ raised, RF field off.
func NewVirtualPN5180() *VirtualPN5180 {
	v := &VirtualPN5180{
		nss:        gpio.High,
		rst:        gpio.High,
		busy:       gpio.Low,
		busyTarget: gpio.Low,
	}
	v.initEEPROM()
	v.regs[regIRQStatus] = irqIdle
	return v
}

func (v *VirtualPN5180) initEEPROM() {
	for i := range 16 {
		v.eeprom[i] = byte(0xA0 + i)
	}
	copy(v.eeprom[0x10:], []byte{0x05, 0x03, 0x01, 0x04, 0x00, 0x91})
	v.eeprom[0x36] = 0x00
	v.eeprom[0x37] = 0x00
}

// SetFaults replaces the fault configuration.
func (v *VirtualPN5180) SetFaults(faults FaultConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.faults = faults
}

// SetJitter delays BUSY transitions by a random number of samples.
func (v *VirtualPN5180) SetJitter(config JitterConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.jitter = newJitter(config)
}

// PlaceCard puts a card in the field. If LPCD is armed the LPCD IRQ is
// raised and the chip leaves LPCD mode.
func (v *VirtualPN5180) PlaceCard(card *VirtualCard) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.card = card
	if card != nil && v.lpcdArmed {
		v.lpcdArmed = false
		v.regs[regIRQStatus] |= irqLPCD
	}
}

// RemoveCard takes the card out of the field.
func (v *VirtualPN5180) RemoveCard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.card = nil
}

// RaiseIRQ sets IRQ_STATUS bits as if the chip had raised them.
func (v *VirtualPN5180) RaiseIRQ(mask uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.regs[regIRQStatus] |= mask
}

// Tx implements the SPI transfer. With NSS low it either accepts a command
// frame or clocks out the pending answer.
func (v *VirtualPN5180) Tx(w, r []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	v.txCount++
	v.record(LineOp{Kind: OpTx, Data: append([]byte(nil), w...)})

	if v.jitter.txFails(v.txCount) {
		return ErrInjectedTx
	}
	if v.rst == gpio.Low {
		return ErrInReset
	}
	if v.nss != gpio.Low {
		return ErrNSSNotLow
	}

	if v.hasPending {
		n := copy(r, v.pending)
		for i := n; i < len(r); i++ {
			r[i] = 0x00
		}
		v.pending = nil
		v.hasPending = false
	} else {
		for i := range r {
			r[i] = 0xFF
		}
		v.commands = append(v.commands, append([]byte(nil), w...))
		if err := v.execute(w); err != nil {
			v.regs[regIRQStatus] |= irqGeneralError
		}
	}

	v.setBusy(gpio.High)
	return nil
}

// SetNSS drives chip select. Asserting it while BUSY is high is a protocol
// violation and is counted.
func (v *VirtualPN5180) SetNSS(level gpio.Level) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if level == gpio.Low && v.busyLevel() == gpio.High {
		v.violations++
	}
	v.nss = level
	v.record(LineOp{Kind: OpNSS, Level: level})
	if level == gpio.High && v.busyTarget == gpio.High {
		v.setBusy(gpio.Low)
	}
	return nil
}

// Busy samples the BUSY line.
func (v *VirtualPN5180) Busy() gpio.Level {
	v.mu.Lock()
	defer v.mu.Unlock()

	level := v.busyLevel()
	if n := len(v.trace); n == 0 || v.trace[n-1].Kind != OpBusy || v.trace[n-1].Level != level {
		v.record(LineOp{Kind: OpBusy, Level: level})
	}
	if v.busyCountdown > 0 {
		v.busyCountdown--
	} else {
		v.busy = v.busyTarget
	}
	return level
}

// SetReset drives RST. A rising edge boots the chip and raises IDLE unless
// a boot failure is injected.
func (v *VirtualPN5180) SetReset(level gpio.Level) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	v.record(LineOp{Kind: OpRST, Level: level})
	prev := v.rst
	v.rst = level
	if level == gpio.Low {
		v.powerDown()
		return nil
	}
	if prev == gpio.Low {
		v.resets++
		if v.faults.BootFailures > 0 {
			v.faults.BootFailures--
			return nil
		}
		v.regs[regIRQStatus] |= irqIdle
	}
	return nil
}

// Close implements the transport Close.
func (v *VirtualPN5180) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *VirtualPN5180) powerDown() {
	v.regs = [registerCount]uint32{}
	v.rfOn = false
	v.lpcdArmed = false
	v.pending = nil
	v.hasPending = false
	v.rxData = nil
	v.busy = gpio.Low
	v.busyTarget = gpio.Low
	v.busyCountdown = 0
}

func (v *VirtualPN5180) busyLevel() gpio.Level {
	switch {
	case v.faults.BusyStuckHigh:
		return gpio.High
	case v.faults.BusyStuckLow:
		return gpio.Low
	case v.busyCountdown == 0:
		return v.busyTarget
	default:
		return v.busy
	}
}

func (v *VirtualPN5180) setBusy(level gpio.Level) {
	v.busy = v.busyLevel()
	v.busyTarget = level
	v.busyCountdown = v.jitter.busyLatency()
}

func (v *VirtualPN5180) record(op LineOp) {
	v.trace = append(v.trace, op)
}

func (v *VirtualPN5180) respond(data []byte) {
	v.pending = data
	v.hasPending = true
}

//nolint:gocyclo,cyclop,revive // one case per command code
func (v *VirtualPN5180) execute(frame []byte) error {
	if len(frame) == 0 {
		return errNoCommand
	}
	args := frame[1:]

	switch frame[0] {
	case cmdWriteRegister, cmdWriteRegisterOrMask, cmdWriteRegisterAndMask:
		if len(args) < 5 || args[0] >= registerCount {
			return fmt.Errorf("bad register write % X", frame)
		}
		v.writeRegister(frame[0], args[0], binary.LittleEndian.Uint32(args[1:5]))
	case cmdReadRegister:
		if len(args) < 1 || args[0] >= registerCount {
			return fmt.Errorf("bad register read % X", frame)
		}
		resp := make([]byte, 4)
		binary.LittleEndian.PutUint32(resp, v.regs[args[0]])
		v.respond(resp)
	case cmdWriteEEPROM:
		if len(args) < 2 {
			return fmt.Errorf("bad eeprom write % X", frame)
		}
		return v.writeEEPROM(int(args[0]), args[1:])
	case cmdReadEEPROM:
		if len(args) < 2 || int(args[0])+int(args[1]) > eepromSize {
			return fmt.Errorf("bad eeprom read % X", frame)
		}
		start := int(args[0])
		v.respond(append([]byte(nil), v.eeprom[start:start+int(args[1])]...))
	case cmdSendData:
		if len(args) < 1 {
			return fmt.Errorf("bad send data % X", frame)
		}
		v.sendData(args[1:])
	case cmdReadData:
		v.respond(append([]byte(nil), v.rxData...))
	case cmdSwitchMode:
		if len(args) >= 3 && args[0] == modeLPCD {
			v.lpcdWakeup = binary.LittleEndian.Uint16(args[1:3])
			v.lpcdArmed = true
			if v.card != nil {
				v.lpcdArmed = false
				v.regs[regIRQStatus] |= irqLPCD
			}
		}
	case cmdMifareAuthenticate:
		if len(args) != 12 {
			return fmt.Errorf("bad authenticate % X", frame)
		}
		v.respond([]byte{v.authenticate(args[0:6], args[6], args[8:12])})
	case cmdLoadRFConfig:
		if len(args) < 2 {
			return fmt.Errorf("bad rf config % X", frame)
		}
		v.rfConfigs = append(v.rfConfigs, RFConfig{Tx: args[0], Rx: args[1]})
	case cmdRFOn:
		v.rfOn = true
		if !v.faults.SuppressRFIRQ {
			v.regs[regIRQStatus] |= irqTxRFOn
		}
	case cmdRFOff:
		v.rfOn = false
		if !v.faults.SuppressRFIRQ {
			v.regs[regIRQStatus] |= irqTxRFOff
		}
	default:
		return fmt.Errorf("%w: 0x%02X", errUnknownCode, frame[0])
	}
	return nil
}

func (v *VirtualPN5180) writeRegister(op, addr byte, value uint32) {
	next := value
	switch op {
	case cmdWriteRegisterOrMask:
		next = v.regs[addr] | value
	case cmdWriteRegisterAndMask:
		next = v.regs[addr] & value
	}

	switch addr {
	case regIRQClear:
		v.regs[regIRQStatus] &^= next
	case regIRQStatus, regRFStatus:
		// read-only
	case regSystemConfig:
		v.regs[addr] = next
		v.updateTransceiveState()
	default:
		v.regs[addr] = next
	}
}

func (v *VirtualPN5180) updateTransceiveState() {
	state := uint32(stateIdle)
	if v.regs[regSystemConfig]&systemConfigCommandMask == systemConfigTransceive {
		state = stateWaitTransmit
		if v.faults.StuckTransceiveState != nil {
			state = uint32(*v.faults.StuckTransceiveState)
		}
	}
	v.setTransceiveState(state)
}

func (v *VirtualPN5180) setTransceiveState(state uint32) {
	v.regs[regRFStatus] = v.regs[regRFStatus]&^transceiveStateMask | (state<<transceiveStateShift)&transceiveStateMask
}

func (v *VirtualPN5180) writeEEPROM(addr int, data []byte) error {
	if addr+len(data) > eepromSize {
		return fmt.Errorf("eeprom write 0x%02X+%d past end", addr, len(data))
	}
	for i, b := range data {
		cell := byte(addr + i)
		if v.faults.ReadOnlyEEPROM[cell] {
			continue
		}
		v.eeprom[cell] = b
	}
	return nil
}

func (v *VirtualPN5180) sendData(payload []byte) {
	v.lastSent = append([]byte(nil), payload...)
	v.regs[regIRQStatus] |= irqTx
	v.rxData = nil
	if v.card == nil || !v.rfOn {
		v.setTransceiveState(stateWaitReceive)
		return
	}
	if resp, ok := v.card.respond(payload); ok {
		v.rxData = append([]byte(nil), resp...)
		v.regs[regIRQStatus] |= irqRx
		v.setTransceiveState(stateIdle)
		return
	}
	v.setTransceiveState(stateWaitReceive)
}

func (v *VirtualPN5180) authenticate(key []byte, keyType byte, uid []byte) byte {
	if v.card == nil || !v.rfOn {
		return authTimeout
	}
	if v.card.authenticate(key, keyType, uid) {
		return authOK
	}
	return authFailed
}

// Trace returns a copy of the recorded line operations.
func (v *VirtualPN5180) Trace() []LineOp {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]LineOp, len(v.trace))
	copy(out, v.trace)
	return out
}

// ClearTrace forgets recorded line operations and commands.
func (v *VirtualPN5180) ClearTrace() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.trace = nil
	v.commands = nil
}

// Commands returns the command frames accepted so far.
func (v *VirtualPN5180) Commands() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.commands))
	for i, c := range v.commands {
		out[i] = append([]byte(nil), c...)
	}
	return out
}

// TxCount returns the number of SPI transfers, including failed ones.
func (v *VirtualPN5180) TxCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.txCount
}

// Violations returns how often NSS was asserted while BUSY was high.
func (v *VirtualPN5180) Violations() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.violations
}

// Resets returns the number of completed reset pulses.
func (v *VirtualPN5180) Resets() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resets
}

// Register returns the raw value of a register.
func (v *VirtualPN5180) Register(addr byte) uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs[addr%registerCount]
}

// SetRegister sets a register without side effects.
func (v *VirtualPN5180) SetRegister(addr byte, value uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.regs[addr%registerCount] = value
}

// EEPROM returns a copy of length bytes at addr.
func (v *VirtualPN5180) EEPROM(addr, length int) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.eeprom[addr:addr+length]...)
}

// SetEEPROM writes EEPROM cells directly, ignoring read-only faults.
func (v *VirtualPN5180) SetEEPROM(addr int, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	copy(v.eeprom[addr:], data)
}

// SetReceivedData sets what READ_DATA returns.
func (v *VirtualPN5180) SetReceivedData(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rxData = append([]byte(nil), data...)
	v.regs[regIRQStatus] |= irqRx
}

// LastSent returns the payload of the last SEND_DATA.
func (v *VirtualPN5180) LastSent() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.lastSent...)
}

// RFConfigs returns the LOAD_RF_CONFIG requests seen so far.
func (v *VirtualPN5180) RFConfigs() []RFConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]RFConfig(nil), v.rfConfigs...)
}

// RFOn reports the simulated field state.
func (v *VirtualPN5180) RFOn() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rfOn
}

// LPCDArmed reports whether the chip is waiting in LPCD mode, and with
// which wake-up interval.
func (v *VirtualPN5180) LPCDArmed() (armed bool, wakeupMs uint16) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lpcdArmed, v.lpcdWakeup
}

// IRQEnable returns the IRQ_ENABLE register.
func (v *VirtualPN5180) IRQEnable() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs[regIRQEnable]
}
