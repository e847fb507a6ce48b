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
	"fmt"
	"strings"
)

// Register addresses.
const (
	RegSystemConfig      byte = 0x00
	RegIRQEnable         byte = 0x01
	RegIRQStatus         byte = 0x02
	RegIRQClear          byte = 0x03
	RegTransceiveControl byte = 0x04
	RegTimer1Reload      byte = 0x0C
	RegTimer1Config      byte = 0x0F
	RegRxWaitConfig      byte = 0x11
	RegCRCRxConfig       byte = 0x12
	RegRxStatus          byte = 0x13
	RegTxWaitConfig      byte = 0x17
	RegTxConfig          byte = 0x18
	RegCRCTxConfig       byte = 0x19
	RegRFStatus          byte = 0x1D
	RegSystemStatus      byte = 0x24
	RegTempControl       byte = 0x25
	RegAGCRefConfig      byte = 0x26
)

// EEPROM addresses.
const (
	EEDieIdentifier   byte = 0x00
	EEProductVersion  byte = 0x10
	EEFirmwareVersion byte = 0x12
	EEEEPROMVersion   byte = 0x14
	EEIRQPinConfig    byte = 0x1A

	EELPCDReferenceValue         byte = 0x34
	EELPCDFieldOnTime            byte = 0x36
	EELPCDThreshold              byte = 0x37
	EELPCDRefValGPOControl       byte = 0x38
	EELPCDGPOToggleBeforeFieldOn byte = 0x39
	EELPCDGPOToggleAfterFieldOn  byte = 0x3A

	EEDPCXI byte = 0x5C
)

// SYSTEM_CONFIG command field.
const (
	systemConfigCommandMask uint32 = 0x00000007
	systemConfigIdle        uint32 = 0x00000000
	systemConfigTransceive  uint32 = 0x00000003
)

// IRQStatus is the sticky event bitmask of the IRQ_STATUS register. Bits are
// cleared by writing the same mask to IRQ_CLEAR.
type IRQStatus uint32

// IRQ status bits.
const (
	IRQRx            IRQStatus = 1 << 0  // end of RF reception
	IRQTx            IRQStatus = 1 << 1  // end of RF transmission
	IRQIdle          IRQStatus = 1 << 2  // chip entered idle
	IRQRFOffDetected IRQStatus = 1 << 6  // external field switched off
	IRQRFOnDetected  IRQStatus = 1 << 7  // external field switched on
	IRQTxRFOff       IRQStatus = 1 << 8  // own field switched off
	IRQTxRFOn        IRQStatus = 1 << 9  // own field switched on
	IRQRxSOFDetected IRQStatus = 1 << 14 // start of frame seen
	IRQGeneralError  IRQStatus = 1 << 17
	IRQLPCD          IRQStatus = 1 << 19 // card detected in LPCD mode

	// IRQAll selects every bit, for clearing.
	IRQAll IRQStatus = 0xFFFFFFFF
)

var irqNames = []struct {
	name string
	bit  IRQStatus
}{
	{"RX", IRQRx},
	{"TX", IRQTx},
	{"IDLE", IRQIdle},
	{"RFOFF_DET", IRQRFOffDetected},
	{"RFON_DET", IRQRFOnDetected},
	{"TX_RFOFF", IRQTxRFOff},
	{"TX_RFON", IRQTxRFOn},
	{"RX_SOF_DET", IRQRxSOFDetected},
	{"GENERAL_ERROR", IRQGeneralError},
	{"LPCD", IRQLPCD},
}

// Has reports whether any bit of mask is set.
func (s IRQStatus) Has(mask IRQStatus) bool {
	return s&mask != 0
}

// HasError reports the general error bit. The driver does not decode the
// cause; that is left to the caller.
func (s IRQStatus) HasError() bool {
	return s.Has(IRQGeneralError)
}

// String lists the names of the set bits, with unnamed bits in hex.
func (s IRQStatus) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	rest := s
	for _, n := range irqNames {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%08X", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// TransceiveState is the TRANSCEIVE_STATE field of RF_STATUS.
type TransceiveState byte

// Transceive states as reported by the chip.
const (
	TransceiveIdle TransceiveState = iota
	TransceiveWaitTransmit
	TransceiveTransmitting
	TransceiveWaitReceive
	TransceiveWaitForData
	TransceiveReceiving
	TransceiveLoopBack
	TransceiveReserved
)

const (
	rfStatusTransceiveShift = 24
	rfStatusTransceiveMask  = 0x07
)

func transceiveStateFromRFStatus(rfStatus uint32) TransceiveState {
	return TransceiveState((rfStatus >> rfStatusTransceiveShift) & rfStatusTransceiveMask)
}

func (s TransceiveState) String() string {
	switch s {
	case TransceiveIdle:
		return "Idle"
	case TransceiveWaitTransmit:
		return "WaitTransmit"
	case TransceiveTransmitting:
		return "Transmitting"
	case TransceiveWaitReceive:
		return "WaitReceive"
	case TransceiveWaitForData:
		return "WaitForData"
	case TransceiveReceiving:
		return "Receiving"
	case TransceiveLoopBack:
		return "LoopBack"
	case TransceiveReserved:
		return "Reserved"
	default:
		return fmt.Sprintf("TransceiveState(%d)", byte(s))
	}
}
