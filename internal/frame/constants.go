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

// Package frame encodes PN5180 host interface instructions.
//
// An instruction is a single SPI frame: one command byte followed by its
// parameters. Multi-byte register values travel least significant byte
// first. Responses carry no header, so there is nothing to decode here
// beyond the raw payload.
package frame

// Host interface command codes.
const (
	CmdWriteRegister        = 0x00
	CmdWriteRegisterOrMask  = 0x01
	CmdWriteRegisterAndMask = 0x02
	CmdReadRegister         = 0x04
	CmdWriteEEPROM          = 0x06
	CmdReadEEPROM           = 0x07
	CmdSendData             = 0x09
	CmdReadData             = 0x0A
	CmdSwitchMode           = 0x0B
	CmdMifareAuthenticate   = 0x0C
	CmdLoadRFConfig         = 0x11
	CmdRFOn                 = 0x16
	CmdRFOff                = 0x17
)

// Switch mode selectors.
const (
	ModeStandby  = 0x00
	ModeLPCD     = 0x01
	ModeAutocoll = 0x02
)

// Mifare Classic key selectors accepted by MIFARE_AUTHENTICATE.
const (
	KeyTypeA = 0x60
	KeyTypeB = 0x61
)

// Size limits imposed by the chip.
const (
	RegisterValueLength = 4
	MaxEEPROMAddress    = 254
	MaxEEPROMWrite      = MaxEEPROMAddress + 1
	MaxSendDataLength   = 260
	MaxReadDataLength   = 508
	MaxValidBits        = 7
	MaxWakeupCounter    = 0x0A82
	MifareKeyLength     = 6
	MifareUIDLength     = 4
	AuthenticateLength  = 13
)

// RF configuration bounds for LOAD_RF_CONFIG. 0xFF leaves the current
// configuration untouched.
const (
	RFConfigUnchanged = 0xFF
	MaxTxRFConfig     = 0x1C
	MinRxRFConfig     = 0x80
	MaxRxRFConfig     = 0x9C
)
