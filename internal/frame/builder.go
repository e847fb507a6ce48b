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

package frame

import (
	"encoding/binary"
	"fmt"
)

// WriteRegister encodes WRITE_REGISTER and its OR/AND mask variants. op
// must be one of CmdWriteRegister, CmdWriteRegisterOrMask or
// CmdWriteRegisterAndMask.
func WriteRegister(op, addr byte, value uint32) []byte {
	buf := make([]byte, 2+RegisterValueLength)
	buf[0] = op
	buf[1] = addr
	binary.LittleEndian.PutUint32(buf[2:], value)
	return buf
}

// ReadRegister encodes READ_REGISTER. The response is 4 bytes.
func ReadRegister(addr byte) []byte {
	return []byte{CmdReadRegister, addr}
}

// RegisterValue decodes a READ_REGISTER response.
func RegisterValue(resp []byte) uint32 {
	return binary.LittleEndian.Uint32(resp)
}

// WriteEEPROM encodes WRITE_EEPROM. Only the physical payload size is
// checked; the chip raises an exception for writes past the end.
func WriteEEPROM(addr byte, data []byte) ([]byte, error) {
	if len(data) == 0 || len(data) > MaxEEPROMWrite {
		return nil, fmt.Errorf("%w: eeprom write of %d bytes", ErrInvalidLength, len(data))
	}
	buf := make([]byte, 0, 2+len(data))
	buf = append(buf, CmdWriteEEPROM, addr)
	return append(buf, data...), nil
}

// ReadEEPROM encodes READ_EEPROM after checking the address range.
func ReadEEPROM(addr, length int) ([]byte, error) {
	if err := ValidateEEPROMRange(addr, length); err != nil {
		return nil, err
	}
	return []byte{CmdReadEEPROM, byte(addr), byte(length)}, nil
}

// SendData encodes SEND_DATA. validBits is the number of bits of the last
// byte to transmit, 0 meaning all of them.
func SendData(data []byte, validBits byte) ([]byte, error) {
	if err := ValidateSendLength(len(data), validBits); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 2+len(data))
	buf = append(buf, CmdSendData, validBits)
	return append(buf, data...), nil
}

// ReadData encodes READ_DATA. The host clocks out as many bytes as it
// wants in the response frame.
func ReadData() []byte {
	return []byte{CmdReadData, 0x00}
}

// SwitchToLPCD encodes SWITCH_MODE for low power card detection with the
// wake-up counter in milliseconds, low byte first.
func SwitchToLPCD(wakeupMs uint16) ([]byte, error) {
	if wakeupMs > MaxWakeupCounter {
		return nil, fmt.Errorf("%w: wake-up counter 0x%04X > 0x%04X", ErrInvalidParameter, wakeupMs, MaxWakeupCounter)
	}
	buf := []byte{CmdSwitchMode, ModeLPCD, 0, 0}
	binary.LittleEndian.PutUint16(buf[2:], wakeupMs)
	return buf, nil
}

// MifareAuthenticate encodes the 13 byte MIFARE_AUTHENTICATE instruction:
// command, key, key type, block number, uid.
func MifareAuthenticate(key []byte, keyType, blockNo byte, uid []byte) ([]byte, error) {
	if err := ValidateKeyType(keyType); err != nil {
		return nil, err
	}
	if len(key) != MifareKeyLength {
		return nil, fmt.Errorf("%w: key length %d", ErrInvalidParameter, len(key))
	}
	if len(uid) != MifareUIDLength {
		return nil, fmt.Errorf("%w: uid length %d", ErrInvalidParameter, len(uid))
	}
	buf := make([]byte, AuthenticateLength)
	buf[0] = CmdMifareAuthenticate
	copy(buf[1:7], key)
	buf[7] = keyType
	buf[8] = blockNo
	copy(buf[9:], uid)
	return buf, nil
}

// LoadRFConfig encodes LOAD_RF_CONFIG.
func LoadRFConfig(tx, rx byte) ([]byte, error) {
	if err := ValidateRFConfig(tx, rx); err != nil {
		return nil, err
	}
	return []byte{CmdLoadRFConfig, tx, rx}, nil
}

// RFOn encodes RF_ON. flags selects collision avoidance and active
// communication behaviour; 0 is the plain field switch.
func RFOn(flags byte) []byte {
	return []byte{CmdRFOn, flags}
}

// RFOff encodes RF_OFF.
func RFOff() []byte {
	return []byte{CmdRFOff, 0x00}
}
