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
	"errors"
	"fmt"
)

// Validation errors. These are returned before any bus activity.
var (
	ErrInvalidLength     = errors.New("invalid length")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrInvalidKeyType    = errors.New("invalid key type")
	ErrInvalidParameter  = errors.New("invalid parameter")
)

// ValidateEEPROMRange checks that a read of length bytes starting at addr
// stays within the EEPROM. The last readable address is 254 and a read
// must not reach past it.
func ValidateEEPROMRange(addr, length int) error {
	if addr < 0 || length < 0 {
		return fmt.Errorf("%w: addr=%d len=%d", ErrAddressOutOfRange, addr, length)
	}
	if addr > MaxEEPROMAddress || addr+length > MaxEEPROMAddress {
		return fmt.Errorf("%w: addr=%d len=%d exceeds 0x%02X", ErrAddressOutOfRange, addr, length, MaxEEPROMAddress)
	}
	return nil
}

// ValidateSendLength checks a SEND_DATA payload.
func ValidateSendLength(length int, validBits byte) error {
	if length > MaxSendDataLength {
		return fmt.Errorf("%w: send data %d > %d", ErrInvalidLength, length, MaxSendDataLength)
	}
	if validBits > MaxValidBits {
		return fmt.Errorf("%w: valid bits %d > %d", ErrInvalidParameter, validBits, MaxValidBits)
	}
	return nil
}

// ValidateReadLength checks a READ_DATA length.
func ValidateReadLength(length int) error {
	if length < 0 || length > MaxReadDataLength {
		return fmt.Errorf("%w: read data %d outside 0..%d", ErrInvalidLength, length, MaxReadDataLength)
	}
	return nil
}

// ValidateKeyType accepts only the Key-A and Key-B selectors.
func ValidateKeyType(keyType byte) error {
	if keyType != KeyTypeA && keyType != KeyTypeB {
		return fmt.Errorf("%w: 0x%02X", ErrInvalidKeyType, keyType)
	}
	return nil
}

// ValidateRFConfig checks the LOAD_RF_CONFIG selectors.
func ValidateRFConfig(tx, rx byte) error {
	if tx != RFConfigUnchanged && tx > MaxTxRFConfig {
		return fmt.Errorf("%w: tx rf config 0x%02X", ErrInvalidParameter, tx)
	}
	if rx != RFConfigUnchanged && (rx < MinRxRFConfig || rx > MaxRxRFConfig) {
		return fmt.Errorf("%w: rx rf config 0x%02X", ErrInvalidParameter, rx)
	}
	return nil
}
