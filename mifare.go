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
	"errors"

	"github.com/ZaparooProject/go-pn5180/internal/frame"
)

// Key selectors for MifareAuthenticate.
const (
	MifareKeyA byte = frame.KeyTypeA
	MifareKeyB byte = frame.KeyTypeB
)

// MifareAuthenticate outcome codes. Negative codes come from the driver,
// non-negative ones are the status byte reported by the chip.
const (
	AuthOK               int16 = 0
	AuthFailed           int16 = 1
	AuthTimeout          int16 = 2
	AuthInvalidParameter int16 = -2
	AuthTransportError   int16 = -3
)

// MifareAuthenticate authenticates blockNo of an activated Mifare Classic
// card with a 6 byte key. keyType is MifareKeyA or MifareKeyB and uid the
// card's 4 byte UID.
//
// The code separates the three outcome classes: AuthInvalidParameter with
// no bus traffic, AuthTransportError when the exchange failed, or the
// chip's status (AuthOK, AuthFailed, AuthTimeout) with a nil error.
func (d *Device) MifareAuthenticate(
	ctx context.Context, blockNo byte, key []byte, keyType byte, uid []byte,
) (int16, error) {
	cmd, err := frame.MifareAuthenticate(key, keyType, blockNo, uid)
	if err != nil {
		return AuthInvalidParameter, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	resp := [1]byte{byte(AuthTimeout)}
	if err := d.transceive(ctx, "mifare authenticate", cmd, resp[:]); err != nil {
		return AuthTransportError, err
	}
	d.logf("mifare authenticate block %d key 0x%02X: status %d", blockNo, keyType, resp[0])
	return int16(resp[0]), nil
}

// IsAuthParameterError reports whether err came from rejecting the
// MifareAuthenticate arguments.
func IsAuthParameterError(err error) bool {
	return errors.Is(err, ErrInvalidKeyType) || errors.Is(err, ErrInvalidParameter)
}
