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

package testing

import (
	"bytes"
	"encoding/hex"
)

// Fixture values shared by tests.
var (
	// TestMifareUID is the UID of the default virtual card.
	TestMifareUID = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	// DefaultMifareKey is the transport key of a blank Mifare Classic card.
	DefaultMifareKey = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// Mifare key selectors, mirrored here so the simulator does not depend on
// the driver package.
const (
	keyTypeA = 0x60
	keyTypeB = 0x61
)

// VirtualCard is a card placed in the simulated RF field. It answers
// MIFARE_AUTHENTICATE with its keys and SEND_DATA with canned responses.
type VirtualCard struct {
	responses map[string][]byte
	UID       []byte
	KeyA      []byte
	KeyB      []byte
}

// NewVirtualMifareCard creates a Mifare Classic card with the default key
// on both sides.
func NewVirtualMifareCard(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestMifareUID
	}
	return &VirtualCard{
		UID:       append([]byte(nil), uid...),
		KeyA:      append([]byte(nil), DefaultMifareKey...),
		KeyB:      append([]byte(nil), DefaultMifareKey...),
		responses: make(map[string][]byte),
	}
}

// UIDString returns the UID as a hex string
func (c *VirtualCard) UIDString() string {
	return hex.EncodeToString(c.UID)
}

// SetResponse makes the card answer request with response.
func (c *VirtualCard) SetResponse(request, response []byte) {
	c.responses[hex.EncodeToString(request)] = append([]byte(nil), response...)
}

// respond returns the canned answer to request, if any.
func (c *VirtualCard) respond(request []byte) ([]byte, bool) {
	resp, ok := c.responses[hex.EncodeToString(request)]
	return resp, ok
}

// authenticate reports whether key opens the card for keyType and uid.
func (c *VirtualCard) authenticate(key []byte, keyType byte, uid []byte) bool {
	if !bytes.Equal(uid, c.UID) {
		return false
	}
	switch keyType {
	case keyTypeA:
		return bytes.Equal(key, c.KeyA)
	case keyTypeB:
		return bytes.Equal(key, c.KeyB)
	default:
		return false
	}
}
