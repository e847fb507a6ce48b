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
	"testing"
)

// These fuzz tests check that the encoders never panic and that every
// frame they accept honours the chip limits.
//
// Run with: go test -fuzz=FuzzReadEEPROM -fuzztime=30s ./internal/frame/

func FuzzReadEEPROM(f *testing.F) {
	f.Add(0, 1)
	f.Add(0x10, 2)
	f.Add(253, 1)
	f.Add(254, 0)
	f.Add(255, 0)
	f.Add(-1, 4)
	f.Add(100, -5)

	f.Fuzz(func(t *testing.T, addr, length int) {
		buf, err := ReadEEPROM(addr, length)
		if err != nil {
			return
		}
		if addr < 0 || length < 0 || addr+length > MaxEEPROMAddress {
			t.Fatalf("accepted out of range read addr=%d len=%d", addr, length)
		}
		if len(buf) != 3 || buf[0] != CmdReadEEPROM {
			t.Fatalf("malformed frame % X", buf)
		}
	})
}

func FuzzSendData(f *testing.F) {
	f.Add([]byte{0x26}, byte(7))
	f.Add([]byte{}, byte(0))
	f.Add(make([]byte, MaxSendDataLength), byte(0))
	f.Add(make([]byte, MaxSendDataLength+1), byte(0))
	f.Add([]byte{0x93, 0x20}, byte(8))

	f.Fuzz(func(t *testing.T, data []byte, validBits byte) {
		buf, err := SendData(data, validBits)
		if err != nil {
			return
		}
		if len(data) > MaxSendDataLength || validBits > MaxValidBits {
			t.Fatalf("accepted len=%d bits=%d", len(data), validBits)
		}
		if len(buf) != len(data)+2 {
			t.Fatalf("frame length %d for %d bytes", len(buf), len(data))
		}
	})
}

func FuzzMifareAuthenticate(f *testing.F) {
	key := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	uid := []byte{0x01, 0x02, 0x03, 0x04}
	f.Add(key, byte(KeyTypeA), byte(4), uid)
	f.Add(key, byte(KeyTypeB), byte(0), uid)
	f.Add(key, byte(0x00), byte(4), uid)
	f.Add([]byte{0x01}, byte(KeyTypeA), byte(4), uid)
	f.Add(key, byte(KeyTypeA), byte(4), []byte{})

	f.Fuzz(func(t *testing.T, key []byte, keyType, blockNo byte, uid []byte) {
		buf, err := MifareAuthenticate(key, keyType, blockNo, uid)
		if err != nil {
			return
		}
		if len(buf) != AuthenticateLength {
			t.Fatalf("frame length %d", len(buf))
		}
		if buf[7] != KeyTypeA && buf[7] != KeyTypeB {
			t.Fatalf("accepted key type 0x%02X", buf[7])
		}
	})
}

func FuzzSwitchToLPCD(f *testing.F) {
	f.Add(uint16(0))
	f.Add(uint16(MaxWakeupCounter))
	f.Add(uint16(MaxWakeupCounter + 1))
	f.Add(uint16(0xFFFF))

	f.Fuzz(func(t *testing.T, wakeup uint16) {
		buf, err := SwitchToLPCD(wakeup)
		if err != nil {
			return
		}
		if got := uint16(buf[2]) | uint16(buf[3])<<8; got != wakeup {
			t.Fatalf("encoded 0x%04X, want 0x%04X", got, wakeup)
		}
	})
}
