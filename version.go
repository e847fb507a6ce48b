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
)

// DieIdentifierLength is the size of the unique die identifier.
const DieIdentifierLength = 16

// Version is a two byte version number as stored in EEPROM, minor first.
type Version struct {
	Major byte
	Minor byte
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Versions contains the PN5180 version information
type Versions struct {
	Product  Version
	Firmware Version
	EEPROM   Version
}

// GetVersions reads the product, firmware and EEPROM versions.
func (d *Device) GetVersions(ctx context.Context) (*Versions, error) {
	raw, err := d.ReadEEPROM(ctx, int(EEProductVersion), 6)
	if err != nil {
		return nil, fmt.Errorf("failed to read versions: %w", err)
	}
	return &Versions{
		Product:  Version{Minor: raw[0], Major: raw[1]},
		Firmware: Version{Minor: raw[2], Major: raw[3]},
		EEPROM:   Version{Minor: raw[4], Major: raw[5]},
	}, nil
}

// GetDieIdentifier reads the 16 byte die identifier.
func (d *Device) GetDieIdentifier(ctx context.Context) ([]byte, error) {
	id, err := d.ReadEEPROM(ctx, int(EEDieIdentifier), DieIdentifierLength)
	if err != nil {
		return nil, fmt.Errorf("failed to read die identifier: %w", err)
	}
	return id, nil
}
