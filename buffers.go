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

import "fmt"

// smallBufferSize covers UIDs and short answers.
const smallBufferSize = 16

// buffers are the receive scratch space of one device. Both tiers are
// allocated with the device and never shared.
type buffers struct {
	large []byte
	small [smallBufferSize]byte
}

func newBuffers(largeSize int) *buffers {
	b := &buffers{}
	if largeSize > 0 {
		b.large = make([]byte, largeSize)
	}
	return b
}

// get returns n bytes of scratch: the small tier up to 16 bytes, the large
// tier above that.
func (b *buffers) get(n int) ([]byte, error) {
	if n <= smallBufferSize {
		return b.small[:n], nil
	}
	if n > len(b.large) {
		return nil, fmt.Errorf("%w: need %d bytes, large buffer holds %d", ErrBufferUnavailable, n, len(b.large))
	}
	return b.large[:n], nil
}
