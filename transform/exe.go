/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transform

import (
	"encoding/binary"
	"errors"
)

const (
	exeCALL      = byte(0xE8)
	exeJMP       = byte(0xE9)
	exeMinLength = 256
)

// EXE rewrites x86 CALL/JMP (0xE8/0xE9) relative 32-bit displacements
// into absolute file offsets, which turns scattered, high-entropy
// displacements into near-identical values an entropy coder
// compresses well; the inverse subtracts the instruction's own
// position back out. The rewrite is applied to every opcode match and
// wraps modulo 2^32, so it is self-inverse without any side table;
// both directions skip the 4 displacement bytes when scanning, which
// keeps their opcode positions in lockstep even though the rewritten
// bytes differ.
type EXE struct{}

func NewEXE() (*EXE, error) { return &EXE{}, nil }

func (t *EXE) MaxEncodedLen(srcLen int) int { return srcLen + 16 }

func (t *EXE) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < exeMinLength {
		return 0, 0, errors.New("EXE: input too small")
	}

	copy(dst, src)
	count := 0
	i := 0

	for i < n-4 {
		if src[i] != exeCALL && src[i] != exeJMP {
			i++
			continue
		}

		disp := binary.LittleEndian.Uint32(src[i+1:])
		binary.LittleEndian.PutUint32(dst[i+1:], disp+uint32(i)+5)
		count++
		i += 5
	}

	if count < n/4096 {
		return 0, 0, errors.New("EXE: not enough convertible addresses")
	}

	return uint(n), uint(n), nil
}

func (t *EXE) Inverse(src, dst []byte) (uint, uint, error) {
	n := len(src)
	copy(dst, src)
	i := 0

	for i < n-4 {
		if src[i] != exeCALL && src[i] != exeJMP {
			i++
			continue
		}

		addr := binary.LittleEndian.Uint32(src[i+1:])
		binary.LittleEndian.PutUint32(dst[i+1:], addr-uint32(i)-5)
		i += 5
	}

	return uint(n), uint(n), nil
}
