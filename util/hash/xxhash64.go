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

package hash

import (
	"encoding/binary"
	"math/bits"
)

const (
	prime64_1 = uint64(0x9E3779B185EBCA87)
	prime64_2 = uint64(0xC2B2AE3D27D4EB4F)
	prime64_3 = uint64(0x165667B19E3779F9)
	prime64_4 = uint64(0x85EBCA77C2B2AE63)
	prime64_5 = uint64(0x27D4EB2F165667C5)
)

// Sum64 returns the XXHash64 checksum of data under the given seed,
// selected when the container header requests a 64-bit checksum.
func Sum64(data []byte, seed uint64) uint64 {
	n := len(data)
	h := seed + prime64_5

	if n >= 32 {
		v1 := seed + prime64_1 + prime64_2
		v2 := seed + prime64_2
		v3 := seed
		v4 := seed - prime64_1

		for len(data) >= 32 {
			v1 = round64(v1, binary.LittleEndian.Uint64(data[0:8]))
			v2 = round64(v2, binary.LittleEndian.Uint64(data[8:16]))
			v3 = round64(v3, binary.LittleEndian.Uint64(data[16:24]))
			v4 = round64(v4, binary.LittleEndian.Uint64(data[24:32]))
			data = data[32:]
		}

		h = bits.RotateLeft64(v1, 1) + bits.RotateLeft64(v2, 7) +
			bits.RotateLeft64(v3, 12) + bits.RotateLeft64(v4, 18)
		h = merge64(h, v1)
		h = merge64(h, v2)
		h = merge64(h, v3)
		h = merge64(h, v4)
	}

	h += uint64(n)

	for len(data) >= 8 {
		h = bits.RotateLeft64(h^round64(0, binary.LittleEndian.Uint64(data)), 27)*prime64_1 + prime64_4
		data = data[8:]
	}

	if len(data) >= 4 {
		h = bits.RotateLeft64(h^uint64(binary.LittleEndian.Uint32(data))*prime64_1, 23)*prime64_2 + prime64_3
		data = data[4:]
	}

	for _, b := range data {
		h = bits.RotateLeft64(h^uint64(b)*prime64_5, 11) * prime64_1
	}

	h ^= h >> 33
	h *= prime64_2
	h ^= h >> 29
	h *= prime64_3
	return h ^ (h >> 32)
}

func round64(acc, lane uint64) uint64 {
	return bits.RotateLeft64(acc+lane*prime64_2, 31) * prime64_1
}

func merge64(acc, val uint64) uint64 {
	return (acc^round64(0, val))*prime64_1 + prime64_4
}
