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

// Package hash implements the two checksums the bitstream container
// can embed per block: XXHash32 and XXHash64, due to Yann Collet
// (https://github.com/Cyan4973/xxHash). The container format pins the
// algorithms, so the primes and round schedule are exactly the
// published ones; both are exposed as plain one-shot functions since a
// block is always hashed in full.
package hash

import (
	"encoding/binary"
	"math/bits"
)

const (
	prime32_1 = uint32(2654435761)
	prime32_2 = uint32(2246822519)
	prime32_3 = uint32(3266489917)
	prime32_4 = uint32(668265263)
	prime32_5 = uint32(374761393)
)

// Sum32 returns the XXHash32 checksum of data under the given seed.
func Sum32(data []byte, seed uint32) uint32 {
	n := len(data)
	h := seed + prime32_5

	if n >= 16 {
		v1 := seed + prime32_1 + prime32_2
		v2 := seed + prime32_2
		v3 := seed
		v4 := seed - prime32_1

		for len(data) >= 16 {
			v1 = round32(v1, binary.LittleEndian.Uint32(data[0:4]))
			v2 = round32(v2, binary.LittleEndian.Uint32(data[4:8]))
			v3 = round32(v3, binary.LittleEndian.Uint32(data[8:12]))
			v4 = round32(v4, binary.LittleEndian.Uint32(data[12:16]))
			data = data[16:]
		}

		h = bits.RotateLeft32(v1, 1) + bits.RotateLeft32(v2, 7) +
			bits.RotateLeft32(v3, 12) + bits.RotateLeft32(v4, 18)
	}

	h += uint32(n)

	for len(data) >= 4 {
		h = bits.RotateLeft32(h+binary.LittleEndian.Uint32(data)*prime32_3, 17) * prime32_4
		data = data[4:]
	}

	for _, b := range data {
		h = bits.RotateLeft32(h+uint32(b)*prime32_5, 11) * prime32_1
	}

	h ^= h >> 15
	h *= prime32_2
	h ^= h >> 13
	h *= prime32_3
	return h ^ (h >> 16)
}

func round32(acc, lane uint32) uint32 {
	return bits.RotateLeft32(acc+lane*prime32_2, 13) * prime32_1
}
