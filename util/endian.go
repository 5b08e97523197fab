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

// Package util collects the small, shared, dependency-free primitives
// used throughout the core: unaligned endian-aware loads/stores, a
// slice-with-cursor view used instead of a templated SliceArray, and
// varint coding.
package util

// Plain loads and stores of multi-byte fields in byte slices. The
// transforms and entropy coders in this module call encoding/binary
// directly rather than these helpers.

func LittleEndian16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func PutLittleEndian16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func BigEndian16(b []byte) uint16 {
	return uint16(b[1]) | uint16(b[0])<<8
}

func PutBigEndian16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func LittleEndian32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func PutLittleEndian32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func BigEndian32(b []byte) uint32 {
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

func PutBigEndian32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func LittleEndian64(b []byte) uint64 {
	return uint64(LittleEndian32(b)) | uint64(LittleEndian32(b[4:]))<<32
}

func PutLittleEndian64(b []byte, v uint64) {
	PutLittleEndian32(b, uint32(v))
	PutLittleEndian32(b[4:], uint32(v>>32))
}

func BigEndian64(b []byte) uint64 {
	return uint64(BigEndian32(b))<<32 | uint64(BigEndian32(b[4:]))
}

func PutBigEndian64(b []byte, v uint64) {
	PutBigEndian32(b, uint32(v>>32))
	PutBigEndian32(b[4:], uint32(v))
}
