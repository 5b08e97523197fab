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

package entropy

import (
	"errors"

	kanzi "github.com/corewave/kanzi"
)

// ExpGolombEncoder Rice-Golomb codes a byte stream: the quotient by
// 2^logBase is unary-encoded, the remainder binary-encoded. Used to
// transmit the small, centered-on-zero deltas between Huffman code
// lengths.
type ExpGolombEncoder struct {
	signed  bool
	logBase uint
	base    uint64
	bs      kanzi.OutputBitStream
}

// NewExpGolombEncoder creates an encoder. When sgn is true, values are
// treated as signed bytes (int8 cast to byte) with a trailing sign bit.
func NewExpGolombEncoder(bs kanzi.OutputBitStream, sgn bool) (*ExpGolombEncoder, error) {
	if bs == nil {
		return nil, errors.New("exp-golomb codec: nil bitstream")
	}

	return &ExpGolombEncoder{signed: sgn, bs: bs, logBase: 2, base: 1 << 2}, nil
}

func (e *ExpGolombEncoder) EncodeByte(val byte) {
	if val == 0 {
		e.bs.WriteBits(e.base, e.logBase+1)
		return
	}

	var emit uint64

	if e.signed && val&0x80 != 0 {
		emit = uint64(-val)
	} else {
		emit = uint64(val)
	}

	n := uint(emit>>e.logBase) + e.logBase + 1
	emit = e.base | (emit & (e.base - 1))

	if e.signed {
		n++
		emit = (emit << 1) | uint64((val>>7)&1)
	}

	// Large quotients make the code longer than one 64-bit write; its
	// leading bits are all zeros.
	for n > 64 {
		e.bs.WriteBits(0, 32)
		n -= 32
	}

	e.bs.WriteBits(emit, n)
}

func (e *ExpGolombEncoder) Write(block []byte) (int, error) {
	for i := range block {
		e.EncodeByte(block[i])
	}

	return len(block), nil
}

func (e *ExpGolombEncoder) BitStream() kanzi.OutputBitStream { return e.bs }
func (e *ExpGolombEncoder) Dispose()                         {}

// ExpGolombDecoder mirrors ExpGolombEncoder.
type ExpGolombDecoder struct {
	signed  bool
	logBase uint
	bs      kanzi.InputBitStream
}

func NewExpGolombDecoder(bs kanzi.InputBitStream, sgn bool) (*ExpGolombDecoder, error) {
	if bs == nil {
		return nil, errors.New("exp-golomb codec: nil bitstream")
	}

	return &ExpGolombDecoder{signed: sgn, bs: bs, logBase: 2}, nil
}

func (d *ExpGolombDecoder) DecodeByte() byte {
	q := 0

	for d.bs.ReadBit() == 0 {
		q++
	}

	res := byte((q << d.logBase) | int(d.bs.ReadBits(d.logBase)))

	if d.signed && res != 0 {
		if d.bs.ReadBit() == 1 {
			return byte(-int8(res))
		}
	}

	return res
}

func (d *ExpGolombDecoder) Read(block []byte) (int, error) {
	for i := range block {
		block[i] = d.DecodeByte()
	}

	return len(block), nil
}

func (d *ExpGolombDecoder) BitStream() kanzi.InputBitStream { return d.bs }
func (d *ExpGolombDecoder) Dispose()                        {}
