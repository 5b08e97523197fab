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
	"encoding/binary"
	"errors"

	kanzi "github.com/corewave/kanzi"
)

const (
	rangeTop    = uint64(0x00FFFFFFFFFFFFFF)
	mask56      = uint64(0x00FFFFFFFFFFFFFF)
	mask24      = uint64(0x0000000000FFFFFF)
	mask32      = uint64(0x00000000FFFFFFFF)
	binMaxBlock = 1 << 30
	binMaxChunk = 1 << 26
)

// BinaryEncoder is a 56-bit range coder driven by an external
// Predictor. FPAQ, CM and TPAQ all plug a different Predictor into the
// same coder; the coder itself knows nothing about contexts.
type BinaryEncoder struct {
	predictor kanzi.Predictor
	low, high uint64
	bs        kanzi.OutputBitStream
	disposed  bool
	buffer    []byte
	index     int
}

func NewBinaryEncoder(bs kanzi.OutputBitStream, predictor kanzi.Predictor) (*BinaryEncoder, error) {
	if bs == nil {
		return nil, errors.New("binary entropy codec: nil bitstream")
	}

	if predictor == nil {
		return nil, errors.New("binary entropy codec: nil predictor")
	}

	return &BinaryEncoder{predictor: predictor, high: rangeTop, bs: bs}, nil
}

func (e *BinaryEncoder) EncodeByte(val byte) {
	e.EncodeBit((val>>7)&1, e.predictor.Get())
	e.EncodeBit((val>>6)&1, e.predictor.Get())
	e.EncodeBit((val>>5)&1, e.predictor.Get())
	e.EncodeBit((val>>4)&1, e.predictor.Get())
	e.EncodeBit((val>>3)&1, e.predictor.Get())
	e.EncodeBit((val>>2)&1, e.predictor.Get())
	e.EncodeBit((val>>1)&1, e.predictor.Get())
	e.EncodeBit(val&1, e.predictor.Get())
}

func (e *BinaryEncoder) EncodeBit(bit byte, pred int) {
	// A prediction pinned at either end would collapse one side's
	// interval to nothing; keep it strictly inside (0, 4095).
	if pred < 1 {
		pred = 1
	} else if pred > 4094 {
		pred = 4094
	}

	split := (((e.high - e.low) >> 4) * uint64(pred)) >> 8

	if bit == 0 {
		e.low += split + 1
	} else {
		e.high = e.low + split
	}

	e.predictor.Update(bit)

	for (e.low ^ e.high) < (1 << 24) {
		e.flush()
	}
}

// Write splits block into chunks (to bound scratch allocation for huge
// blocks, and to avoid a tiny scratch buffer for tiny ones) and
// range-codes each chunk in turn.
func (e *BinaryEncoder) Write(block []byte) (int, error) {
	count := len(block)

	if count > binMaxBlock {
		return -1, errors.New("binary entropy codec: block too large (max is 1<<30)")
	}

	start, end := 0, count
	length := count

	if count >= binMaxChunk {
		if count < 8*binMaxChunk {
			length = count >> 3
		} else {
			length = count >> 4
		}
	} else if count < 64 {
		length = 64
	}

	for start < end {
		chunkSize := length

		if start+length >= end {
			chunkSize = end - start
		}

		if len(e.buffer) < length+(length>>3) {
			e.buffer = make([]byte, length+(length>>3))
		}

		e.index = 0
		buf := block[start : start+chunkSize]

		for _, b := range buf {
			e.EncodeByte(b)
		}

		WriteVarInt(e.bs, uint32(e.index))
		e.bs.WriteArray(e.buffer, uint(8*e.index))
		start += chunkSize

		if start < end {
			e.bs.WriteBits(e.low|mask24, 56)
		}
	}

	return count, nil
}

func (e *BinaryEncoder) flush() {
	binary.BigEndian.PutUint32(e.buffer[e.index:], uint32(e.high>>24))
	e.index += 4
	e.low <<= 32
	e.high = (e.high << 32) | mask32
}

func (e *BinaryEncoder) BitStream() kanzi.OutputBitStream { return e.bs }

// Dispose flushes the final range bounds. Idempotent.
func (e *BinaryEncoder) Dispose() {
	if e.disposed {
		return
	}

	e.disposed = true
	e.bs.WriteBits(e.low|mask24, 56)
}

// BinaryDecoder mirrors BinaryEncoder.
type BinaryDecoder struct {
	predictor kanzi.Predictor
	low, high uint64
	current   uint64
	bs        kanzi.InputBitStream
	buffer    []byte
	index     int
}

func NewBinaryDecoder(bs kanzi.InputBitStream, predictor kanzi.Predictor) (*BinaryDecoder, error) {
	if bs == nil {
		return nil, errors.New("binary entropy codec: nil bitstream")
	}

	if predictor == nil {
		return nil, errors.New("binary entropy codec: nil predictor")
	}

	return &BinaryDecoder{predictor: predictor, high: rangeTop, bs: bs}, nil
}

func (d *BinaryDecoder) DecodeByte() byte {
	return (d.DecodeBit(d.predictor.Get()) << 7) |
		(d.DecodeBit(d.predictor.Get()) << 6) |
		(d.DecodeBit(d.predictor.Get()) << 5) |
		(d.DecodeBit(d.predictor.Get()) << 4) |
		(d.DecodeBit(d.predictor.Get()) << 3) |
		(d.DecodeBit(d.predictor.Get()) << 2) |
		(d.DecodeBit(d.predictor.Get()) << 1) |
		d.DecodeBit(d.predictor.Get())
}

func (d *BinaryDecoder) DecodeBit(pred int) byte {
	if pred < 1 {
		pred = 1
	} else if pred > 4094 {
		pred = 4094
	}

	split := ((((d.high - d.low) >> 4) * uint64(pred)) >> 8) + d.low
	var bit byte

	if split >= d.current {
		bit = 1
		d.high = split
		d.predictor.Update(1)
	} else {
		bit = 0
		d.low = -^split
		d.predictor.Update(0)
	}

	for (d.low ^ d.high) < (1 << 24) {
		d.pull()
	}

	return bit
}

func (d *BinaryDecoder) pull() {
	d.low = (d.low << 32) & mask56
	d.high = ((d.high << 32) | mask32) & mask56
	val := uint64(binary.BigEndian.Uint32(d.buffer[d.index:]))
	d.current = ((d.current << 32) | val) & mask56
	d.index += 4
}

func (d *BinaryDecoder) Read(block []byte) (int, error) {
	count := len(block)

	if count > binMaxBlock {
		return -1, errors.New("binary entropy codec: block too large (max is 1<<30)")
	}

	start, end := 0, count
	length := count

	if count >= binMaxChunk {
		if count < 8*binMaxChunk {
			length = count >> 3
		} else {
			length = count >> 4
		}
	} else if count < 64 {
		length = 64
	}

	for start < end {
		chunkSize := length

		if start+length >= end {
			chunkSize = end - start
		}

		if len(d.buffer) < length+(length>>3) {
			d.buffer = make([]byte, length+(length>>3))
		}

		szBytes := ReadVarInt(d.bs)
		d.current = d.bs.ReadBits(56)

		if szBytes != 0 {
			d.bs.ReadArray(d.buffer, uint(8*szBytes))
		}

		d.index = 0
		buf := block[start : start+chunkSize]

		for i := range buf {
			buf[i] = d.DecodeByte()
		}

		start += chunkSize
	}

	return count, nil
}

func (d *BinaryDecoder) BitStream() kanzi.InputBitStream { return d.bs }
func (d *BinaryDecoder) Dispose()                        {}
