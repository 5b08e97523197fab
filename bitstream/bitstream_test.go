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

package bitstream

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/corewave/kanzi/util"
)

func TestWriteReadBits(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	type op struct {
		value uint64
		width uint
	}

	ops := make([]op, 5000)

	for i := range ops {
		w := uint(1 + rnd.Intn(64))
		ops[i] = op{value: rnd.Uint64() & (^uint64(0) >> (64 - w)), width: w}
	}

	sink := util.NewBufferStream(make([]byte, 0, 65536))
	obs, err := NewWriter(sink, 16384)

	if err != nil {
		t.Fatal(err)
	}

	var total uint64

	for _, o := range ops {
		obs.WriteBits(o.value, o.width)
		total += uint64(o.width)
	}

	if obs.Written() != total {
		t.Fatalf("written %d bits, expected %d", obs.Written(), total)
	}

	if err := obs.Close(); err != nil {
		t.Fatal(err)
	}

	ibs, err := NewReader(util.NewBufferStream(sink.Bytes()), 16384)

	if err != nil {
		t.Fatal(err)
	}

	for i, o := range ops {
		got := ibs.ReadBits(o.width)

		if got != o.value {
			t.Fatalf("op %d: read %#x, wrote %#x (width %d)", i, got, o.value, o.width)
		}
	}

	if ibs.Read() != total {
		t.Fatalf("read %d bits, expected %d", ibs.Read(), total)
	}
}

func TestSingleBits(t *testing.T) {
	sink := util.NewBufferStream(make([]byte, 0, 64))
	obs, _ := NewWriter(sink, 16384)
	pattern := []int{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1}

	for _, b := range pattern {
		obs.WriteBit(b)
	}

	obs.Close()

	ibs, _ := NewReader(util.NewBufferStream(sink.Bytes()), 16384)

	for i, want := range pattern {
		if got := ibs.ReadBit(); got != want {
			t.Fatalf("bit %d: got %d, want %d", i, got, want)
		}
	}
}

func TestWriteReadArray(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	data := make([]byte, 10000)

	for i := range data {
		data[i] = byte(rnd.Intn(256))
	}

	for _, bitCount := range []uint{8, 64, 333, 8 * 10000} {
		sink := util.NewBufferStream(make([]byte, 0, 16384))
		obs, _ := NewWriter(sink, 16384)

		// Offset by 3 bits so the array never lands byte-aligned.
		obs.WriteBits(0x5, 3)
		obs.WriteArray(data, bitCount)
		obs.Close()

		ibs, _ := NewReader(util.NewBufferStream(sink.Bytes()), 16384)
		ibs.ReadBits(3)
		out := make([]byte, len(data))
		ibs.ReadArray(out, bitCount)

		full := int(bitCount / 8)

		if !bytes.Equal(out[:full], data[:full]) {
			t.Fatalf("array mismatch for %d bits", bitCount)
		}

		if rem := bitCount % 8; rem != 0 {
			mask := byte(0xFF) << (8 - rem)

			if out[full]&mask != data[full]&mask {
				t.Fatalf("trailing %d bits mismatch", rem)
			}
		}
	}
}

func TestMSBFirstPacking(t *testing.T) {
	sink := util.NewBufferStream(make([]byte, 0, 16))
	obs, _ := NewWriter(sink, 16384)

	// 0b1010 then 0b1111 must pack to byte 0b10101111.
	obs.WriteBits(0xA, 4)
	obs.WriteBits(0xF, 4)
	obs.Close()

	if got := sink.Bytes()[0]; got != 0xAF {
		t.Fatalf("MSB-first packing produced %#x, want 0xAF", got)
	}
}

func TestClosePadsFinalByte(t *testing.T) {
	sink := util.NewBufferStream(make([]byte, 0, 16))
	obs, _ := NewWriter(sink, 16384)
	obs.WriteBits(0x7, 3)

	if err := obs.Close(); err != nil {
		t.Fatal(err)
	}

	if obs.Written() != 3 {
		t.Fatalf("Written() after close = %d, want 3", obs.Written())
	}

	out := sink.Bytes()

	if len(out) != 1 || out[0] != 0xE0 {
		t.Fatalf("padded output = %#v, want [0xE0]", out)
	}
}

func TestWriterRejectsBadBufferSize(t *testing.T) {
	sink := util.NewBufferStream(nil)

	for _, size := range []uint{0, 100, 1023, 1025} {
		if _, err := NewWriter(sink, size); err == nil {
			t.Fatalf("accepted buffer size %d", size)
		}
	}
}

func TestReaderEndOfStream(t *testing.T) {
	ibs, _ := NewReader(util.NewBufferStream([]byte{0xFF}), 16384)
	ibs.ReadBits(8)

	defer func() {
		if recover() == nil {
			t.Fatal("reading past end of stream did not panic")
		}
	}()

	ibs.ReadBits(8)
}
