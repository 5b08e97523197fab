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
	"bytes"
	"math/rand"
	"testing"

	"github.com/corewave/kanzi/bitstream"
	"github.com/corewave/kanzi/util"
)

func encodeDecode(t *testing.T, entropyType uint32, input []byte) {
	t.Helper()
	sink := util.NewBufferStream(make([]byte, 0, 2*len(input)+1024))
	obs, err := bitstream.NewWriter(sink, 16384)

	if err != nil {
		t.Fatal(err)
	}

	enc, err := NewEntropyEncoder(obs, entropyType)

	if err != nil {
		t.Fatal(err)
	}

	if _, err := enc.Write(input); err != nil {
		name, _ := Name(entropyType)
		t.Fatalf("%s encode: %v", name, err)
	}

	enc.Dispose()

	if err := obs.Close(); err != nil {
		t.Fatal(err)
	}

	ibs, err := bitstream.NewReader(util.NewBufferStream(sink.Bytes()), 16384)

	if err != nil {
		t.Fatal(err)
	}

	dec, err := NewEntropyDecoder(ibs, entropyType)

	if err != nil {
		t.Fatal(err)
	}

	output := make([]byte, len(input))

	if _, err := dec.Read(output); err != nil {
		name, _ := Name(entropyType)
		t.Fatalf("%s decode: %v", name, err)
	}

	dec.Dispose()

	if !bytes.Equal(input, output) {
		name, _ := Name(entropyType)
		idx := 0

		for idx < len(input) && input[idx] == output[idx] {
			idx++
		}

		t.Fatalf("%s: mismatch at byte %d of %d", name, idx, len(input))
	}
}

func testInputs() map[string][]byte {
	rnd := rand.New(rand.NewSource(7))
	random := make([]byte, 65536)
	skewed := make([]byte, 65536)
	tiny := []byte("entropy")

	for i := range random {
		random[i] = byte(rnd.Intn(256))
		skewed[i] = byte(rnd.Intn(8))
	}

	zeros := make([]byte, 32768)
	single := bytes.Repeat([]byte{77}, 4096)

	return map[string][]byte{
		"random": random,
		"skewed": skewed,
		"zeros":  zeros,
		"single": single,
		"tiny":   tiny,
	}
}

func TestEntropyCodecsRoundTrip(t *testing.T) {
	types := []uint32{NoneType, HuffmanType, ANS0Type, ANS1Type, RangeType, FPAQType, CMType, TPAQType, TPAQXType}

	for _, et := range types {
		name, _ := Name(et)

		for shape, input := range testInputs() {
			t.Run(name+"/"+shape, func(t *testing.T) {
				encodeDecode(t, et, input)
			})
		}
	}
}

func TestAlphabetRoundTrip(t *testing.T) {
	cases := [][]int{
		{},
		{0},
		{255},
		{3, 7, 11, 13, 17, 101, 250},
		nil, // replaced by the full alphabet below
	}

	full := make([]int, 256)

	for i := range full {
		full[i] = i
	}

	cases[len(cases)-1] = full

	for _, alpha := range cases {
		sink := util.NewBufferStream(make([]byte, 0, 1024))
		obs, _ := bitstream.NewWriter(sink, 16384)
		buf := make([]int, 256)
		in := buf[0:len(alpha)]
		copy(in, alpha)

		if _, err := EncodeAlphabet(obs, in); err != nil {
			t.Fatalf("encode alphabet %v: %v", alpha, err)
		}

		obs.Close()

		ibs, _ := bitstream.NewReader(util.NewBufferStream(sink.Bytes()), 16384)
		out := make([]int, 256)
		count, err := DecodeAlphabet(ibs, out)

		if err != nil {
			t.Fatalf("decode alphabet %v: %v", alpha, err)
		}

		if count != len(alpha) {
			t.Fatalf("alphabet size %d, want %d", count, len(alpha))
		}

		for i := range alpha {
			if out[i] != alpha[i] {
				t.Fatalf("alphabet symbol %d: got %d, want %d", i, out[i], alpha[i])
			}
		}
	}
}

func TestExpGolombRoundTrip(t *testing.T) {
	input := []byte{0, 1, 2, 3, 4, 5, 126, 127, 128, 129, 200, 255}

	for _, signed := range []bool{false, true} {
		sink := util.NewBufferStream(make([]byte, 0, 256))
		obs, _ := bitstream.NewWriter(sink, 16384)
		enc, _ := NewExpGolombEncoder(obs, signed)
		enc.Write(input)
		enc.Dispose()
		obs.Close()

		ibs, _ := bitstream.NewReader(util.NewBufferStream(sink.Bytes()), 16384)
		dec, _ := NewExpGolombDecoder(ibs, signed)
		output := make([]byte, len(input))
		dec.Read(output)

		if !bytes.Equal(input, output) {
			t.Fatalf("exp-golomb (signed=%v): got %v, want %v", signed, output, input)
		}
	}
}

func TestNormalizeFrequencies(t *testing.T) {
	freqs := []int{100, 300, 50, 1, 0, 0, 549}
	alphabet := make([]int, len(freqs))
	total := 0

	for _, f := range freqs {
		total += f
	}

	count, err := NormalizeFrequencies(freqs, alphabet, total, 1<<12)

	if err != nil {
		t.Fatal(err)
	}

	if count != 5 {
		t.Fatalf("alphabet size %d, want 5", count)
	}

	sum := 0

	for _, f := range freqs {
		if f < 0 {
			t.Fatalf("negative normalized frequency: %v", freqs)
		}

		sum += f
	}

	if sum != 1<<12 {
		t.Fatalf("normalized frequencies sum to %d, want %d", sum, 1<<12)
	}
}
