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
	"bytes"
	"math/rand"
	"strings"
	"testing"

	kanzi "github.com/corewave/kanzi"
)

// roundTrip runs forward then inverse and fails unless the output is
// bit-identical to the input. A forward refusal is reported to the
// caller instead, since many transforms legitimately refuse input
// they cannot improve.
func roundTrip(t *testing.T, name string, tf kanzi.ByteTransform, input []byte) bool {
	t.Helper()
	encoded := make([]byte, tf.MaxEncodedLen(len(input)))
	_, n, err := tf.Forward(input, encoded)

	if err != nil {
		return false
	}

	decoded := make([]byte, len(input))
	_, m, err := tf.Inverse(encoded[:n], decoded)

	if err != nil {
		t.Fatalf("%s: inverse failed on its own forward output: %v", name, err)
	}

	if int(m) != len(input) || !bytes.Equal(decoded[:m], input) {
		t.Fatalf("%s: round trip mismatch (%d in, %d out)", name, len(input), m)
	}

	return true
}

func mustRoundTrip(t *testing.T, name string, tf kanzi.ByteTransform, input []byte) {
	t.Helper()

	if !roundTrip(t, name, tf, input) {
		t.Fatalf("%s: forward refused input it should accept (len %d)", name, len(input))
	}
}

func TestBWTRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("mississippi"),
		[]byte("3.14159265358979323846264338327950288419716939937510"),
		bytes.Repeat([]byte("abracadabra"), 1000),
	}

	rnd := rand.New(rand.NewSource(5))
	random := make([]byte, 4096)

	for i := range random {
		random[i] = byte(rnd.Intn(16))
	}

	inputs = append(inputs, random)

	for _, input := range inputs {
		bwt, _ := NewBWT()
		mustRoundTrip(t, "BWT", bwt, input)
	}
}

func TestBWTSRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("SIX.MIXED.PIXIES.SIFT.SIXTY.PIXIE.DUST.BOXES"),
		[]byte("mississippi"),
		bytes.Repeat([]byte("to be or not to be. "), 512),
	}

	for _, input := range inputs {
		bwts, _ := NewBWTS()
		mustRoundTrip(t, "BWTS", bwts, input)

		// The bijective variant never carries a primary index: the
		// transformed data is exactly as long as the input.
		encoded := make([]byte, bwts.MaxEncodedLen(len(input)))
		_, n, err := bwts.Forward(input, encoded)

		if err != nil {
			t.Fatalf("BWTS refused %q", input[:min(16, len(input))])
		}

		if int(n) != len(input) {
			t.Fatalf("BWTS output length %d != input length %d", n, len(input))
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}

func TestRLTRoundTrip(t *testing.T) {
	input := append(bytes.Repeat([]byte{42}, 500), bytes.Repeat([]byte("ab"), 100)...)
	input = append(input, bytes.Repeat([]byte{0}, 300)...)
	rlt, _ := NewRLT()
	mustRoundTrip(t, "RLT", rlt, input)
}

func TestZRLTRoundTrip(t *testing.T) {
	input := make([]byte, 4096)

	for i := 0; i < len(input); i += 97 {
		input[i] = byte(i % 251)
	}

	zrlt, _ := NewZRLT()
	mustRoundTrip(t, "ZRLT", zrlt, input)
}

func TestZRLTRefusesDenseData(t *testing.T) {
	input := make([]byte, 1024)

	for i := range input {
		input[i] = byte(1 + i%250)
	}

	zrlt, _ := NewZRLT()
	encoded := make([]byte, zrlt.MaxEncodedLen(len(input)))

	if _, _, err := zrlt.Forward(input, encoded); err == nil {
		t.Fatal("ZRLT accepted zero-free data")
	}
}

func TestSBRTRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 64))

	for _, mode := range []SBRTMode{SBRTModeMTF, SBRTModeRank, SBRTModeSRT} {
		sbrt, _ := NewSBRT(mode)
		mustRoundTrip(t, "SBRT", sbrt, input)
	}
}

func TestLZRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("compress me, compress me again, and once more for luck. ", 200))

	lz, _ := NewLZ()
	mustRoundTrip(t, "LZ", lz, input)

	lzx, _ := NewLZX()
	mustRoundTrip(t, "LZX", lzx, input)
}

func TestLZPRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("abcdefgh abcdefgh abcdefgh abcdefgh ", 400))
	lzp, _ := NewLZP()
	mustRoundTrip(t, "LZP", lzp, input)
}

func TestROLZRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("around and around and around we go. ", 300))

	rolz, _ := NewROLZ(false)
	mustRoundTrip(t, "ROLZ", rolz, input)

	rolzx, _ := NewROLZ(true)
	mustRoundTrip(t, "ROLZX", rolzx, input)
}

func TestTextCodecRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("The rain in Spain falls mainly on the plain. It was the best of times, it was the worst of times. ", 80))
	text, _ := NewTextCodec()
	mustRoundTrip(t, "TEXT", text, input)
}

func TestTextCodecCasePreservation(t *testing.T) {
	input := []byte(strings.Repeat("Hello world, hello World, HELLO indeed hello again and again. ", 60))
	text, _ := NewTextCodec()
	mustRoundTrip(t, "TEXT", text, input)
}

func TestUTFCodecRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("víðförull örn æðrulaus été là où ça gèle. ", 400))
	utf, _ := NewUTF()

	// Acceptance depends on the distinct code point count and the
	// projected gain; when accepted, the round trip must be exact.
	roundTrip(t, "UTF", utf, input)
}

func TestUTFCodecRefusesBinary(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	input := make([]byte, 8192)

	for i := range input {
		input[i] = byte(rnd.Intn(256))
	}

	utf, _ := NewUTF()
	encoded := make([]byte, utf.MaxEncodedLen(len(input)))

	if _, _, err := utf.Forward(input, encoded); err == nil {
		t.Fatal("UTF accepted random binary data")
	}
}

func TestFSDRoundTrip(t *testing.T) {
	// Smooth ramps with small step deltas, the shape FSD targets.
	input := make([]byte, 16384)

	for i := range input {
		input[i] = byte(128 + 20*i/len(input) + i%3)
	}

	fsd, _ := NewFSD()
	roundTrip(t, "FSD", fsd, input)
}

func TestPackRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("aAbBaAbBaAbB", 600))
	pack, _ := NewPack()
	roundTrip(t, "PACK", pack, input)
}

func TestDNARoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	nucleotides := []byte("ACGT")
	input := make([]byte, 8192)

	for i := range input {
		input[i] = nucleotides[rnd.Intn(4)]
	}

	dna, _ := NewDNA()
	mustRoundTrip(t, "DNA", dna, input)
}

func TestEXERoundTrip(t *testing.T) {
	// Dense x86-style relative calls, the pattern the codec rewrites.
	input := make([]byte, 8192)

	for i := 0; i+5 <= len(input); i += 5 {
		input[i] = 0xE8
		input[i+1] = byte(i)
		input[i+2] = byte(i >> 8)
		input[i+3] = 0
		input[i+4] = 0
	}

	exe, _ := NewEXE()
	roundTrip(t, "EXE", exe, input)
}

func TestNoneIdentity(t *testing.T) {
	input := []byte("identity is the easiest contract of all")
	none, _ := NewNone()
	mustRoundTrip(t, "NONE", none, input)
}
