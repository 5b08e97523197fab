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

package io

import (
	"bytes"
	stdio "io"
	"math/rand"
	"strings"
	"sync"
	"testing"

	kanzi "github.com/corewave/kanzi"
	"github.com/corewave/kanzi/util"
)

func compressBytes(t *testing.T, input []byte, p *Params) []byte {
	t.Helper()
	sink := util.NewBufferStream(make([]byte, 0, len(input)+4096))
	cos, err := NewCompressedOutputStream(sink, p)

	if err != nil {
		t.Fatal(err)
	}

	if len(input) > 0 {
		if _, err := cos.Write(input); err != nil {
			t.Fatal(err)
		}
	}

	if err := cos.Close(); err != nil {
		t.Fatal(err)
	}

	return sink.Bytes()
}

func decompressBytes(t *testing.T, compressed []byte, p *Params) ([]byte, error) {
	t.Helper()
	cis, err := NewCompressedInputStream(util.NewBufferStream(compressed), p)

	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	_, err = stdio.Copy(&out, cis)
	cis.Close()
	return out.Bytes(), err
}

func roundTripParams(entropy, chain string, blockSize uint32, checksum uint32, jobs uint) *Params {
	p := NewParams()
	p.EntropyName = entropy
	p.TransformChain = chain
	p.BlockSize = blockSize
	p.ChecksumSize = checksum
	p.Jobs = jobs
	return p
}

func assertRoundTrip(t *testing.T, input []byte, p *Params) []byte {
	t.Helper()
	compressed := compressBytes(t, input, p)
	decoded, err := decompressBytes(t, compressed, &Params{Jobs: p.Jobs})

	if err != nil {
		t.Fatalf("decode (%s/%s): %v", p.EntropyName, p.TransformChain, err)
	}

	if !bytes.Equal(decoded, input) {
		t.Fatalf("round trip mismatch (%s/%s): %d in, %d out",
			p.EntropyName, p.TransformChain, len(input), len(decoded))
	}

	return compressed
}

func TestBWTTinyBlock(t *testing.T) {
	assertRoundTrip(t, []byte("mississippi"), roundTripParams("NONE", "BWT", 1024, 0, 1))
}

func TestBWTSTinyBlock(t *testing.T) {
	assertRoundTrip(t, []byte("SIX.MIXED.PIXIES.SIFT.SIXTY.PIXIE.DUST.BOXES"),
		roundTripParams("NONE", "BWTS", 1024, 0, 1))
}

func TestZerosCompressTiny(t *testing.T) {
	input := make([]byte, 1024*1024)
	p := roundTripParams("ANS0", "RLT+ZRLT", 65536, 32, 1)
	compressed := assertRoundTrip(t, input, p)

	if len(compressed) > len(input)/256 {
		t.Fatalf("1 MiB of zeros compressed to %d bytes", len(compressed))
	}
}

func TestRandomDataWithSkip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	input := make([]byte, 2*1024*1024)

	for i := range input {
		input[i] = byte(rnd.Intn(256))
	}

	p := roundTripParams("FPAQ", "LZ", 262144, 64, 3)
	p.SkipBlocks = true
	compressed := assertRoundTrip(t, input, p)

	// Incompressible blocks must be passed through as copies, so the
	// overhead stays within the per-block framing.
	if len(compressed) > len(input)+len(input)/16 {
		t.Fatalf("random data expanded to %d bytes from %d", len(compressed), len(input))
	}
}

func TestTextPipeline(t *testing.T) {
	src := "It is a truth universally acknowledged, that a single man in possession " +
		"of a good fortune, must be in want of a wife. However little known the " +
		"feelings or views of such a man may be on his first entering a " +
		"neighbourhood, this truth is so well fixed in the minds of the " +
		"surrounding families, that he is considered the rightful property of " +
		"some one or other of their daughters. "
	input := []byte(strings.Repeat(src, 140))
	p := roundTripParams("ANS0", "TEXT+BWT+RANK+ZRLT", 16384, 0, 1)
	compressed := assertRoundTrip(t, input, p)

	if len(compressed) > 3*len(input)/10 {
		t.Fatalf("text compressed to %d bytes of %d, want < 30%%", len(compressed), len(input))
	}
}

func TestEmptyInput(t *testing.T) {
	p := roundTripParams("ANS0", "BWT+RANK+ZRLT", 1024*1024, 32, 2)
	compressed := compressBytes(t, nil, p)

	// Header plus the end-of-stream terminator only.
	if len(compressed) > 32 {
		t.Fatalf("empty input produced %d bytes", len(compressed))
	}

	cis, err := NewCompressedInputStream(util.NewBufferStream(compressed), &Params{Jobs: 1})

	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 16)

	if _, err := cis.Read(buf); err != stdio.EOF {
		t.Fatalf("expected immediate EOF, got %v", err)
	}

	cis.Close()
}

type blockCounter struct {
	mu    sync.Mutex
	count int
}

func (c *blockCounter) ProcessEvent(evt *kanzi.Event) {
	if evt.Phase() == kanzi.EvtBeforeTransf {
		c.mu.Lock()
		c.count++
		c.mu.Unlock()
	}
}

func TestBlockThresholdBoundary(t *testing.T) {
	for _, tc := range []struct {
		inputLen int
		blocks   int
	}{
		{1024, 1},
		{1025, 2},
		{2048, 2},
	} {
		input := bytes.Repeat([]byte{0xAB}, tc.inputLen)
		sink := util.NewBufferStream(make([]byte, 0, 8192))
		p := roundTripParams("NONE", "NONE", 1024, 0, 1)
		cos, err := NewCompressedOutputStream(sink, p)

		if err != nil {
			t.Fatal(err)
		}

		counter := &blockCounter{}
		cos.AddListener(counter)
		cos.Write(input)

		if err := cos.Close(); err != nil {
			t.Fatal(err)
		}

		if counter.count != tc.blocks {
			t.Fatalf("%d bytes: %d blocks, want %d", tc.inputLen, counter.count, tc.blocks)
		}

		decoded, err := decompressBytes(t, sink.Bytes(), &Params{Jobs: 1})

		if err != nil || !bytes.Equal(decoded, input) {
			t.Fatalf("%d bytes: round trip failed: %v", tc.inputLen, err)
		}
	}
}

func TestManyBlocksManyJobs(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))
	input := make([]byte, 512*1024)

	for i := range input {
		input[i] = byte(rnd.Intn(32))
	}

	for _, jobs := range []uint{1, 2, 4, 7} {
		p := roundTripParams("HUFFMAN", "LZ", 16384, 32, jobs)
		compressed := compressBytes(t, input, p)

		// Frames land in block order regardless of which worker
		// finishes first, so every job count yields the same stream.
		decoded, err := decompressBytes(t, compressed, &Params{Jobs: jobs})

		if err != nil || !bytes.Equal(decoded, input) {
			t.Fatalf("jobs=%d: round trip failed: %v", jobs, err)
		}
	}
}

func TestEntropyTransformMatrix(t *testing.T) {
	rnd := rand.New(rand.NewSource(13))
	input := make([]byte, 200000)

	for i := range input {
		input[i] = byte(rnd.Intn(24) + 'a')
	}

	entropies := []string{"NONE", "HUFFMAN", "ANS0", "ANS1", "RANGE", "FPAQ", "CM", "TPAQ"}
	chains := []string{"NONE", "BWT+MTFT+ZRLT", "BWTS+RANK", "LZ", "ROLZ", "RLT"}

	for _, e := range entropies {
		for _, c := range chains {
			assertRoundTrip(t, input, roundTripParams(e, c, 65536, 32, 2))
		}
	}
}

func TestOriginalSizeHeader(t *testing.T) {
	input := []byte(strings.Repeat("sizing matters ", 512))
	p := roundTripParams("HUFFMAN", "LZ", 4096, 0, 1)
	p.OriginalSize = int64(len(input))
	compressed := compressBytes(t, input, p)

	cis, err := NewCompressedInputStream(util.NewBufferStream(compressed), &Params{Jobs: 1})

	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer

	if _, err := stdio.Copy(&out, cis); err != nil {
		t.Fatal(err)
	}

	cis.Close()

	if !bytes.Equal(out.Bytes(), input) {
		t.Fatal("round trip with original size failed")
	}
}

func TestHeaderlessRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("no header here ", 1024))
	p := roundTripParams("ANS0", "BWT+MTFT+ZRLT", 8192, 32, 2)
	p.Headerless = true
	compressed := compressBytes(t, input, p)

	// The decoder must be told everything the header would have said.
	dp := roundTripParams("ANS0", "BWT+MTFT+ZRLT", 8192, 32, 2)
	dp.Headerless = true
	decoded, err := decompressBytes(t, compressed, dp)

	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(decoded, input) {
		t.Fatal("headerless round trip failed")
	}
}

func TestHeaderCRCDetectsCorruption(t *testing.T) {
	input := []byte(strings.Repeat("checksummed ", 256))
	compressed := compressBytes(t, input, roundTripParams("HUFFMAN", "BWT+MTFT+ZRLT", 2048, 0, 1))

	// The stored CRC lives in the last 3 of the 20 header bytes.
	corrupted := append([]byte(nil), compressed...)
	corrupted[18] ^= 0x40

	_, err := decompressBytes(t, corrupted, &Params{Jobs: 1})
	ioErr, ok := err.(*kanzi.IOError)

	if !ok || ioErr.ErrorCode() != kanzi.ERR_CRC_CHECK {
		t.Fatalf("corrupted header CRC: got %v", err)
	}

	// A flip inside the transform chain field must be caught too.
	corrupted = append([]byte(nil), compressed...)
	corrupted[6] ^= 0x01

	if _, err := decompressBytes(t, corrupted, &Params{Jobs: 1}); err == nil {
		t.Fatal("corrupted header field not detected")
	}
}

func TestBlockChecksumDetectsCorruption(t *testing.T) {
	input := []byte(strings.Repeat("to be or not to be, that is the question. ", 128))
	compressed := compressBytes(t, input, roundTripParams("NONE", "BWT", 2048, 32, 1))

	corrupted := append([]byte(nil), compressed...)
	corrupted[len(corrupted)/2] ^= 0x10

	decoded, err := decompressBytes(t, corrupted, &Params{Jobs: 1})

	if err == nil && bytes.Equal(decoded, input) {
		t.Fatal("corruption silently ignored")
	}

	if err == nil {
		t.Fatal("corrupted payload decoded without error")
	}
}

func TestBlockRangeDecoding(t *testing.T) {
	blockSize := 1024
	input := make([]byte, 3*blockSize)

	for i := range input {
		input[i] = byte('a' + (i/blockSize)*3 + i%7)
	}

	compressed := compressBytes(t, input, roundTripParams("NONE", "NONE", uint32(blockSize), 0, 1))

	decoded, err := decompressBytes(t, compressed, &Params{Jobs: 1, From: 2, To: 3})

	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(decoded, input[blockSize:2*blockSize]) {
		t.Fatalf("block range decode returned %d bytes", len(decoded))
	}
}

func TestInvalidParameters(t *testing.T) {
	sink := util.NewBufferStream(nil)

	cases := []*Params{
		{EntropyName: "HUFFMAN", TransformChain: "NONE", BlockSize: 512, Jobs: 1},          // too small
		{EntropyName: "HUFFMAN", TransformChain: "NONE", BlockSize: 1000, Jobs: 1},         // not multiple of 16
		{EntropyName: "HUFFMAN", TransformChain: "NONE", BlockSize: 1 << 31, Jobs: 1},      // too large
		{EntropyName: "HUFFMAN", TransformChain: "NONE", BlockSize: 4096, Jobs: 0},         // no jobs
		{EntropyName: "HUFFMAN", TransformChain: "NONE", BlockSize: 4096, Jobs: 65},        // too many jobs
		{EntropyName: "WAT", TransformChain: "NONE", BlockSize: 4096, Jobs: 1},             // bad entropy
		{EntropyName: "HUFFMAN", TransformChain: "NOPE+BWT", BlockSize: 4096, Jobs: 1},     // bad transform
		{EntropyName: "HUFFMAN", TransformChain: "NONE", BlockSize: 4096, Jobs: 1, ChecksumSize: 16}, // bad checksum
	}

	for i, p := range cases {
		p.OriginalSize = -1

		if _, err := NewCompressedOutputStream(sink, p); err == nil {
			t.Fatalf("case %d: invalid parameters accepted", i)
		}
	}
}

func TestWriteAfterClose(t *testing.T) {
	sink := util.NewBufferStream(make([]byte, 0, 1024))
	cos, err := NewCompressedOutputStream(sink, roundTripParams("NONE", "NONE", 1024, 0, 1))

	if err != nil {
		t.Fatal(err)
	}

	if err := cos.Close(); err != nil {
		t.Fatal(err)
	}

	// Double close is a no-op.
	if err := cos.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if _, err := cos.Write([]byte("late")); err == nil {
		t.Fatal("write after close accepted")
	}
}

func TestReadAfterClose(t *testing.T) {
	compressed := compressBytes(t, []byte("short"), roundTripParams("NONE", "NONE", 1024, 0, 1))
	cis, err := NewCompressedInputStream(util.NewBufferStream(compressed), &Params{Jobs: 1})

	if err != nil {
		t.Fatal(err)
	}

	cis.Close()

	if _, err := cis.Read(make([]byte, 8)); err == nil {
		t.Fatal("read after close accepted")
	}
}

func TestBadMagic(t *testing.T) {
	compressed := compressBytes(t, []byte("payload"), roundTripParams("NONE", "NONE", 1024, 0, 1))
	compressed[0] ^= 0xFF

	_, err := decompressBytes(t, compressed, &Params{Jobs: 1})
	ioErr, ok := err.(*kanzi.IOError)

	if !ok || ioErr.ErrorCode() != kanzi.ERR_INVALID_FILE {
		t.Fatalf("bad magic: got %v", err)
	}
}
