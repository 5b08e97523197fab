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
	"fmt"
	"sort"

	kanzi "github.com/corewave/kanzi"
	kcore "github.com/corewave/kanzi/internal/kcore"
)

const (
	hufMinChunkSize = 1024
	hufMaxChunkSize = 1 << 14
	hufMaxCodeLen   = 12
)

// computeInPlaceLengths runs the Moffat-Katajainen in-place
// minimum-redundancy algorithm on freqs (sorted ascending) and
// overwrites it with code lengths, returning the longest one.
//
// See "In-Place Calculation of Minimum-Redundancy Codes" by Alistair
// Moffat and Jyrki Katajainen.
func computeInPlaceLengths(freqs []int) int {
	n := len(freqs)

	if n < 2 {
		return 0
	}

	for s, r, t := 0, 0, 0; t < n-1; t++ {
		sum := 0

		for i := 0; i < 2; i++ {
			if s >= n || (r < t && freqs[r] < freqs[s]) {
				sum += freqs[r]
				freqs[r] = t
				r++
				continue
			}

			sum += freqs[s]

			if s > t {
				freqs[s] = 0
			}

			s++
		}

		freqs[t] = sum
	}

	levelTop := n - 2
	depth := 1
	i := n
	totalNodesAtLevel := 2

	for i > 0 {
		k := levelTop

		for k > 0 && freqs[k-1] >= levelTop {
			k--
		}

		internalNodesAtLevel := levelTop - k
		leavesAtLevel := totalNodesAtLevel - internalNodesAtLevel

		for j := 0; j < leavesAtLevel; j++ {
			i--
			freqs[i] = depth
		}

		totalNodesAtLevel = internalNodesAtLevel << 1
		levelTop = k
		depth++
	}

	return depth - 1
}

// generateCanonicalCodes sorts symbols in place by (length, symbol),
// then assigns each symbol the lexicographically smallest code
// consistent with the Kraft equality at its length.
func generateCanonicalCodes(sizes []byte, codes []uint16, symbols []int) error {
	if len(symbols) == 0 {
		return nil
	}

	sort.Slice(symbols, func(i, j int) bool {
		if sizes[symbols[i]] != sizes[symbols[j]] {
			return sizes[symbols[i]] < sizes[symbols[j]]
		}

		return symbols[i] < symbols[j]
	})

	code := uint16(0)
	curLen := sizes[symbols[0]]

	for _, s := range symbols {
		if sizes[s] > curLen {
			code <<= sizes[s] - curLen
			curLen = sizes[s]
		}

		codes[s] = code
		code++
	}

	return nil
}

// HuffmanEncoder is a static, per-chunk canonical Huffman encoder: for
// every chunkSize-byte chunk it rebuilds a length-limited code from
// the chunk's own histogram and writes the lengths (delta exp-Golomb
// coded) ahead of the bits.
type HuffmanEncoder struct {
	bs        kanzi.OutputBitStream
	codes     [256]uint16
	sizes     [256]byte
	chunkSize int
}

func NewHuffmanEncoder(bs kanzi.OutputBitStream, chunkSize uint) (*HuffmanEncoder, error) {
	if bs == nil {
		return nil, errors.New("huffman codec: nil bitstream")
	}

	if chunkSize == 0 {
		chunkSize = hufMaxChunkSize
	}

	if chunkSize < hufMinChunkSize || chunkSize > hufMaxChunkSize {
		return nil, fmt.Errorf("huffman codec: chunk size must be in [%d..%d]", hufMinChunkSize, hufMaxChunkSize)
	}

	return &HuffmanEncoder{bs: bs, chunkSize: int(chunkSize)}, nil
}

func (e *HuffmanEncoder) updateFrequencies(freqs []int) (int, error) {
	count := 0
	var alphabet [256]int

	for i := 0; i < 256; i++ {
		e.codes[i] = 0
		e.sizes[i] = 0

		if freqs[i] > 0 {
			alphabet[count] = i
			count++
		}
	}

	symbols := alphabet[0:count]

	if _, err := EncodeAlphabet(e.bs, symbols); err != nil {
		return count, err
	}

	if count == 0 {
		return 0, nil
	}

	if count == 1 {
		e.sizes[symbols[0]] = 1
		e.codes[symbols[0]] = 0
		return 1, nil
	}

	retries := 0

	for {
		sorted := make([]int, count)
		copy(sorted, symbols)
		sort.Slice(sorted, func(i, j int) bool { return freqs[sorted[i]] < freqs[sorted[j]] })
		lens := make([]int, count)

		for i, s := range sorted {
			lens[i] = freqs[s]
		}

		maxLen := computeInPlaceLengths(lens)

		if maxLen <= hufMaxCodeLen {
			for i, s := range sorted {
				e.sizes[s] = byte(lens[i])
			}

			break
		}

		if retries > 2 {
			return count, fmt.Errorf("huffman codec: max code length (%d bits) exceeded", hufMaxCodeLen)
		}

		retries++
		var f, alpha [256]int
		total := 0

		for i, s := range symbols {
			f[i] = freqs[s]
			total += f[i]
		}

		if _, err := NormalizeFrequencies(f[:count], alpha[:count], total, hufMaxChunkSize>>(retries+1)); err != nil {
			return count, err
		}

		for i, s := range symbols {
			freqs[s] = f[i]
		}
	}

	// Sort a copy: the lengths below go out in increasing symbol order,
	// the order in which the decoder reads the alphabet back.
	ordered := make([]int, count)
	copy(ordered, symbols)

	if err := generateCanonicalCodes(e.sizes[:], e.codes[:], ordered); err != nil {
		return count, err
	}

	egenc, err := NewExpGolombEncoder(e.bs, true)

	if err != nil {
		return count, err
	}

	prevSize := byte(2)

	for _, s := range symbols {
		curSize := e.sizes[s]
		egenc.EncodeByte(curSize - prevSize)
		prevSize = curSize
	}

	egenc.Dispose()
	return count, nil
}

// Write rebuilds and transmits a fresh code for every chunkSize-byte
// chunk, then writes the chunk's canonical codes symbol by symbol.
func (e *HuffmanEncoder) Write(block []byte) (int, error) {
	if len(block) == 0 {
		return 0, nil
	}

	end := len(block)
	start := 0

	for start < end {
		chunkEnd := start + e.chunkSize

		if chunkEnd > end {
			chunkEnd = end
		}

		var freqs [256]int
		kcore.Histogram(block[start:chunkEnd], freqs[:], true, false)
		count, err := e.updateFrequencies(freqs[:])

		if err != nil {
			return start, err
		}

		if count > 1 {
			for _, b := range block[start:chunkEnd] {
				e.bs.WriteBits(uint64(e.codes[b]), uint(e.sizes[b]))
			}
		}

		start = chunkEnd
	}

	return len(block), nil
}

func (e *HuffmanEncoder) BitStream() kanzi.OutputBitStream { return e.bs }
func (e *HuffmanEncoder) Dispose()                         {}

// HuffmanDecoder mirrors HuffmanEncoder. It decodes canonical codes
// bit by bit: the symbols are grouped by code length, and within a
// length the code is an offset into that group.
type HuffmanDecoder struct {
	bs        kanzi.InputBitStream
	alphabet  [256]int
	sizes     [256]byte
	chunkSize int

	firstCode  [hufMaxCodeLen + 1]int
	firstIndex [hufMaxCodeLen + 1]int
	count      [hufMaxCodeLen + 1]int
	byLength   [256]int
	symCount   int
}

func NewHuffmanDecoder(bs kanzi.InputBitStream, chunkSize uint) (*HuffmanDecoder, error) {
	if bs == nil {
		return nil, errors.New("huffman codec: nil bitstream")
	}

	if chunkSize == 0 {
		chunkSize = hufMaxChunkSize
	}

	if chunkSize < hufMinChunkSize || chunkSize > hufMaxChunkSize {
		return nil, fmt.Errorf("huffman codec: chunk size must be in [%d..%d]", hufMinChunkSize, hufMaxChunkSize)
	}

	return &HuffmanDecoder{bs: bs, chunkSize: int(chunkSize)}, nil
}

func (d *HuffmanDecoder) readLengths() (int, error) {
	count, err := DecodeAlphabet(d.bs, d.alphabet[:])

	if count == 0 || err != nil {
		return count, err
	}

	symbols := d.alphabet[0:count]

	if count == 1 {
		// The encoder transmits no lengths for a one-symbol alphabet.
		d.sizes[symbols[0]] = 1
		d.buildLengthIndex(symbols)
		return count, nil
	}

	egdec, err := NewExpGolombDecoder(d.bs, true)

	if err != nil {
		return 0, err
	}

	curSize := int8(2)

	for _, s := range symbols {
		curSize += int8(egdec.DecodeByte())

		if curSize <= 0 || curSize > hufMaxCodeLen {
			return 0, fmt.Errorf("invalid bitstream: bad huffman code length %d", curSize)
		}

		d.sizes[s] = byte(curSize)
	}

	egdec.Dispose()
	d.buildLengthIndex(symbols)
	return count, nil
}

func (d *HuffmanDecoder) buildLengthIndex(symbols []int) {
	for i := range d.count {
		d.count[i] = 0
	}

	for _, s := range symbols {
		d.count[d.sizes[s]]++
	}

	sort.Slice(symbols, func(i, j int) bool {
		if d.sizes[symbols[i]] != d.sizes[symbols[j]] {
			return d.sizes[symbols[i]] < d.sizes[symbols[j]]
		}

		return symbols[i] < symbols[j]
	})

	copy(d.byLength[:], symbols)
	d.symCount = len(symbols)

	idx := 0
	code := 0

	for length := 1; length <= hufMaxCodeLen; length++ {
		d.firstCode[length] = code
		d.firstIndex[length] = idx
		idx += d.count[length]
		code = (code + d.count[length]) << 1
	}
}

func (d *HuffmanDecoder) decodeSymbol() int {
	if d.symCount == 1 {
		return d.byLength[0]
	}

	code := 0

	for length := 1; length <= hufMaxCodeLen; length++ {
		code = (code << 1) | d.bs.ReadBit()

		if idx := code - d.firstCode[length]; idx >= 0 && idx < d.count[length] {
			return d.byLength[d.firstIndex[length]+idx]
		}
	}

	return 0
}

// Read decodes len(block) symbols, rereading the per-chunk code table
// as the encoder transmitted it.
func (d *HuffmanDecoder) Read(block []byte) (int, error) {
	if len(block) == 0 {
		return 0, nil
	}

	end := len(block)
	start := 0

	for start < end {
		chunkEnd := start + d.chunkSize

		if chunkEnd > end {
			chunkEnd = end
		}

		count, err := d.readLengths()

		if err != nil {
			return start, err
		}

		if count == 0 {
			start = chunkEnd
			continue
		}

		if count == 1 {
			sym := byte(d.alphabet[0])

			for i := start; i < chunkEnd; i++ {
				block[i] = sym
			}
		} else {
			for i := start; i < chunkEnd; i++ {
				block[i] = byte(d.decodeSymbol())
			}
		}

		start = chunkEnd
	}

	return len(block), nil
}

func (d *HuffmanDecoder) BitStream() kanzi.InputBitStream { return d.bs }
func (d *HuffmanDecoder) Dispose()                        {}
