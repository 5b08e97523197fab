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

// Package entropy implements the block's entropy stage: a null
// passthrough, canonical Huffman, order-0/1 range-ANS, and an adaptive
// binary arithmetic coder fronted by the FPAQ/CM/TPAQ predictors. All
// of them are re-initialized at every block; nothing survives across
// block boundaries.
package entropy

import (
	"fmt"
	"sort"

	kanzi "github.com/corewave/kanzi"
)

// IncompressibleThreshold1024 is the order-0 entropy (scaled by 1024)
// above which a block is treated as already incompressible.
const IncompressibleThreshold1024 = 973

const (
	fullAlphabet    = 0
	partialAlphabet = 1
	alphabet256     = 0
	alphabet0       = 1
)

// EncodeAlphabet writes the (sorted, distinct) symbol set in alphabet
// to obs and returns the number of symbols written. cap(alphabet) must
// be a power of two up to 256: callers size the backing array to the
// chunk's maximum possible alphabet and slice it down to len(alphabet)
// symbols actually present.
func EncodeAlphabet(obs kanzi.OutputBitStream, alphabet []int) (int, error) {
	size := cap(alphabet)
	count := len(alphabet)

	if size&(size-1) != 0 {
		return 0, fmt.Errorf("alphabet capacity must be a power of 2, got %v", size)
	}

	if size > 256 {
		return 0, fmt.Errorf("max alphabet size is 256, got %v", size)
	}

	switch count {
	case 0:
		obs.WriteBit(fullAlphabet)
		obs.WriteBit(alphabet0)
	case 256:
		obs.WriteBit(fullAlphabet)
		obs.WriteBit(alphabet256)
	default:
		obs.WriteBit(partialAlphabet)
		var masks [32]byte

		for _, s := range alphabet {
			masks[s>>3] |= 1 << uint(s&7)
		}

		lastMask := alphabet[count-1] >> 3
		obs.WriteBits(uint64(lastMask), 5)
		obs.WriteArray(masks[:], 8*uint(lastMask+1))
	}

	return count, nil
}

// DecodeAlphabet reads the symbol set written by EncodeAlphabet,
// filling alphabet in increasing order and returning its size.
func DecodeAlphabet(ibs kanzi.InputBitStream, alphabet []int) (int, error) {
	if ibs.ReadBit() == fullAlphabet {
		if ibs.ReadBit() == alphabet0 {
			return 0, nil
		}

		if len(alphabet) < 256 {
			return 256, fmt.Errorf("invalid bitstream: alphabet buffer too small for 256 symbols")
		}

		for i := 0; i < 256; i++ {
			alphabet[i] = i
		}

		return 256, nil
	}

	lastMask := int(ibs.ReadBits(5))
	var masks [32]byte
	ibs.ReadArray(masks[:], 8*uint(lastMask+1))
	count := 0

	for i := 0; i <= lastMask; i++ {
		base := i * 8

		for j := 0; j < 8; j++ {
			if (masks[i]>>uint(j))&1 == 1 {
				alphabet[count] = base + j
				count++
			}
		}
	}

	return count, nil
}

type freqEntry struct {
	freq   *int
	symbol int
}

type byDecreasingFreq []*freqEntry

func (s byDecreasingFreq) Len() int      { return len(s) }
func (s byDecreasingFreq) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byDecreasingFreq) Less(i, j int) bool {
	if *s[j].freq == *s[i].freq {
		return s[j].symbol < s[i].symbol
	}

	return *s[j].freq < *s[i].freq
}

// NormalizeFrequencies rescales freqs so the frequencies of the
// symbols present sum exactly to scale, filling alphabet with the
// symbols present (in increasing order) and returning its size.
func NormalizeFrequencies(freqs []int, alphabet []int, totalFreq, scale int) (int, error) {
	if len(alphabet) > 256 {
		return 0, fmt.Errorf("invalid alphabet size: %v (must be <= 256)", len(alphabet))
	}

	if scale < 256 || scale > 65536 {
		return 0, fmt.Errorf("invalid scale: %v (must be in [256..65536])", scale)
	}

	if len(alphabet) == 0 || totalFreq == 0 {
		return 0, nil
	}

	if totalFreq == scale {
		size := 0

		for i := 0; i < len(freqs); i++ {
			if freqs[i] != 0 {
				alphabet[size] = i
				size++
			}
		}

		return size, nil
	}

	size := 0
	sumScaled := 0
	idxMax := 0

	for i := range alphabet {
		alphabet[i] = 0
		f := freqs[i]

		if f == 0 {
			continue
		}

		sf := int64(f) * int64(scale)
		var scaled int

		if sf <= int64(totalFreq) {
			scaled = 1
		} else {
			scaled = int(sf / int64(totalFreq))
			errCeil := int64(scaled+1)*int64(totalFreq) - sf
			errFloor := sf - int64(scaled)*int64(totalFreq)

			if errCeil < errFloor {
				scaled++
			}
		}

		alphabet[size] = i
		size++
		sumScaled += scaled
		freqs[i] = scaled

		if scaled > freqs[idxMax] {
			idxMax = i
		}
	}

	if size == 0 {
		return 0, nil
	}

	if size == 1 {
		freqs[alphabet[0]] = scale
		return 1, nil
	}

	if sumScaled != scale {
		delta := sumScaled - scale
		errThr := freqs[idxMax] >> 4
		var inc, absDelta int

		if delta < 0 {
			absDelta, inc = -delta, 1
		} else {
			absDelta, inc = delta, -1
		}

		if absDelta <= errThr {
			freqs[idxMax] -= delta
			return size, nil
		}

		if delta < 0 {
			freqs[idxMax] += errThr
			sumScaled += errThr
		} else {
			freqs[idxMax] -= errThr
			sumScaled -= errThr
		}

		queue := make(byDecreasingFreq, 0, size)

		for i := 0; i < size; i++ {
			if freqs[alphabet[i]] <= 2 {
				continue
			}

			queue = append(queue, &freqEntry{freq: &freqs[alphabet[i]], symbol: alphabet[i]})
		}

		sort.Sort(queue)

		for len(queue) != 0 {
			fe := queue[0]
			queue = queue[1:]

			if *fe.freq == -inc {
				continue
			}

			*fe.freq += inc
			sumScaled += inc
			queue = append(queue, fe)

			if sumScaled == scale {
				break
			}
		}

		if sumScaled != scale {
			for i := 0; i < size; i++ {
				if freqs[alphabet[i]] != -inc {
					freqs[alphabet[i]] += inc
					sumScaled += inc

					if sumScaled == scale {
						break
					}
				}
			}
		}
	}

	return size, nil
}

// WriteVarInt writes value as a base-128 varint directly to the bit
// stream and returns the number of bytes emitted.
func WriteVarInt(bs kanzi.OutputBitStream, value uint32) int {
	n := 0

	for value >= 128 {
		bs.WriteBits(uint64(0x80|(value&0x7F)), 8)
		value >>= 7
		n++
	}

	bs.WriteBits(uint64(value), 8)
	return n + 1
}

// ReadVarInt reads a varint written by WriteVarInt, up to 4 bytes.
func ReadVarInt(bs kanzi.InputBitStream) uint32 {
	value := uint32(bs.ReadBits(8))

	if value < 128 {
		return value
	}

	res := value & 0x7F
	value = uint32(bs.ReadBits(8))
	res |= (value & 0x7F) << 7

	if value >= 128 {
		value = uint32(bs.ReadBits(8))
		res |= (value & 0x7F) << 14

		if value >= 128 {
			value = uint32(bs.ReadBits(8))
			res |= (value & 0x7F) << 21
		}
	}

	return res
}
