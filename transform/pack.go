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

// Package transform implements the reversible byte transforms that
// run ahead of entropy coding: BWT/BWTS, the LZ family, the
// sort-by-rank family (MTFT/RANK/SRT), run-length codecs, the text,
// UTF, fixed-step-delta, executable, alias and DNA codecs, and the
// sequence that composes up to eight of them with per-stage skip
// bits.
package transform

import (
	"errors"
	"fmt"

	kcore "github.com/corewave/kanzi/internal/kcore"
)

const packMinBlockLen = 32

// Pack replaces the most frequent 2-byte sequence of the block with a
// 1-byte alias chosen among the byte values the block never uses,
// when doing so shrinks the block.
type Pack struct{}

func NewPack() (*Pack, error) { return &Pack{}, nil }

func (t *Pack) MaxEncodedLen(srcLen int) int { return srcLen + 16 }

// Forward scans the byte histogram for a free byte value, counts the
// 2-byte sequences and replaces every occurrence of the winner with
// the alias. Refuses if no byte value is free or the saving would be
// negative.
func (t *Pack) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < packMinBlockLen {
		return 0, 0, errors.New("pack: input too small")
	}

	var freqs [256]int
	kcore.Histogram(src, freqs[:], true, false)

	free := -1

	for i := 255; i >= 0; i-- {
		if freqs[i] == 0 {
			free = i
			break
		}
	}

	if free < 0 {
		return 0, 0, errors.New("pack: no free byte value")
	}

	pairCount := make(map[uint16]int)
	maxCount, bestHi, bestLo := 0, -1, -1

	for i := 0; i < n-1; i++ {
		key := uint16(src[i])<<8 | uint16(src[i+1])
		pairCount[key]++

		if c := pairCount[key]; c > maxCount {
			maxCount, bestHi, bestLo = c, int(src[i]), int(src[i+1])
		}
	}

	if bestHi < 0 || maxCount < n/64 {
		return 0, 0, errors.New("pack: no profitable pair")
	}

	dst[0] = byte(free)
	dst[1] = byte(bestHi)
	dst[2] = byte(bestLo)
	d := 3
	i := 0

	// The alias byte is guaranteed absent from src, so it needs no
	// escaping in the output.
	for i < n {
		if i < n-1 && int(src[i]) == bestHi && int(src[i+1]) == bestLo {
			dst[d] = byte(free)
			d++
			i += 2
			continue
		}

		dst[d] = src[i]
		d++
		i++
	}

	if d >= n {
		return 0, 0, fmt.Errorf("pack: no gain (%d >= %d)", d, n)
	}

	return uint(n), uint(d), nil
}

func (t *Pack) Inverse(src, dst []byte) (uint, uint, error) {
	if len(src) < 3 {
		return 0, 0, errors.New("pack: truncated header")
	}

	free, hi, lo := src[0], src[1], src[2]
	s, d := 3, 0

	for s < len(src) {
		if src[s] == free {
			dst[d] = hi
			dst[d+1] = lo
			d += 2
			s++
			continue
		}

		dst[d] = src[s]
		d++
		s++
	}

	return uint(len(src)), uint(d), nil
}
