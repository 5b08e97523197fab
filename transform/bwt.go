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
	"encoding/binary"
	"errors"
	"sort"
)

const bwtMaxBlockSize = 1024 * 1024 * 1024

// getBWTChunks returns how many independently-indexed chunks a block
// of n bytes is split into. Splitting keeps each chunk's primary index
// (and the cost of the inverse transform's linear scan) small;
// from 1<<22 bytes up the block is cut into up to 4 equal chunks.
func getBWTChunks(n int) int {
	if n < 1<<22 {
		return 1
	}

	chunks := 1 + (n >> 22)

	if chunks > 4 {
		chunks = 4
	}

	return chunks
}

// BWT is the Burrows-Wheeler Transform: the block is sorted by its
// cyclic rotations, the transform output is the last column of the
// sorted rotation matrix, and a primary index records which row held
// the unrotated block so the inverse can recover it.
type BWT struct{}

func NewBWT() (*BWT, error) { return &BWT{}, nil }

func (t *BWT) MaxEncodedLen(srcLen int) int { return srcLen + 4*getBWTChunks(srcLen) }

func bwtForwardChunk(src, dst []byte) (uint32, error) {
	n := len(src)

	if n == 0 {
		return 0, nil
	}

	if n > bwtMaxBlockSize {
		return 0, errors.New("BWT: block too large")
	}

	sa := make([]int, n)

	for i := range sa {
		sa[i] = i
	}

	sort.Slice(sa, func(a, b int) bool {
		i, j := sa[a], sa[b]

		for k := 0; k < n; k++ {
			ci := src[(i+k)%n]
			cj := src[(j+k)%n]

			if ci != cj {
				return ci < cj
			}
		}

		return false
	})

	primary := -1

	for row, start := range sa {
		dst[row] = src[(start+n-1)%n]

		if start == 0 {
			primary = row
		}
	}

	return uint32(primary), nil
}

func bwtInverseChunk(src []byte, primary uint32, dst []byte) error {
	n := len(src)

	if n == 0 {
		return nil
	}

	if int(primary) >= n {
		return errors.New("BWT: invalid primary index")
	}

	// Standard LF-mapping inverse: count[c] is the number of bytes in
	// src strictly less than c, so count[b]+seen[b] gives each row's
	// rank among equal-byte rows in sorted (first-column) order.
	var count [257]int

	for _, b := range src {
		count[b+1]++
	}

	for i := 0; i < 256; i++ {
		count[i+1] += count[i]
	}

	next := make([]int, n)
	var seen [256]int

	for i, b := range src {
		next[count[b]+seen[b]] = i
		seen[b]++
	}

	// next is the successor permutation: following it from the
	// primary row visits the rotations in text order, and each row's
	// last-column byte is the text character at that position.
	row := next[primary]

	for i := 0; i < n; i++ {
		dst[i] = src[row]
		row = next[row]
	}

	return nil
}

func (t *BWT) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n == 0 {
		return 0, 0, nil
	}

	chunks := getBWTChunks(n)
	base := 4 * chunks
	step := (n + chunks - 1) / chunks
	d := base

	for c := 0; c < chunks; c++ {
		lo := c * step
		hi := lo + step

		if hi > n {
			hi = n
		}

		if lo >= hi {
			binary.BigEndian.PutUint32(dst[c*4:], 0)
			continue
		}

		primary, err := bwtForwardChunk(src[lo:hi], dst[d:d+(hi-lo)])

		if err != nil {
			return 0, 0, err
		}

		binary.BigEndian.PutUint32(dst[c*4:], primary)
		d += hi - lo
	}

	return uint(n), uint(d), nil
}

func (t *BWT) Inverse(src, dst []byte) (uint, uint, error) {
	if len(src) == 0 {
		return 0, 0, nil
	}

	// src holds the block plus one 4-byte primary index per chunk; dst
	// may be longer than the block, so the length comes from src.
	n := -1

	for c := 1; c <= 4; c++ {
		if m := len(src) - 4*c; m > 0 && getBWTChunks(m) == c {
			n = m
		}
	}

	if n < 0 || n > len(dst) {
		return 0, 0, errors.New("BWT: invalid block length")
	}

	chunks := getBWTChunks(n)
	base := 4 * chunks
	step := (n + chunks - 1) / chunks
	s := base

	for c := 0; c < chunks; c++ {
		lo := c * step
		hi := lo + step

		if hi > n {
			hi = n
		}

		if lo >= hi {
			continue
		}

		primary := binary.BigEndian.Uint32(src[c*4:])

		if err := bwtInverseChunk(src[s:s+(hi-lo)], primary, dst[lo:hi]); err != nil {
			return 0, 0, err
		}

		s += hi - lo
	}

	return uint(len(src)), uint(n), nil
}
