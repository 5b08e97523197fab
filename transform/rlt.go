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
	"errors"

	kcore "github.com/corewave/kanzi/internal/kcore"
	util "github.com/corewave/kanzi/util"
)

const rltRunThreshold = 3

// RLT run-length codes arbitrary runs of 4 or more identical bytes.
// The byte value used as escape is picked as the block's least
// frequent byte (possibly absent entirely), so a literal occurrence of
// it in the input is unambiguous: it is always followed by a run
// length of 0.
type RLT struct{}

func NewRLT() (*RLT, error) { return &RLT{}, nil }

func (t *RLT) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/2 + 16 }

func leastFrequentByte(freqs []int) byte {
	best, bestCount := 0, freqs[0]

	for i := 1; i < 256; i++ {
		if freqs[i] < bestCount {
			best, bestCount = i, freqs[i]
		}
	}

	return byte(best)
}

func (t *RLT) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n == 0 {
		return 0, 0, nil
	}

	var freqs [256]int
	kcore.Histogram(src, freqs[:], true, false)
	escape := leastFrequentByte(freqs[:])

	dst[0] = escape
	d := 1
	i := 0

	for i < n {
		cur := src[i]
		run := 1

		for i+run < n && src[i+run] == cur && run < 0x7fffffff {
			run++
		}

		if cur == escape {
			for k := 0; k < run; k++ {
				if d+1 >= len(dst) {
					return 0, 0, errors.New("RLT: output buffer too small")
				}

				dst[d] = escape
				dst[d+1] = 0
				d += 2
			}

			i += run
			continue
		}

		if run <= rltRunThreshold {
			for k := 0; k < run; k++ {
				if d >= len(dst) {
					return 0, 0, errors.New("RLT: output buffer too small")
				}

				dst[d] = cur
				d++
			}

			i += run
			continue
		}

		if d+2+5 > len(dst) {
			return 0, 0, errors.New("RLT: output buffer too small")
		}

		dst[d] = cur
		dst[d+1] = escape
		d += 2
		var buf [5]byte
		enc := util.WriteVarInt(buf[:0], uint32(run-rltRunThreshold))
		copy(dst[d:], enc)
		d += len(enc)
		i += run
	}

	if d >= n {
		return 0, 0, errors.New("RLT: no gain")
	}

	return uint(n), uint(d), nil
}

func (t *RLT) Inverse(src, dst []byte) (uint, uint, error) {
	if len(src) == 0 {
		return 0, 0, nil
	}

	escape := src[0]
	s, d := 1, 0

	for s < len(src) {
		cur := src[s]
		s++

		if cur != escape {
			dst[d] = cur
			d++
			continue
		}

		if s >= len(src) {
			return 0, 0, errors.New("RLT: truncated escape sequence")
		}

		if s < len(src) {
			v, n, err := util.ReadVarInt(src, s)

			if err != nil {
				return 0, 0, err
			}

			if v == 0 {
				dst[d] = escape
				d++
				s += n
				continue
			}

			// The literal preceding the escape already carries the
			// run's first byte.
			run := int(v) + rltRunThreshold - 1
			s += n

			if d == 0 {
				return 0, 0, errors.New("RLT: run with no preceding literal")
			}

			prev := dst[d-1]

			for k := 0; k < run; k++ {
				dst[d] = prev
				d++
			}
		}
	}

	return uint(len(src)), uint(d), nil
}
