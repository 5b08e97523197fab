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

	util "github.com/corewave/kanzi/util"
)

const (
	lzpHashLog  = 16
	lzpMinMatch = 8
)

func lzpHash(v uint32) uint32 { return (v * lzHashMul) >> (32 - lzpHashLog) }

// LZP (LZ-Predict) keeps one predicted continuation position per
// context hash instead of a full match search: at every position it
// asks "what came after the last time these four bytes were seen?"
// and, if the guess extends at least lzpMinMatch bytes, emits a
// 0xff flag byte and a match length instead of the literal bytes.
// The table is updated unconditionally, matched or not, so encoder
// and decoder stay in lockstep without transmitting any offsets.
type LZP struct{}

func NewLZP() (*LZP, error) { return &LZP{}, nil }

func (t *LZP) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/8 + 16 }

func (t *LZP) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < 32 {
		return 0, 0, errors.New("LZP: input too small")
	}

	table := make([]int32, 1<<lzpHashLog)

	for i := range table {
		table[i] = -1
	}

	d := 0
	i := 4
	copy(dst[0:4], src[0:4])
	d = 4

	// A literal 0xff is always escaped as (0xff, 0), whether or not a
	// prediction existed at that position: the decoder cannot tell the
	// two apart otherwise. Match lengths are sent as length-min+1 so a
	// following varint of 0 stays reserved for the escape.
	emitLiteral := func(b byte) error {
		if b == 0xff {
			if d+2 > len(dst) {
				return errors.New("LZP: output buffer too small")
			}

			dst[d] = 0xff
			dst[d+1] = 0
			d += 2
			return nil
		}

		if d >= len(dst) {
			return errors.New("LZP: output buffer too small")
		}

		dst[d] = b
		d++
		return nil
	}

	for i < n {
		if i+4 > n {
			if err := emitLiteral(src[i]); err != nil {
				return 0, 0, err
			}

			i++
			continue
		}

		h := lzpHash(binary.LittleEndian.Uint32(src[i-4:]))
		pred := table[h]
		table[h] = int32(i)

		if pred >= 0 {
			p := int(pred)
			maxLen := n - i
			l := 0

			for l < maxLen && src[p+l] == src[i+l] {
				l++
			}

			if l >= lzpMinMatch {
				dst[d] = 0xff
				d++
				var buf [5]byte
				enc := util.WriteVarInt(buf[:0], uint32(l-lzpMinMatch)+1)

				if d+len(enc) > len(dst) {
					return 0, 0, errors.New("LZP: output buffer too small")
				}

				copy(dst[d:], enc)
				d += len(enc)
				i += l
				continue
			}
		}

		if err := emitLiteral(src[i]); err != nil {
			return 0, 0, err
		}

		i++
	}

	if d >= n {
		return 0, 0, errors.New("LZP: no gain")
	}

	return uint(n), uint(d), nil
}

func (t *LZP) Inverse(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < 4 {
		return 0, 0, errors.New("LZP: truncated input")
	}

	table := make([]int32, 1<<lzpHashLog)

	for i := range table {
		table[i] = -1
	}

	copy(dst[0:4], src[0:4])
	d := 4
	s := 4

	for s < n {
		h := lzpHash(binary.LittleEndian.Uint32(dst[d-4:]))
		pred := table[h]
		table[h] = int32(d)

		if src[s] != 0xff {
			dst[d] = src[s]
			d++
			s++
			continue
		}

		s++

		if s >= n {
			return 0, 0, errors.New("LZP: truncated escape")
		}

		if src[s] == 0 {
			dst[d] = 0xff
			d++
			s++
			continue
		}

		v, consumed, err := util.ReadVarInt(src, s)

		if err != nil {
			return 0, 0, err
		}

		if pred < 0 {
			return 0, 0, errors.New("LZP: match with no prediction")
		}

		s += consumed
		length := int(v) - 1 + lzpMinMatch
		p := int(pred)

		for k := 0; k < length; k++ {
			dst[d+k] = dst[p+k]
		}

		d += length
	}

	return uint(s), uint(d), nil
}
