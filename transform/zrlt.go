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

	util "github.com/corewave/kanzi/util"
)

// ZRLT run-length codes runs of zero bytes only: every run of n>=1
// zeros is replaced by a 0x00 marker followed by varint(n), and every
// non-zero byte b in [1..254] is shifted to b+1 to keep the 0x00 byte
// value reserved as the run marker. A literal value of 255 cannot be
// represented and forces a refusal.
type ZRLT struct{}

func NewZRLT() (*ZRLT, error) { return &ZRLT{}, nil }

func (t *ZRLT) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/4 + 16 }

func (t *ZRLT) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n == 0 {
		return 0, 0, nil
	}

	d := 0
	i := 0

	for i < n {
		if src[i] == 0 {
			run := 1

			for i+run < n && src[i+run] == 0 {
				run++
			}

			var buf [5]byte
			enc := util.WriteVarInt(buf[:0], uint32(run))

			if d+1+len(enc) > len(dst) {
				return 0, 0, errors.New("ZRLT: output buffer too small")
			}

			dst[d] = 0
			d++
			copy(dst[d:], enc)
			d += len(enc)
			i += run
			continue
		}

		if src[i] == 0xff {
			return 0, 0, errors.New("ZRLT: value 0xff not representable")
		}

		if d >= len(dst) {
			return 0, 0, errors.New("ZRLT: output buffer too small")
		}

		dst[d] = src[i] + 1
		d++
		i++
	}

	if d >= n {
		return 0, 0, errors.New("ZRLT: no gain")
	}

	return uint(n), uint(d), nil
}

func (t *ZRLT) Inverse(src, dst []byte) (uint, uint, error) {
	s, d := 0, 0

	for s < len(src) {
		if src[s] != 0 {
			dst[d] = src[s] - 1
			d++
			s++
			continue
		}

		v, n, err := util.ReadVarInt(src, s+1)

		if err != nil {
			return 0, 0, err
		}

		s += 1 + n

		for k := uint32(0); k < v; k++ {
			dst[d] = 0
			d++
		}
	}

	return uint(len(src)), uint(d), nil
}
