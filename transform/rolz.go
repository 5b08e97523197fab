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

const (
	rolzLogPosChecks = 4
	rolzPosChecks    = 1 << rolzLogPosChecks // candidate positions tracked per context
	rolzContextLog   = 16
	rolzMinMatch     = 5
	rolzCtxLen       = 3
)

func rolzHashContext(a, b, c byte) uint32 {
	v := uint32(a) | uint32(b)<<8 | uint32(c)<<16
	return (v * lzHashMul) >> (32 - rolzContextLog)
}

// ROLZ (reduced-offset LZ) replaces a full-window back-reference with
// an index into a small per-context table of recently seen positions:
// the context is always the rolzCtxLen bytes immediately preceding the
// current position, so both encoder and decoder can compute it from
// bytes already produced. A match only needs to transmit which of the
// rolzPosChecks candidates for this context it is, not a raw distance.
// ROLZX is the same engine with the extended flag set, distinguished
// only for registry purposes (its literal byte stream is the one an
// entropy stage may model with extra context), the way SBRT folds
// MTFT/RANK/SRT into one engine.
type ROLZ struct {
	extended bool
}

func NewROLZ(extended bool) (*ROLZ, error) { return &ROLZ{extended: extended}, nil }

func (t *ROLZ) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/4 + 16 }

// ctxAt returns the hash of the rolzCtxLen bytes immediately before
// position i, or false if fewer than rolzCtxLen bytes precede it.
func ctxAt(buf []byte, i int) (uint32, bool) {
	if i < rolzCtxLen {
		return 0, false
	}

	return rolzHashContext(buf[i-3], buf[i-2], buf[i-1]), true
}

func (t *ROLZ) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < 32 {
		return 0, 0, errors.New("ROLZ: input too small")
	}

	table := make([][rolzPosChecks]int32, 1<<rolzContextLog)

	for i := range table {
		for k := range table[i] {
			table[i][k] = -1
		}
	}

	slot := make([]byte, 1<<rolzContextLog)
	d := 0
	i := 0

	for i < n {
		h, has := ctxAt(src, i)

		if !has {
			dst[d] = 0
			dst[d+1] = src[i]
			d += 2
			i++
			continue
		}

		bestLen, bestSlot := 0, 0

		for k := 0; k < rolzPosChecks; k++ {
			cand := table[h][k]

			if cand < 0 {
				continue
			}

			maxLen := n - i
			l := 0

			for l < maxLen && src[int(cand)+l] == src[i+l] {
				l++
			}

			if l > bestLen {
				bestLen, bestSlot = l, k
			}
		}

		if bestLen >= rolzMinMatch {
			if d+2+5 > len(dst) {
				return 0, 0, errors.New("ROLZ: output buffer too small")
			}

			dst[d] = 1
			dst[d+1] = byte(bestSlot)
			d += 2
			var buf [5]byte
			enc := util.WriteVarInt(buf[:0], uint32(bestLen-rolzMinMatch))
			copy(dst[d:], enc)
			d += len(enc)

			// Register every position covered by the match so later
			// lookups can reference mid-match starts too.
			for k := 0; k < bestLen && i+k < n; k++ {
				if hk, ok := ctxAt(src, i+k); ok {
					s := slot[hk]
					table[hk][s] = int32(i + k)
					slot[hk] = (s + 1) % rolzPosChecks
				}
			}

			i += bestLen
			continue
		}

		if d+2 > len(dst) {
			return 0, 0, errors.New("ROLZ: output buffer too small")
		}

		dst[d] = 0
		dst[d+1] = src[i]
		d += 2
		s := slot[h]
		table[h][s] = int32(i)
		slot[h] = (s + 1) % rolzPosChecks
		i++
	}

	if d >= n {
		return 0, 0, errors.New("ROLZ: no gain")
	}

	return uint(n), uint(d), nil
}

func (t *ROLZ) Inverse(src, dst []byte) (uint, uint, error) {
	table := make([][rolzPosChecks]int32, 1<<rolzContextLog)

	for i := range table {
		for k := range table[i] {
			table[i][k] = -1
		}
	}

	slot := make([]byte, 1<<rolzContextLog)
	s, d := 0, 0

	for s < len(src) {
		if s >= len(src) {
			return 0, 0, errors.New("ROLZ: truncated stream")
		}

		flag := src[s]
		s++

		if flag == 0 {
			if s >= len(src) {
				return 0, 0, errors.New("ROLZ: truncated literal")
			}

			if d >= len(dst) {
				return 0, 0, errors.New("ROLZ: output overflow")
			}

			dst[d] = src[s]
			s++

			if h, ok := ctxAt(dst, d); ok {
				sl := slot[h]
				table[h][sl] = int32(d)
				slot[h] = (sl + 1) % rolzPosChecks
			}

			d++
			continue
		}

		if s+1 > len(src) {
			return 0, 0, errors.New("ROLZ: truncated match")
		}

		slotIdx := src[s]
		s++
		matchLen, nb, err := util.ReadVarInt(src, s)

		if err != nil {
			return 0, 0, err
		}

		s += nb
		length := int(matchLen) + rolzMinMatch

		h, ok := ctxAt(dst, d)

		if !ok {
			return 0, 0, errors.New("ROLZ: match before any context")
		}

		from := table[h][slotIdx]

		if from < 0 || int(from) >= d {
			return 0, 0, errors.New("ROLZ: invalid table reference")
		}

		for k := 0; k < length; k++ {
			if d >= len(dst) {
				return 0, 0, errors.New("ROLZ: output overflow")
			}

			b := dst[int(from)+k]
			dst[d] = b

			if hk, ok := ctxAt(dst, d); ok {
				sl := slot[hk]
				table[hk][sl] = int32(d)
				slot[hk] = (sl + 1) % rolzPosChecks
			}

			d++
		}
	}

	return uint(len(src)), uint(d), nil
}
