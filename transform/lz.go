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
	lzHashLog    = 17
	lzHashMul    = 2654435761
	lzMinMatch   = 4
	lzMaxChainLn = 64
)

func lzHash(v uint32) uint32 { return (v * lzHashMul) >> (32 - lzHashLog) }

// LZ is a classic greedy LZ77 matcher: a hash chain over 4-byte
// prefixes drives the search for the longest recent match, and the
// output is a sequence of (literal-run, match-length, match-distance)
// tokens, each field varint coded.
//
// LZX shares the same engine with a minimum match length two bytes
// larger, registered as a distinct transform ID but not a distinct
// type. Both search the whole block; the extWindow flag does not
// change the search.
type LZ struct {
	minMatch  int
	extWindow bool
}

func NewLZ() (*LZ, error)  { return &LZ{minMatch: lzMinMatch}, nil }
func NewLZX() (*LZ, error) { return &LZ{minMatch: lzMinMatch + 2, extWindow: true}, nil }

func (t *LZ) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/2 + 16 }

func (t *LZ) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < 16 {
		return 0, 0, errors.New("LZ: input too small")
	}

	head := make([]int32, 1<<lzHashLog)
	prev := make([]int32, n)

	for i := range head {
		head[i] = -1
	}

	d := 0
	litStart := 0
	i := 0

	flush := func(end int) error {
		runLen := end - litStart

		var buf [5]byte
		enc := util.WriteVarInt(buf[:0], uint32(runLen))

		if d+len(enc)+runLen > len(dst) {
			return errors.New("LZ: output buffer too small")
		}

		copy(dst[d:], enc)
		d += len(enc)
		copy(dst[d:], src[litStart:end])
		d += runLen
		return nil
	}

	for i+4 <= n {
		h := lzHash(binary.LittleEndian.Uint32(src[i:]))
		cand := head[h]
		bestLen, bestPos := 0, -1
		chain := 0

		for cand >= 0 && chain < lzMaxChainLn {
			maxLen := n - i

			l := 0

			for l < maxLen && src[int(cand)+l] == src[i+l] {
				l++
			}

			if l > bestLen {
				bestLen, bestPos = l, int(cand)
			}

			cand = prev[cand]
			chain++
		}

		if bestLen >= t.minMatch {
			if err := flush(i); err != nil {
				return 0, 0, err
			}

			matchLen := bestLen - t.minMatch
			dist := i - bestPos

			var lbuf, dbuf [5]byte
			lenc := util.WriteVarInt(lbuf[:0], uint32(matchLen))
			denc := util.WriteVarInt(dbuf[:0], uint32(dist))

			if d+len(lenc)+len(denc) > len(dst) {
				return 0, 0, errors.New("LZ: output buffer too small")
			}

			copy(dst[d:], lenc)
			d += len(lenc)
			copy(dst[d:], denc)
			d += len(denc)

			end := i + bestLen

			for ; i < end && i+4 <= n; i++ {
				h2 := lzHash(binary.LittleEndian.Uint32(src[i:]))
				prev[i] = head[h2]
				head[h2] = int32(i)
			}

			i = end
			litStart = i
			continue
		}

		prev[i] = head[h]
		head[h] = int32(i)
		i++
	}

	// The token stream always ends on a (possibly empty) literal run,
	// so the decoder is driven purely by src exhaustion.
	if err := flush(n); err != nil {
		return 0, 0, err
	}

	if d >= n {
		return 0, 0, errors.New("LZ: no gain")
	}

	return uint(n), uint(d), nil
}

func (t *LZ) Inverse(src, dst []byte) (uint, uint, error) {
	s, d := 0, 0

	for s < len(src) {
		runLen, n, err := util.ReadVarInt(src, s)

		if err != nil {
			return 0, 0, err
		}

		s += n

		if s+int(runLen) > len(src) || d+int(runLen) > len(dst) {
			return 0, 0, errors.New("LZ: truncated literal run")
		}

		copy(dst[d:d+int(runLen)], src[s:s+int(runLen)])
		s += int(runLen)
		d += int(runLen)

		if s >= len(src) {
			break
		}

		matchLen, n2, err := util.ReadVarInt(src, s)

		if err != nil {
			return 0, 0, err
		}

		s += n2
		dist, n3, err := util.ReadVarInt(src, s)

		if err != nil {
			return 0, 0, err
		}

		s += n3
		length := int(matchLen) + t.minMatch
		from := d - int(dist)

		if from < 0 || int(dist) == 0 {
			return 0, 0, errors.New("LZ: invalid back-reference")
		}

		if d+length > len(dst) {
			return 0, 0, errors.New("LZ: match overruns output")
		}

		for k := 0; k < length; k++ {
			dst[d+k] = dst[from+k]
		}

		d += length
	}

	return uint(s), uint(d), nil
}
