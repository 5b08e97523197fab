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

// dnaSymbols are the 3-bit-packable nucleotide letters. Code 7 is the
// escape marker, so only seven symbols fit: lowercase 't' (and any
// other byte outside this set) rides the escape path instead.
var dnaSymbols = []byte("ACGTacg")

var dnaCode = func() [256]int8 {
	var t [256]int8

	for i := range t {
		t[i] = -1
	}

	for i, b := range dnaSymbols {
		t[b] = int8(i)
	}

	return t
}()

// DNA packs the nucleotide alphabet into 3 bits per symbol, escaping
// any byte outside it so the transform still round-trips on files
// that are DNA-dominated but not pure.
type DNA struct{}

func NewDNA() (*DNA, error) { return &DNA{}, nil }

func (t *DNA) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/2 + 16 }

func (t *DNA) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < 256 {
		return 0, 0, errors.New("DNA: input too small")
	}

	matches := 0

	for _, b := range src {
		if dnaCode[b] >= 0 {
			matches++
		}
	}

	if matches < n-n/20 {
		return 0, 0, errors.New("DNA: not DNA-dominated")
	}

	d := 0
	i := 0
	var acc uint32
	bits := uint(0)

	flushBits := func() error {
		for bits >= 8 {
			if d >= len(dst) {
				return errors.New("DNA: output buffer too small")
			}

			bits -= 8
			dst[d] = byte(acc >> bits)
			d++
		}

		return nil
	}

	for i < n {
		b := src[i]
		code := dnaCode[b]

		if code < 0 {
			// Escape: marker code 7, then the literal's 8 bits,
			// both through the accumulator so the 3-bit stream
			// never loses alignment.
			acc = (acc << 3) | 0x7
			bits += 3

			if err := flushBits(); err != nil {
				return 0, 0, err
			}

			acc = (acc << 8) | uint32(b)
			bits += 8

			if err := flushBits(); err != nil {
				return 0, 0, err
			}

			i++
			continue
		}

		acc = (acc << 3) | uint32(code)
		bits += 3

		if err := flushBits(); err != nil {
			return 0, 0, err
		}

		i++
	}

	if bits > 0 {
		acc <<= (8 - bits)

		if d >= len(dst) {
			return 0, 0, errors.New("DNA: output buffer too small")
		}

		dst[d] = byte(acc)
		d++
	}

	var hdr [5]byte
	enc := util.WriteVarInt(hdr[:0], uint32(n))

	if d+len(enc) > len(dst) {
		return 0, 0, errors.New("DNA: output buffer too small")
	}

	copy(dst[len(enc):d+len(enc)], dst[0:d])
	copy(dst[0:], enc)
	d += len(enc)

	if d >= n {
		return 0, 0, errors.New("DNA: no gain")
	}

	return uint(n), uint(d), nil
}

func (t *DNA) Inverse(src, dst []byte) (uint, uint, error) {
	total, hn, err := util.ReadVarInt(src, 0)

	if err != nil {
		return 0, 0, err
	}

	s := hn
	d := 0
	var acc uint32
	bits := uint(0)
	target := int(total)

	for d < target {
		for bits < 3 {
			if s >= len(src) {
				return 0, 0, errors.New("DNA: truncated payload")
			}

			acc = (acc << 8) | uint32(src[s])
			s++
			bits += 8
		}

		code := (acc >> (bits - 3)) & 0x7
		bits -= 3

		if code == 0x7 {
			for bits < 8 {
				if s >= len(src) {
					return 0, 0, errors.New("DNA: truncated escape")
				}

				acc = (acc << 8) | uint32(src[s])
				s++
				bits += 8
			}

			dst[d] = byte(acc >> (bits - 8))
			bits -= 8
			d++
			continue
		}

		dst[d] = dnaSymbols[code]
		d++
	}

	return uint(s), uint(d), nil
}
