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
)

var fsdDistances = [5]int{1, 2, 3, 4, 8}

const (
	fsdModeDelta = byte(0)
	fsdModeXOR   = byte(1)

	// fsdEscape is zigzag(-128), which the delta path never produces
	// because deltas are capped to [-127..127]: anything outside that
	// range goes through the escape, keeping the marker unambiguous
	// without taxing the common zero delta.
	fsdEscape = byte(0xFF)
)

// FSD (fixed-step delta) targets multimedia sample streams: it tries
// XOR-ing and subtracting each byte against the one fsdDistances[k]
// positions back, keeps whichever distance yields the lowest order-0
// entropy on a sample, then picks delta-with-escape encoding over
// plain XOR based on how many resulting values would need the 8-bit
// escape (i.e. how many deltas overflow a signed byte once
// zigzag-mapped). Registered under the "MM" (multimedia) registry
// name per spec.md's table.
type FSD struct{}

func NewFSD() (*FSD, error) { return &FSD{}, nil }

func (t *FSD) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/8 + 16 }

func zigzag(d int8) byte {
	v := int32(d)
	return byte((v << 1) ^ (v >> 31))
}

func unzigzag(b byte) int8 {
	v := int32(b)
	return int8((v >> 1) ^ -(v & 1))
}

func fsdSampleEntropy(src []byte, dist int, xor bool) int {
	var histo [256]int
	n := len(src)
	sample := n

	if sample > 4096 {
		sample = 4096
	}

	for i := dist; i < sample; i++ {
		var v byte

		if xor {
			v = src[i] ^ src[i-dist]
		} else {
			v = src[i] - src[i-dist]
		}

		histo[v]++
	}

	return kcore.Entropy1024(sample-dist, histo[:])
}

func (t *FSD) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < 256 {
		return 0, 0, errors.New("FSD: input too small")
	}

	bestEntropyDelta, bestEntropyXOR := 1<<30, 1<<30
	bestDelta, bestXOR := 0, 0

	for _, dist := range fsdDistances {
		if dist >= n {
			continue
		}

		eDelta := fsdSampleEntropy(src, dist, false)
		eXOR := fsdSampleEntropy(src, dist, true)

		if eDelta < bestEntropyDelta {
			bestEntropyDelta, bestDelta = eDelta, dist
		}

		if eXOR < bestEntropyXOR {
			bestEntropyXOR, bestXOR = eXOR, dist
		}
	}

	if bestDelta == 0 && bestXOR == 0 {
		return 0, 0, errors.New("FSD: no usable distance")
	}

	useDelta := bestEntropyDelta <= bestEntropyXOR
	dist := bestDelta

	if !useDelta {
		dist = bestXOR
	}

	if dist == 0 || dist >= n {
		return 0, 0, errors.New("FSD: no usable distance")
	}

	// The transform never shortens the block; its payoff is a lower
	// order-0 entropy for the coder behind it, so that is what gates
	// acceptance.
	sample := n

	if sample > 4096 {
		sample = 4096
	}

	var rawHisto [256]int
	kcore.Histogram(src[0:sample], rawHisto[:], true, false)
	rawEntropy := kcore.Entropy1024(sample, rawHisto[:])
	best := bestEntropyDelta

	if !useDelta {
		best = bestEntropyXOR
	}

	if best >= rawEntropy-rawEntropy/10 {
		return 0, 0, errors.New("FSD: no gain")
	}

	// Count how many positions would need the escape (delta overflow
	// once zigzag-mapped into an int8); XOR never overflows, so it
	// wins outright whenever the overflow rate is high.
	overflow := 0

	if useDelta {
		for i := dist; i < n; i++ {
			d := int(src[i]) - int(src[i-dist])

			if d > 127 || d < -127 {
				overflow++
			}
		}

		if overflow > n/16 {
			useDelta = false
			dist = bestXOR

			if dist == 0 {
				return 0, 0, errors.New("FSD: no usable distance")
			}
		}
	}

	mode := fsdModeXOR

	if useDelta {
		mode = fsdModeDelta
	}

	if len(dst) < 2+dist {
		return 0, 0, errors.New("FSD: output buffer too small")
	}

	dst[0] = mode
	dst[1] = byte(dist)
	copy(dst[2:2+dist], src[0:dist])
	d := 2 + dist

	for i := dist; i < n; i++ {
		if mode == fsdModeXOR {
			v := src[i] ^ src[i-dist]

			if d >= len(dst) {
				return 0, 0, errors.New("FSD: output buffer too small")
			}

			dst[d] = v
			d++
			continue
		}

		delta := int(src[i]) - int(src[i-dist])

		if delta > 127 || delta < -127 {
			if d+2 > len(dst) {
				return 0, 0, errors.New("FSD: output buffer too small")
			}

			dst[d] = fsdEscape
			dst[d+1] = src[i]
			d += 2
			continue
		}

		if d >= len(dst) {
			return 0, 0, errors.New("FSD: output buffer too small")
		}

		dst[d] = zigzag(int8(delta))
		d++
	}

	return uint(n), uint(d), nil
}

func (t *FSD) Inverse(src, dst []byte) (uint, uint, error) {
	if len(src) < 2 {
		return 0, 0, errors.New("FSD: truncated header")
	}

	mode := src[0]
	dist := int(src[1])

	if dist == 0 || 2+dist > len(src) {
		return 0, 0, errors.New("FSD: invalid distance")
	}

	copy(dst[0:dist], src[2:2+dist])
	s, d := 2+dist, dist

	for s < len(src) {
		if d >= len(dst) {
			return 0, 0, errors.New("FSD: output buffer too small")
		}

		if mode == fsdModeXOR {
			dst[d] = src[s] ^ dst[d-dist]
			s++
			d++
			continue
		}

		if src[s] == fsdEscape {
			if s+1 >= len(src) {
				return 0, 0, errors.New("FSD: truncated escape")
			}

			dst[d] = src[s+1]
			s += 2
			d++
			continue
		}

		delta := int(unzigzag(src[s]))
		dst[d] = byte(int(dst[d-dist]) + delta)
		s++
		d++
	}

	return uint(s), uint(d), nil
}
