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

package entropy

import kcore "github.com/corewave/kanzi/internal/kcore"

// AdaptiveProbMap refines a probability using a secondary context: a
// small table of learned corrections indexed by (quantized stretched
// prediction, context). Get returns the value of a single bucket; it
// does not interpolate between neighbouring buckets. TPAQ uses one of
// these to sharpen its mixer output.
type AdaptiveProbMap struct {
	index int
	rate  uint
	data  []uint16
}

// NewAdaptiveProbMap creates a map with n contexts, each covering the
// full [0..4095] prediction range quantized into 32 buckets.
func NewAdaptiveProbMap(n uint, rate uint) *AdaptiveProbMap {
	this := &AdaptiveProbMap{rate: rate}
	size := n * 32

	if size == 0 {
		size = 32
	}

	this.data = make([]uint16, size)

	for j := 0; j < 32; j++ {
		this.data[j] = uint16(kcore.SquashOf((j-16)<<7) << 4)
	}

	for i := uint(1); i < n; i++ {
		copy(this.data[i*32:], this.data[0:32])
	}

	return this
}

// Get returns the refined probability for ctx given the previous bit
// and the mixer's raw prediction pr, both in [0..4095].
func (this *AdaptiveProbMap) Get(bit int, pr int, ctx int) int {
	g := 0

	if bit != 0 {
		g = 65528 + (1 << this.rate)
	}

	this.data[this.index] += uint16((g - int(this.data[this.index])) >> this.rate)
	this.index = ((kcore.Stretch[pr] + 2048) >> 7) + 32*ctx
	return int(this.data[this.index]) >> 4
}
