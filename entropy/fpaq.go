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

const (
	fpaqPscale = 4096
	fpaqRate   = 6
)

// FPAQPredictor is an order-1 binary predictor, partitioned four ways
// by the top two bits of the previous byte. Within a byte, context
// walks a binary tree (indices 1..255) so each bit position gets its
// own adaptive probability. Plugs into BinaryEncoder/BinaryDecoder.
type FPAQPredictor struct {
	probs  [4][256]int
	ctx    int
	ctxIdx int
}

// NewFPAQPredictor creates a new FPAQPredictor with all probabilities
// initialized to the midpoint.
func NewFPAQPredictor() *FPAQPredictor {
	this := &FPAQPredictor{ctx: 1}

	for i := 0; i < 4; i++ {
		for j := 0; j < 256; j++ {
			this.probs[i][j] = fpaqPscale >> 1
		}
	}

	return this
}

// Get returns the probability of the next bit being 1, in [0..4095].
func (this *FPAQPredictor) Get() int {
	return this.probs[this.ctxIdx][this.ctx]
}

// Update adapts the current context's probability and advances the
// within-byte tree position, resetting to a new 4-way partition once
// a full byte has been consumed.
func (this *FPAQPredictor) Update(bit byte) {
	p := &this.probs[this.ctxIdx][this.ctx]

	if bit == 0 {
		*p -= *p >> fpaqRate
		this.ctx += this.ctx
	} else {
		*p -= (*p - fpaqPscale + 32) >> fpaqRate
		this.ctx += this.ctx + 1
	}

	if this.ctx >= 256 {
		this.ctxIdx = (this.ctx >> 6) & 3
		this.ctx = 1
	}
}
