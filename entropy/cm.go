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
	cmFastRate   = 2
	cmMediumRate = 4
	cmSlowRate   = 6
	cmPscale     = 65536
)

// CMPredictor mixes an order-0 counter, an order-1 counter keyed by
// the previous byte, and a 16-bucket secondary estimation table keyed
// by a run-length flag, producing a single [0..4095] probability.
type CMPredictor struct {
	c1, c2  byte
	ctx     int32
	runMask int32
	// counter1 is indexed by within-byte tree position (1..255); each
	// entry holds 257 probabilities: 256 keyed by the previous byte
	// (c1) plus one order-0 slot at index 256.
	counter1 [256][257]int32
	// counter2 is a 17-bucket secondary estimation table, indexed by
	// tree position OR runMask, keyed by the order-0/1 mix bucket idx.
	counter2 [512][17]int32
	idx      int
}

// NewCMPredictor creates a new CMPredictor with counters initialized
// to their midpoints.
func NewCMPredictor() *CMPredictor {
	this := &CMPredictor{ctx: 1}

	for i := 0; i < 256; i++ {
		for j := 0; j <= 256; j++ {
			this.counter1[i][j] = cmPscale >> 1
		}

		for j := 0; j < 16; j++ {
			this.counter2[i+i][j] = int32(j << 12)
			this.counter2[i+i+1][j] = int32(j << 12)
		}

		this.counter2[i+i][16] = 65535
		this.counter2[i+i+1][16] = 65535
	}

	return this
}

// Get returns the mixed probability of the next bit being 1, in [0..4095].
func (this *CMPredictor) Get() int {
	pc2 := &this.counter2[this.ctx|this.runMask]
	pc1 := &this.counter1[this.ctx]
	p := int(13*(pc1[256]+pc1[this.c1])+6*pc1[this.c2]) >> 5
	this.idx = p >> 12
	x1 := int(pc2[this.idx])
	x2 := int(pc2[this.idx+1])
	return (p + p + 3*(x1+x2) + 64) >> 7
}

// Update adapts the order-0, order-1 and secondary estimation counters
// and advances the within-byte context, rolling c1/c2/runMask over
// once a full byte has been consumed.
func (this *CMPredictor) Update(bit byte) {
	pc2 := &this.counter2[this.ctx|this.runMask]
	pc1 := &this.counter1[this.ctx]

	if bit == 0 {
		pc1[256] -= pc1[256] >> cmFastRate
		pc1[this.c1] -= pc1[this.c1] >> cmMediumRate
		pc2[this.idx] -= pc2[this.idx] >> cmSlowRate
		pc2[this.idx+1] -= pc2[this.idx+1] >> cmSlowRate
		this.ctx += this.ctx
	} else {
		pc1[256] -= (pc1[256] - cmPscale + 16) >> cmFastRate
		pc1[this.c1] -= (pc1[this.c1] - cmPscale + 16) >> cmMediumRate
		pc2[this.idx] -= (pc2[this.idx] - cmPscale + 16) >> cmSlowRate
		pc2[this.idx+1] -= (pc2[this.idx+1] - cmPscale + 16) >> cmSlowRate
		this.ctx += this.ctx + 1
	}

	if this.ctx > 255 {
		this.c2 = this.c1
		this.c1 = byte(this.ctx)
		this.ctx = 1

		if this.c1 == this.c2 {
			this.runMask = 0x100
		} else {
			this.runMask = 0
		}
	}
}
