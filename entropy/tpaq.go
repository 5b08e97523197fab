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

const (
	tpaqBeginLearnRate = int32(60 << 7)
	tpaqEndLearnRate   = int32(11 << 7)
	tpaqCtx2Size       = 1 << 16
	tpaqCtx3Size       = 1 << 18
)

// tpaqMixer combines several stretched probabilities with an adaptive
// logistic dot product, the way a single-layer perceptron would: one
// weight per input model, updated towards whichever model predicted
// the actual bit.
type tpaqMixer struct {
	w         [4]int32
	p         [4]int32
	pr        int
	skew      int32
	learnRate int32
}

func newTPAQMixer() *tpaqMixer {
	this := &tpaqMixer{pr: 2048, learnRate: tpaqBeginLearnRate}

	for i := range this.w {
		this.w[i] = 32768
	}

	return this
}

func (this *tpaqMixer) get(p0, p1, p2, p3 int32) int {
	this.p[0], this.p[1], this.p[2], this.p[3] = p0, p1, p2, p3
	dot := this.w[0]*p0 + this.w[1]*p1 + this.w[2]*p2 + this.w[3]*p3
	this.pr = kcore.SquashOf(int((dot + this.skew + 65536) >> 17))
	return this.pr
}

func (this *tpaqMixer) update(bit int) {
	err := (int32((bit<<12)-this.pr) * this.learnRate) >> 10

	if err == 0 {
		return
	}

	if this.learnRate > tpaqEndLearnRate {
		this.learnRate--
	}

	this.skew += err

	for i := range this.w {
		this.w[i] += (this.p[i]*err + 0) >> 12
	}
}

// TPAQPredictor mixes order-0, order-1 and two hashed higher-order
// byte contexts through a logistic mixer, then refines the mixed
// prediction with an adaptive probability map keyed by the previous
// byte. This keeps TPAQ's two-stage mix-then-refine
// shape while dropping its 252-state bit-history automaton and match
// model in favor of direct adaptive counters.
type TPAQPredictor struct {
	ctx      int32
	c1, c2   byte
	hist     uint32
	counter0 [256]int32
	counter1 [256][256]int32
	counter2 []int32
	counter3 []int32
	mixer    *tpaqMixer
	apm      *AdaptiveProbMap
	pr       int
}

// NewTPAQPredictor creates a new TPAQPredictor with all counters
// initialized to the midpoint.
func NewTPAQPredictor() *TPAQPredictor {
	this := &TPAQPredictor{
		ctx:      1,
		counter2: make([]int32, tpaqCtx2Size),
		counter3: make([]int32, tpaqCtx3Size),
		mixer:    newTPAQMixer(),
		apm:      NewAdaptiveProbMap(256, 7),
		pr:       2048,
	}

	for i := range this.counter0 {
		this.counter0[i] = 2048
	}

	for i := range this.counter1 {
		for j := range this.counter1[i] {
			this.counter1[i][j] = 2048
		}
	}

	for i := range this.counter2 {
		this.counter2[i] = 2048
	}

	for i := range this.counter3 {
		this.counter3[i] = 2048
	}

	return this
}

func tpaqHash(x, y uint32) uint32 {
	h := x*0x9E3779B1 + y*0x85EBCA77
	return h ^ (h >> 15)
}

func (this *TPAQPredictor) idx2() uint32 {
	return tpaqHash(this.hist&0xFFFF, uint32(this.ctx)) & (tpaqCtx2Size - 1)
}

func (this *TPAQPredictor) idx3() uint32 {
	return tpaqHash(this.hist, uint32(this.ctx)) & (tpaqCtx3Size - 1)
}

// Get returns the refined probability of the next bit being 1, in [0..4095].
func (this *TPAQPredictor) Get() int {
	p0 := int32(this.counter0[this.ctx])
	p1 := int32(this.counter1[this.c1][this.ctx])
	p2 := this.counter2[this.idx2()]
	p3 := this.counter3[this.idx3()]

	mixed := this.mixer.get(
		int32(kcore.Stretch[p0]),
		int32(kcore.Stretch[p1]),
		int32(kcore.Stretch[p2]),
		int32(kcore.Stretch[p3]),
	)

	this.pr = (this.apm.Get(0, mixed, int(this.c1)) + mixed + 1) >> 1
	return this.pr
}

// Update adapts every counter consulted by Get, the mixer weights and
// the APM, then advances the within-byte context.
func (this *TPAQPredictor) Update(bit byte) {
	b := int(bit)
	adapt(&this.counter0[this.ctx], bit, 6)
	adapt(&this.counter1[this.c1][this.ctx], bit, 6)
	adapt(&this.counter2[this.idx2()], bit, 6)
	adapt(&this.counter3[this.idx3()], bit, 6)
	this.mixer.update(b)
	this.apm.Get(b, this.pr, int(this.c1))

	if bit == 0 {
		this.ctx += this.ctx
	} else {
		this.ctx += this.ctx + 1
	}

	if this.ctx >= 256 {
		this.hist = (this.hist << 8) | uint32(this.ctx)
		this.c2 = this.c1
		this.c1 = byte(this.ctx)
		this.ctx = 1
	}
}

func adapt(p *int32, bit byte, rate uint) {
	if bit == 0 {
		*p -= *p >> rate
	} else {
		*p += (4095 - *p) >> rate
	}
}
