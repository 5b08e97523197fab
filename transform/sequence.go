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

	kanzi "github.com/corewave/kanzi"
)

// Sequence composes up to 8 registry transforms, applying them in
// order on Forward and in reverse order on Inverse. Each stage that
// refuses (Forward returns an error) or would overrun its declared
// MaxEncodedLen is skipped: its output is an identity copy of its
// input and its bit is set in the per-block skip mask, exactly as
// spec.md section 4.6 requires. Decode must be handed the same mask
// it was encoded with; it never re-derives it.
type Sequence struct {
	ids       []uint64
	params    *Params
	stages    []kanzi.ByteTransform
	skipFlags byte
	// scratch holds one intermediate buffer per stage boundary so
	// Forward/Inverse don't need to size a single shared buffer for
	// the worst-case expansion of every stage at once.
	scratch [][]byte
}

// NewSequence builds a stage for every non-padding id in chain (see
// transform.Stages), in the order they appear in the packed field.
func NewSequence(chain uint64, p *Params) (*Sequence, error) {
	ids := Stages(chain)

	if len(ids) == 0 {
		ids = []uint64{NoneType}
	}

	if len(ids) > 8 {
		return nil, errors.New("sequence: chain has more than 8 stages")
	}

	stages := make([]kanzi.ByteTransform, len(ids))

	for i, id := range ids {
		t, err := one(id, p)

		if err != nil {
			return nil, err
		}

		stages[i] = t
	}

	return &Sequence{ids: ids, params: p, stages: stages}, nil
}

// MaxEncodedLen returns the worst case across every stage applied in
// turn, since each stage's output feeds the next stage's input.
func (s *Sequence) MaxEncodedLen(srcLen int) int {
	n := srcLen

	for _, st := range s.stages {
		m := st.MaxEncodedLen(n)

		if m > n {
			n = m
		}
	}

	// Small fixed safety margin for the identity fallback of a stage
	// that refuses after a prior stage already expanded the data.
	return n + 16
}

// SkipFlags returns the mask computed by the most recent Forward call,
// one bit per stage (bit i set means stage i was bypassed), MSB-first
// over len(s.ids) stages.
func (s *Sequence) SkipFlags() byte { return s.skipFlags }

// SetSkipFlags primes the mask Inverse must honor; the decoder reads
// this off the frame and must call it before Inverse.
func (s *Sequence) SetSkipFlags(flags byte) { s.skipFlags = flags }

// Len returns the number of stages actually in this sequence (after
// padding removal), used by the pipeline to decide whether the 4- or
// 8-stage skip-flag encoding applies.
func (s *Sequence) Len() int { return len(s.stages) }

func (s *Sequence) Forward(src, dst []byte) (uint, uint, error) {
	s.skipFlags = 0
	cur := src
	owned := false

	for i, st := range s.stages {
		bit := byte(1) << uint(7-i)
		need := st.MaxEncodedLen(len(cur))
		var out []byte

		if i == len(s.stages)-1 {
			out = dst
		} else {
			out = make([]byte, need)
		}

		if len(out) < need {
			// Caller's final dst might be short if a middle stage
			// expanded past the sequence-level estimate; skip rather
			// than overrun.
			s.skipFlags |= bit
			cur = append([]byte(nil), cur...)
			owned = true
			continue
		}

		_, n, err := st.Forward(cur, out)

		if err != nil {
			// Refused: identity copy into out, flag the stage skipped.
			s.skipFlags |= bit
			c := copy(out, cur)
			cur = out[:c]
			owned = true
			continue
		}

		cur = out[:n]
		owned = true
	}

	if !owned {
		// Zero-stage degenerate case: straight copy.
		n := copy(dst, src)
		return uint(len(src)), uint(n), nil
	}

	if len(cur) == 0 {
		return uint(len(src)), 0, nil
	}

	if &cur[0] != &dst[0] {
		n := copy(dst, cur)
		return uint(len(src)), uint(n), nil
	}

	return uint(len(src)), uint(len(cur)), nil
}

func (s *Sequence) Inverse(src, dst []byte) (uint, uint, error) {
	cur := src

	for i := len(s.stages) - 1; i >= 0; i-- {
		st := s.stages[i]
		bit := byte(1) << uint(7-i)
		var out []byte

		if i == 0 {
			out = dst
		} else {
			// An intermediate stage can restore up to the full block
			// length (think a zero-run stage fed by the stages before
			// it), so size scratch on the final output, not the
			// current compressed view.
			need := len(dst) + 64

			if n := 3*len(cur) + 64; n > need {
				need = n
			}

			out = make([]byte, need)
		}

		if s.skipFlags&bit != 0 {
			c := copy(out, cur)
			cur = out[:c]
			continue
		}

		_, n, err := st.Inverse(cur, out)

		if err != nil {
			return 0, 0, err
		}

		cur = out[:n]
	}

	if len(cur) > 0 && &cur[0] != &dst[0] {
		copy(dst, cur)
	}

	return uint(len(src)), uint(len(cur)), nil
}
