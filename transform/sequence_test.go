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
	"bytes"
	"strings"
	"testing"
)

func TestParseChainRoundTrip(t *testing.T) {
	specs := []string{"NONE", "BWT", "TEXT+BWT+RANK+ZRLT", "LZ", "RLT+ZRLT", "BWTS+MTFT+ZRLT"}

	for _, spec := range specs {
		packed, err := ParseChain(spec)

		if err != nil {
			t.Fatalf("ParseChain(%q): %v", spec, err)
		}

		name, err := ChainName(packed)

		if err != nil {
			t.Fatalf("ChainName(%#x): %v", packed, err)
		}

		if name != spec {
			t.Fatalf("chain %q round-tripped to %q", spec, name)
		}
	}
}

func TestParseChainRejectsUnknown(t *testing.T) {
	if _, err := ParseChain("BWT+NOPE"); err == nil {
		t.Fatal("accepted unknown transform name")
	}

	if _, err := ParseChain("LZ+LZ+LZ+LZ+LZ+LZ+LZ+LZ+LZ"); err == nil {
		t.Fatal("accepted 9-stage chain")
	}
}

func TestChainPacking(t *testing.T) {
	// A single stage occupies the most significant 6 bits of the
	// 48-bit field, padded on the right with NONE.
	packed, err := ParseChain("BWT")

	if err != nil {
		t.Fatal(err)
	}

	if packed != BWTType<<42 {
		t.Fatalf("BWT packed to %#x, want %#x", packed, BWTType<<42)
	}

	ids := Stages(packed)

	if len(ids) != 1 || ids[0] != BWTType {
		t.Fatalf("Stages(%#x) = %v", packed, ids)
	}
}

func TestSequenceRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("the cat sat on the mat and that was that. ", 200))

	for _, spec := range []string{"BWT+RANK+ZRLT", "TEXT+BWT+MTFT+ZRLT", "LZ", "RLT+ZRLT", "NONE"} {
		chain, err := ParseChain(spec)

		if err != nil {
			t.Fatal(err)
		}

		seq, err := NewSequence(chain, &Params{})

		if err != nil {
			t.Fatal(err)
		}

		encoded := make([]byte, seq.MaxEncodedLen(len(input)))
		_, n, err := seq.Forward(input, encoded)

		if err != nil {
			t.Fatalf("sequence %s: %v", spec, err)
		}

		inv, err := NewSequence(chain, &Params{})

		if err != nil {
			t.Fatal(err)
		}

		inv.SetSkipFlags(seq.SkipFlags())
		decoded := make([]byte, len(input)+16)
		_, m, err := inv.Inverse(encoded[:n], decoded)

		if err != nil {
			t.Fatalf("sequence %s inverse: %v", spec, err)
		}

		if int(m) != len(input) || !bytes.Equal(decoded[:m], input) {
			t.Fatalf("sequence %s: round trip mismatch", spec)
		}
	}
}

func TestSequenceSkipsRefusingStage(t *testing.T) {
	// Dense non-zero data: ZRLT must refuse and be skipped, while the
	// rest of the chain still round-trips.
	input := make([]byte, 4096)

	for i := range input {
		input[i] = byte(1 + i%200)
	}

	chain, err := ParseChain("ZRLT+MTFT")

	if err != nil {
		t.Fatal(err)
	}

	seq, err := NewSequence(chain, &Params{})

	if err != nil {
		t.Fatal(err)
	}

	encoded := make([]byte, seq.MaxEncodedLen(len(input)))
	_, n, err := seq.Forward(input, encoded)

	if err != nil {
		t.Fatal(err)
	}

	if seq.SkipFlags()&0x80 == 0 {
		t.Fatal("ZRLT stage was not flagged as skipped")
	}

	inv, _ := NewSequence(chain, &Params{})
	inv.SetSkipFlags(seq.SkipFlags())
	decoded := make([]byte, len(input)+16)
	_, m, err := inv.Inverse(encoded[:n], decoded)

	if err != nil {
		t.Fatal(err)
	}

	if int(m) != len(input) || !bytes.Equal(decoded[:m], input) {
		t.Fatal("skip-flagged sequence did not round trip")
	}
}
