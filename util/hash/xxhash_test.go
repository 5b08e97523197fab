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

package hash

import (
	"math/rand"
	"testing"
)

func TestSum32Stability(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	data := make([]byte, 10000)

	for i := range data {
		data[i] = byte(rnd.Intn(256))
	}

	first := Sum32(data, 0)

	// A pure function of input and seed, never of prior calls.
	Sum32([]byte("interleaved"), 0)

	if Sum32(data, 0) != first {
		t.Fatal("hash is not a pure function of its input")
	}

	if Sum32(data, 1) == first {
		t.Fatal("seed is ignored")
	}
}

func TestSum32Sensitivity(t *testing.T) {
	data := make([]byte, 4096)
	ref := Sum32(data, 0)

	for _, i := range []int{0, 1, 15, 16, 17, 4095} {
		data[i] ^= 0x01
		got := Sum32(data, 0)
		data[i] ^= 0x01

		if got == ref {
			t.Fatalf("flip at byte %d not detected", i)
		}
	}
}

func TestSum32Lengths(t *testing.T) {
	// Exercise every tail-handling path around the 16-byte stripe.
	data := make([]byte, 64)

	for i := range data {
		data[i] = byte(i * 7)
	}

	seen := make(map[uint32]int)

	for n := 0; n <= 64; n++ {
		v := Sum32(data[:n], 0)

		if prev, dup := seen[v]; dup {
			t.Fatalf("lengths %d and %d collide", prev, n)
		}

		seen[v] = n
	}
}

func TestSum64Stability(t *testing.T) {
	rnd := rand.New(rand.NewSource(23))
	data := make([]byte, 10000)

	for i := range data {
		data[i] = byte(rnd.Intn(256))
	}

	first := Sum64(data, 0)

	if Sum64(data, 0) != first {
		t.Fatal("hash is not a pure function of its input")
	}

	if Sum64(data, 42) == first {
		t.Fatal("seed is ignored")
	}

	if Sum64(data[:len(data)-1], 0) == first {
		t.Fatal("length is ignored")
	}
}

func TestSum64Lengths(t *testing.T) {
	data := make([]byte, 100)

	for i := range data {
		data[i] = byte(i)
	}

	seen := make(map[uint64]int)

	for n := 0; n <= 100; n++ {
		v := Sum64(data[:n], 0)

		if prev, dup := seen[v]; dup {
			t.Fatalf("lengths %d and %d collide", prev, n)
		}

		seen[v] = n
	}
}
