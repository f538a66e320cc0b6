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

package filter

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
)

var typesizes = []int{1, 2, 4, 7, 8, 12, 13, 16, 24}

func TestShuffleRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, ts := range typesizes {
		for _, n := range []int{0, ts, ts*37 + 3, 65536} {
			src := make([]byte, n)
			rng.Read(src)

			dst := make([]byte, n)

			if err := ShuffleForward(src, dst, ts); err != nil {
				t.Fatalf("typesize=%d n=%d: %v", ts, n, err)
			}

			back := make([]byte, n)

			if err := ShuffleInverse(dst, back, ts); err != nil {
				t.Fatalf("typesize=%d n=%d inverse: %v", ts, n, err)
			}

			if !bytes.Equal(src, back) {
				t.Fatalf("typesize=%d n=%d: round trip mismatch", ts, n)
			}
		}
	}
}

func TestShuffleKnownLayout(t *testing.T) {
	// 3 elements of 4 bytes each: [A0 A1 A2 A3][B0 B1 B2 B3][C0 C1 C2 C3]
	// shuffles to [A0 B0 C0][A1 B1 C1][A2 B2 C2][A3 B3 C3].
	src := []byte{
		'A', 0, 1, 2,
		'B', 10, 11, 12,
		'C', 20, 21, 22,
	}
	want := []byte{
		'A', 'B', 'C',
		0, 10, 20,
		1, 11, 21,
		2, 12, 22,
	}
	dst := make([]byte, len(src))

	if err := ShuffleForward(src, dst, 4); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v, want %v", dst, want)
	}
}

func TestBitshuffleRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for _, ts := range typesizes {
		group := 8 * ts

		for _, n := range []int{0, group, group*5 + ts*3, group*17 + 1} {
			src := make([]byte, n)
			rng.Read(src)

			dst := make([]byte, n)

			if err := BitshuffleForward(src, dst, ts); err != nil {
				t.Fatalf("typesize=%d n=%d: %v", ts, n, err)
			}

			back := make([]byte, n)

			if err := BitshuffleInverse(dst, back, ts); err != nil {
				t.Fatalf("typesize=%d n=%d inverse: %v", ts, n, err)
			}

			if !bytes.Equal(src, back) {
				t.Fatalf("typesize=%d n=%d: round trip mismatch", ts, n)
			}
		}
	}
}

func TestDeltaRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ref := make([]byte, 4096)
	rng.Read(ref)

	src := make([]byte, 4096)
	rng.Read(src)

	dst := make([]byte, len(src))

	if err := DeltaForward(src, ref, dst); err != nil {
		t.Fatal(err)
	}

	back := make([]byte, len(src))

	if err := DeltaInverse(dst, ref, back); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(src, back) {
		t.Fatal("delta round trip mismatch")
	}
}

func TestTruncPrecTolerance(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := 10000
	src := make([]byte, n*8)

	for i := 0; i < n; i++ {
		x := rng.Float64()*100 - 50
		binary.LittleEndian.PutUint64(src[i*8:], math.Float64bits(x))
	}

	dst := make([]byte, len(src))

	if err := TruncPrecForward(src, dst, 8, 23); err != nil {
		t.Fatal(err)
	}

	back := make([]byte, len(src))

	if err := TruncPrecInverse(dst, back); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		orig := math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:]))
		got := math.Float64frombits(binary.LittleEndian.Uint64(back[i*8:]))

		if diff := math.Abs(orig - got); diff >= 1e-5 {
			t.Fatalf("element %d: |%v - %v| = %v >= 1e-5", i, orig, got, diff)
		}
	}
}

func TestTruncPrecRejectsBadMeta(t *testing.T) {
	src := make([]byte, 64)
	dst := make([]byte, 64)

	if err := TruncPrecForward(src, dst, 8, 52); err == nil {
		t.Fatal("expected error for meta >= mantissa width")
	}

	if err := TruncPrecForward(src, dst, 3, 4); err == nil {
		t.Fatal("expected error for unsupported typesize")
	}
}
