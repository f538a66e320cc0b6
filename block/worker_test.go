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

package block

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/chunkz-io/chunkz/codec"
	"github.com/chunkz-io/chunkz/filter"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reg := codec.NewRegistry()
	rng := rand.New(rand.NewSource(11))
	blocksize := 8192
	typesize := 8

	for _, codecName := range []string{"none", "lz4", "snappy", "blosclz", "zstd"} {
		c, _, err := reg.ByName(codecName)

		if err != nil {
			t.Fatal(err)
		}

		for _, p := range []filter.Pipeline{
			nil,
			{{filter.Shuffle, 0}},
			{{filter.Bitshuffle, 0}},
			{{filter.Shuffle, 0}, {filter.Delta, filter.DeltaReferenceMeta}},
		} {
			params := Params{Pipeline: p, Typesize: typesize, Codec: c, Level: 5}

			block0 := make([]byte, blocksize)

			for i := 0; i < blocksize/8; i++ {
				v := uint64(i)
				for b := 0; b < 8; b++ {
					block0[i*8+b] = byte(v >> (8 * b))
				}
			}

			for _, isFirst := range []bool{true, false} {
				src := make([]byte, blocksize)

				if isFirst {
					copy(src, block0)
				} else {
					rng.Read(src)
				}

				buf1 := make([]byte, blocksize)
				buf2 := make([]byte, blocksize)

				payload, err := Encode(src, params, block0, isFirst, buf1, buf2)

				if err != nil {
					t.Fatalf("codec=%s pipeline=%v isFirst=%v: encode: %v", codecName, p, isFirst, err)
				}

				dst := make([]byte, blocksize)
				dbuf1 := make([]byte, blocksize)
				dbuf2 := make([]byte, blocksize)

				if err := Decode(payload, blocksize, params, block0, isFirst, dst, dbuf1, dbuf2); err != nil {
					t.Fatalf("codec=%s pipeline=%v isFirst=%v: decode: %v", codecName, p, isFirst, err)
				}

				if !bytes.Equal(dst, src) {
					t.Fatalf("codec=%s pipeline=%v isFirst=%v: round trip mismatch", codecName, p, isFirst)
				}
			}
		}
	}
}

func TestEncodeIncompressibleFallsBackToLiteral(t *testing.T) {
	reg := codec.NewRegistry()
	c, _, _ := reg.ByName("lz4")
	rng := rand.New(rand.NewSource(12))

	src := make([]byte, 4096)
	rng.Read(src)

	params := Params{Pipeline: nil, Typesize: 1, Codec: c, Level: 5}
	payload, err := Encode(src, params, nil, true, make([]byte, 4096), make([]byte, 4096))

	if err != nil {
		t.Fatal(err)
	}

	if payload[0] != TagLiteral {
		t.Fatalf("expected literal tag for incompressible random data, got tag %d", payload[0])
	}

	if len(payload) != 1+len(src) {
		t.Fatalf("literal payload length = %d, want %d", len(payload), 1+len(src))
	}
}
