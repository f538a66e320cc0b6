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

package chunk

import (
	"testing"

	"github.com/chunkz-io/chunkz/filter"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Version:       CurrentVersion,
		VersionFormat: VersionFormat,
		Typesize:      8,
		CodecID:       4,
		Pipeline:      filter.Pipeline{{ID: filter.Shuffle}, {ID: filter.Delta, Meta: filter.DeltaReferenceMeta}},
		Nbytes:        1 << 20,
		Blocksize:     64 * 1024,
		Cbytes:        900000,
	}

	buf := make([]byte, headerSize)

	if err := h.WriteTo(buf); err != nil {
		t.Fatal(err)
	}

	got, err := ParseHeader(buf)

	if err != nil {
		t.Fatal(err)
	}

	if got.Version != h.Version || got.Typesize != h.Typesize || got.CodecID != h.CodecID {
		t.Fatalf("header mismatch: %+v vs %+v", got, h)
	}

	if got.Nbytes != h.Nbytes || got.Blocksize != h.Blocksize || got.Cbytes != h.Cbytes {
		t.Fatalf("size fields mismatch: %+v vs %+v", got, h)
	}

	if len(got.Pipeline) != 2 || got.Pipeline[0].ID != filter.Shuffle || got.Pipeline[1].ID != filter.Delta {
		t.Fatalf("pipeline mismatch: %v", got.Pipeline)
	}
}

func TestParseHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := ParseHeader(make([]byte, headerSize-1)); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestParseHeaderRejectsBadVersion(t *testing.T) {
	h := Header{Version: CurrentVersion + 1, Typesize: 1, Blocksize: 4096}
	buf := make([]byte, headerSize)

	if err := h.WriteTo(buf); err != nil {
		t.Fatal(err)
	}

	if _, err := ParseHeader(buf); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestNumBlocks(t *testing.T) {
	cases := []struct {
		nbytes, blocksize uint32
		want              int
	}{
		{0, 4096, 0},
		{1, 4096, 1},
		{4096, 4096, 1},
		{4097, 4096, 2},
		{8192, 4096, 2},
	}

	for _, c := range cases {
		h := Header{Nbytes: c.nbytes, Blocksize: c.blocksize}

		if got := h.NumBlocks(); got != c.want {
			t.Errorf("NumBlocks(nbytes=%d, blocksize=%d) = %d, want %d", c.nbytes, c.blocksize, got, c.want)
		}
	}
}
