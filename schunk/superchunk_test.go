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

package schunk

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/chunkz-io/chunkz/chunk"
	"github.com/chunkz-io/chunkz/filter"
)

func newTestSuperChunk(t *testing.T) *SuperChunk {
	t.Helper()
	p := chunk.Params{Codec: "lz4", Level: 5, Typesize: 4, Blocksize: 4096, Pipeline: filter.Pipeline{{ID: filter.Shuffle}}, Threads: 2}
	cctx, err := chunk.NewCompressionContext(p, nil)

	if err != nil {
		t.Fatalf("NewCompressionContext: %v", err)
	}

	dctx, err := chunk.NewDecompressionContext(2, nil)

	if err != nil {
		t.Fatalf("NewDecompressionContext: %v", err)
	}

	s := New(cctx, dctx)
	t.Cleanup(s.Destroy)
	return s
}

func TestAppendBufferAndDecompress(t *testing.T) {
	s := newTestSuperChunk(t)
	rng := rand.New(rand.NewSource(5))

	var sources [][]byte

	for i := 0; i < 10; i++ {
		src := make([]byte, 4000+i*37)
		rng.Read(src)
		sources = append(sources, src)

		n, err := s.AppendBuffer(src)

		if err != nil {
			t.Fatalf("AppendBuffer(%d): %v", i, err)
		}

		if n != i+1 {
			t.Fatalf("AppendBuffer(%d) returned count %d, want %d", i, n, i+1)
		}
	}

	if s.NumChunks() != 10 {
		t.Fatalf("NumChunks() = %d, want 10", s.NumChunks())
	}

	for i, src := range sources {
		dst := make([]byte, len(src))
		n, err := s.DecompressChunk(i, dst)

		if err != nil {
			t.Fatalf("DecompressChunk(%d): %v", i, err)
		}

		if n != len(src) || !bytes.Equal(dst, src) {
			t.Fatalf("DecompressChunk(%d) mismatch", i)
		}
	}
}

func TestDecompressChunkErrorCases(t *testing.T) {
	s := newTestSuperChunk(t)
	src := make([]byte, 5000)
	rand.New(rand.NewSource(9)).Read(src)

	if _, err := s.AppendBuffer(src); err != nil {
		t.Fatal(err)
	}

	if _, err := s.DecompressChunk(5, make([]byte, 5000)); err == nil {
		t.Fatal("expected range error for out-of-bounds chunk index")
	}

	if _, err := s.DecompressChunk(0, make([]byte, 10)); err == nil {
		t.Fatal("expected size error for undersized dst")
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	s := newTestSuperChunk(t)
	rng := rand.New(rand.NewSource(13))

	var sources [][]byte

	for i := 0; i < 10; i++ {
		src := make([]byte, 3000+i*101)
		rng.Read(src)
		sources = append(sources, src)

		if _, err := s.AppendBuffer(src); err != nil {
			t.Fatal(err)
		}
	}

	metaChunk, err := chunk.EncodeChunk(s.Cctx, []byte("opaque metadata chunk bytes, not interpreted"))

	if err != nil {
		t.Fatal(err)
	}

	s.MetadataChunk = metaChunk

	packed, err := s.Pack()

	if err != nil {
		t.Fatal(err)
	}

	if int64(len(packed)) != s.GetPackedLength() {
		t.Fatalf("packed length %d != GetPackedLength() %d", len(packed), s.GetPackedLength())
	}

	wantFlags := chunk.PipelineFlags(s.Cctx.Params.Pipeline, s.Cctx.CodecID())

	if packed[1] != wantFlags {
		t.Fatalf("packed flags byte = %#x, want %#x", packed[1], wantFlags)
	}

	if int(packed[2]) != s.Cctx.Params.Typesize {
		t.Fatalf("packed typesize = %d, want %d", packed[2], s.Cctx.Params.Typesize)
	}

	if got := binary.LittleEndian.Uint32(packed[4:8]); int(got) != s.Cctx.Params.Blocksize {
		t.Fatalf("packed blocksize = %d, want %d", got, s.Cctx.Params.Blocksize)
	}

	p := chunk.Params{Codec: "lz4", Level: 5, Typesize: 4, Blocksize: 4096, Pipeline: filter.Pipeline{{ID: filter.Shuffle}}, Threads: 2}
	cctx2, err := chunk.NewCompressionContext(p, nil)

	if err != nil {
		t.Fatal(err)
	}

	dctx2, err := chunk.NewDecompressionContext(2, nil)

	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { cctx2.Close(); dctx2.Close() })

	unpacked, err := Unpack(packed, cctx2, dctx2)

	if err != nil {
		t.Fatal(err)
	}

	if unpacked.NumChunks() != len(sources) {
		t.Fatalf("unpacked NumChunks() = %d, want %d", unpacked.NumChunks(), len(sources))
	}

	if !bytes.Equal(unpacked.MetadataChunk, s.MetadataChunk) {
		t.Fatal("metadata ancillary chunk did not survive pack/unpack")
	}

	for i, src := range sources {
		dst := make([]byte, len(src))

		if _, err := unpacked.DecompressChunk(i, dst); err != nil {
			t.Fatalf("decompress chunk %d after unpack: %v", i, err)
		}

		if !bytes.Equal(dst, src) {
			t.Fatalf("chunk %d mismatch after pack/unpack round trip", i)
		}
	}
}

func TestUnpackRejectsMismatchedBlocksize(t *testing.T) {
	s := newTestSuperChunk(t)
	src := make([]byte, 4000)
	rand.New(rand.NewSource(17)).Read(src)

	if _, err := s.AppendBuffer(src); err != nil {
		t.Fatal(err)
	}

	packed, err := s.Pack()

	if err != nil {
		t.Fatal(err)
	}

	p := chunk.Params{Codec: "lz4", Level: 5, Typesize: 4, Blocksize: 8192, Pipeline: filter.Pipeline{{ID: filter.Shuffle}}, Threads: 2}
	cctx2, err := chunk.NewCompressionContext(p, nil)

	if err != nil {
		t.Fatal(err)
	}

	dctx2, err := chunk.NewDecompressionContext(2, nil)

	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { cctx2.Close(); dctx2.Close() })

	if _, err := Unpack(packed, cctx2, dctx2); err == nil {
		t.Fatal("expected error unpacking into a context with mismatched blocksize")
	}
}

func TestAppendChunkValidatesParams(t *testing.T) {
	s := newTestSuperChunk(t)

	otherP := chunk.Params{Codec: "zstd", Level: 5, Typesize: 8, Blocksize: 4096, Pipeline: nil, Threads: 1}
	otherCtx, err := chunk.NewCompressionContext(otherP, nil)

	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(otherCtx.Close)

	src := make([]byte, 4096)
	rand.New(rand.NewSource(21)).Read(src)
	raw, err := chunk.EncodeChunk(otherCtx, src)

	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.AppendChunk(raw); err == nil {
		t.Fatal("expected validation error appending a chunk with mismatched typesize/codec")
	}
}

func TestAppendChunkAcceptsMatchingParams(t *testing.T) {
	s := newTestSuperChunk(t)

	src := make([]byte, 4096)
	rand.New(rand.NewSource(22)).Read(src)
	raw, err := chunk.EncodeChunk(s.Cctx, src)

	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.AppendChunk(raw); err != nil {
		t.Fatalf("AppendChunk with matching params: %v", err)
	}

	if s.NumChunks() != 1 {
		t.Fatalf("NumChunks() = %d, want 1", s.NumChunks())
	}

	// Mutate the caller's copy; the super-chunk's owned copy must be
	// unaffected (deep-copy semantics, DESIGN.md's Open Question #2).
	raw[20] ^= 0xFF

	dst := make([]byte, len(src))

	if _, err := s.DecompressChunk(0, dst); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(dst, src) {
		t.Fatal("AppendChunk did not deep-copy its input")
	}
}
