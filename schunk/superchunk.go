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

// Package schunk implements the Super-Chunk container and its packed
// serialization (spec sections 4.8 and 4.9): an ordered, owned sequence of
// chunks behaving as one logical buffer spanning more data than fits in a
// single chunk, plus up to four opaque ancillary chunks.
//
// Grounded on original_source/c-blosc2/blosc/schunk.c's blosc2_new_schunk /
// blosc2_append_buffer / blosc2_append_chunk / blosc2_decompress_chunk /
// blosc2_destroy_schunk, translated from a realloc-grown array of raw
// pointers into a Go slice of owned *chunk.Chunk values (see DESIGN.md).
package schunk

import (
	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/chunk"
	"github.com/chunkz-io/chunkz/filter"
)

// SuperChunk owns compression/decompression contexts, an ordered sequence
// of chunks, and four optional ancillary chunks (spec section 3). It caches
// running nbytes/cbytes totals across its data chunks.
type SuperChunk struct {
	Cctx *chunk.CompressionContext
	Dctx *chunk.DecompressionContext

	chunks []*chunk.Chunk

	// Ancillary chunks are opaque to the core: raw, already-framed chunk
	// bytes the caller produced and is responsible for interpreting. They
	// are serialized alongside data chunks (see serializer.go) but never
	// decompressed by SuperChunk itself; Unpack parses each one's chunk
	// header only to learn its length, so they must be well-formed chunks.
	FiltersChunk  []byte
	CodecChunk    []byte
	MetadataChunk []byte
	UserdataChunk []byte

	nbytes uint64
	cbytes uint64
}

// New creates an empty super-chunk owning cctx and dctx. The super-chunk's
// Destroy releases both.
func New(cctx *chunk.CompressionContext, dctx *chunk.DecompressionContext) *SuperChunk {
	return &SuperChunk{Cctx: cctx, Dctx: dctx}
}

// NumChunks returns the number of owned data chunks.
func (s *SuperChunk) NumChunks() int {
	return len(s.chunks)
}

// Nbytes returns the running total of uncompressed bytes across data
// chunks.
func (s *SuperChunk) Nbytes() uint64 {
	return s.nbytes
}

// Cbytes returns the running total of compressed bytes (including
// per-chunk framing overhead) across data chunks.
func (s *SuperChunk) Cbytes() uint64 {
	return s.cbytes
}

// AppendBuffer compresses src with the super-chunk's compression context,
// takes ownership of the resulting chunk, and appends it. Returns the new
// chunk count (spec section 4.8).
func (s *SuperChunk) AppendBuffer(src []byte) (int, error) {
	raw, err := chunk.EncodeChunk(s.Cctx, src)

	if err != nil {
		return 0, err
	}

	c, err := chunk.NewChunk(raw)

	if err != nil {
		return 0, err
	}

	s.chunks = append(s.chunks, c)
	s.nbytes += uint64(c.Header.Nbytes)
	s.cbytes += uint64(len(raw))
	return len(s.chunks), nil
}

// AppendChunk takes ownership of an already-compressed chunk: raw must be a
// valid, self-describing chunk (spec section 6). Its header is validated
// against the super-chunk's compression parameters (typesize, blocksize,
// filter list, codec) before it is accepted, per spec section 4.8. raw is
// deep-copied (DESIGN.md's Open Question resolution #2), so the caller may
// reuse or mutate its own copy afterward.
func (s *SuperChunk) AppendChunk(raw []byte) (int, error) {
	c, err := chunk.NewChunk(raw)

	if err != nil {
		return 0, err
	}

	if err := s.validateAgainstParams(c.Header); err != nil {
		return 0, err
	}

	owned := make([]byte, len(raw))
	copy(owned, raw)

	ownedChunk, err := chunk.NewChunk(owned)

	if err != nil {
		return 0, err
	}

	s.chunks = append(s.chunks, ownedChunk)
	s.nbytes += uint64(ownedChunk.Header.Nbytes)
	s.cbytes += uint64(len(owned))
	return len(s.chunks), nil
}

func (s *SuperChunk) validateAgainstParams(h chunk.Header) error {
	p := s.Cctx.Params

	if int(h.Typesize) != p.Typesize {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadTypeSize, "appended chunk typesize %d != super-chunk typesize %d", h.Typesize, p.Typesize)
	}

	if int(h.Blocksize) != p.Blocksize {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadBlockSize, "appended chunk blocksize %d != super-chunk blocksize %d", h.Blocksize, p.Blocksize)
	}

	if h.CodecID != s.Cctx.CodecID() {
		return chunkz.NewError(chunkz.KindCodec, chunkz.ErrCodecFailure, "appended chunk codec id %d != super-chunk codec id %d", h.CodecID, s.Cctx.CodecID())
	}

	if !pipelinesEqual(h.Pipeline, p.Pipeline) {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadFilterCombo, "appended chunk filter list does not match super-chunk filter list")
	}

	return nil
}

func pipelinesEqual(a, b filter.Pipeline) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// DecompressChunk decodes data chunk idx into dst (which must be at least
// chunk.nbytes long). Fails with a range error if idx is out of bounds and
// a size error if dst is too small (spec section 4.8).
func (s *SuperChunk) DecompressChunk(idx int, dst []byte) (int, error) {
	if idx < 0 || idx >= len(s.chunks) {
		return 0, chunkz.NewError(chunkz.KindRange, chunkz.ErrChunkIndex, "chunk index %d out of range [0,%d)", idx, len(s.chunks))
	}

	c := s.chunks[idx]

	if len(dst) < int(c.Header.Nbytes) {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "dst too small: have %d, need %d", len(dst), c.Header.Nbytes)
	}

	return chunk.DecodeChunk(s.Dctx, c.Bytes, dst)
}

// Destroy releases all owned chunks and both contexts. The super-chunk must
// not be used afterward.
func (s *SuperChunk) Destroy() {
	s.chunks = nil
	s.Cctx.Close()
	s.Dctx.Close()
}
