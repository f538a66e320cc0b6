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

// Package chunk implements the Chunk Encoder and Chunk Decoder (spec
// sections 4.5 and 4.6), the chunk binary layout (spec section 6), and the
// Context Objects that own a reusable thread pool (spec section 4.7).
//
// Where the teacher (kanzi-go) and the upstream c-blosc2 source read and
// write header fields through hand-computed pointer offsets (e.g.
// schunk.c's "*(int32_t*)((uint8_t*)chunk + 4)"), this package parses the
// header into a value object (Header) once, and writes it back by field
// name, per spec section 9's redesign note.
package chunk

import (
	"encoding/binary"

	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/filter"
)

// CurrentVersion is the chunk format version written by this package.
const CurrentVersion = 2

// VersionFormat is a sub-version of the format, independent of the data
// version above (mirrors spec section 6's distinct "version"/"version_format"
// byte fields).
const VersionFormat = 1

const (
	flagByteShuffle  = 1 << 0
	flagBitShuffle   = 1 << 1
	flagLiteralChunk = 1 << 2
	// bits 3-4 reserved
	flagCodecShift = 5
	flagCodecMask  = 0x07 // 3 bits: spec section 6's "codec id low bits"
)

// headerSize is the fixed 16-byte header plus the two MaxFilters-length
// filter-id/meta arrays (spec section 6's offset table: ids start at 16,
// metas at 16+MaxFilters).
const headerSize = 16 + 2*chunkz.MaxFilters

// Header is spec section 6's chunk header as a value object: parsed once
// by ParseHeader, and the single place field offsets are computed.
type Header struct {
	Version       byte
	VersionFormat byte
	Typesize      byte
	CodecID       uint32
	Pipeline      filter.Pipeline
	LiteralChunk  bool
	Nbytes        uint32
	Blocksize     uint32
	Cbytes        uint32
}

// NumBlocks returns ceil(Nbytes/Blocksize), the chunk's block count (spec
// section 3's invariant).
func (h Header) NumBlocks() int {
	if h.Blocksize == 0 {
		return 0
	}

	return int((uint64(h.Nbytes) + uint64(h.Blocksize) - 1) / uint64(h.Blocksize))
}

// OffsetTableSize returns the byte size of the block offset table that
// follows the header.
func (h Header) OffsetTableSize() int {
	return 4 * h.NumBlocks()
}

// marshalFlags computes the flags byte from Pipeline and CodecID.
func (h Header) marshalFlags() byte {
	f := PipelineFlags(h.Pipeline, h.CodecID)

	if h.LiteralChunk {
		f |= flagLiteralChunk
	}

	return f
}

// PipelineFlags computes the byte-shuffle/bit-shuffle/codec-id bits shared
// by the chunk header's flags byte (spec section 6) and the super-chunk
// packed prefix's flags byte (spec section 4.9): every chunk owned by one
// super-chunk shares the same pipeline and codec, so the two byte layouts
// agree on these bits. The chunk-only literal-block bit is layered on top
// by marshalFlags and is not part of this shared subset.
func PipelineFlags(p filter.Pipeline, codecID uint32) byte {
	var f byte

	for _, e := range p {
		switch e.ID {
		case filter.Shuffle:
			f |= flagByteShuffle
		case filter.Bitshuffle:
			f |= flagBitShuffle
		}
	}

	f |= byte(codecID&flagCodecMask) << flagCodecShift
	return f
}

// WriteTo serializes the header (the fixed 16-byte prefix plus the filter
// id/meta arrays) into dst, which must be at least headerSize bytes.
func (h Header) WriteTo(dst []byte) error {
	if len(dst) < headerSize {
		return chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "header buffer too small: have %d, need %d", len(dst), headerSize)
	}

	if len(h.Pipeline) > chunkz.MaxFilters {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadFilterCombo, "pipeline has %d entries, max is %d", len(h.Pipeline), chunkz.MaxFilters)
	}

	dst[0] = h.Version
	dst[1] = h.VersionFormat
	dst[2] = h.marshalFlags()
	dst[3] = h.Typesize
	binary.LittleEndian.PutUint32(dst[4:8], h.Nbytes)
	binary.LittleEndian.PutUint32(dst[8:12], h.Blocksize)
	binary.LittleEndian.PutUint32(dst[12:16], h.Cbytes)

	idsOff := 16
	metasOff := 16 + chunkz.MaxFilters

	for i := 0; i < chunkz.MaxFilters; i++ {
		if i < len(h.Pipeline) {
			dst[idsOff+i] = byte(h.Pipeline[i].ID)
			dst[metasOff+i] = h.Pipeline[i].Meta
		} else {
			dst[idsOff+i] = byte(filter.None)
			dst[metasOff+i] = 0
		}
	}

	return nil
}

// ParseHeader parses the fixed header prefix out of src, which must be at
// least headerSize bytes. It does not read the offset table; call
// Header.NumBlocks and Header.OffsetTableSize once the header is parsed to
// locate it.
func ParseHeader(src []byte) (Header, error) {
	if len(src) < headerSize {
		return Header{}, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "chunk too small for header: have %d, need %d", len(src), headerSize)
	}

	var h Header
	h.Version = src[0]
	h.VersionFormat = src[1]
	flags := src[2]
	h.Typesize = src[3]
	h.Nbytes = binary.LittleEndian.Uint32(src[4:8])
	h.Blocksize = binary.LittleEndian.Uint32(src[8:12])
	h.Cbytes = binary.LittleEndian.Uint32(src[12:16])
	h.LiteralChunk = flags&flagLiteralChunk != 0
	h.CodecID = uint32(flags>>flagCodecShift) & flagCodecMask

	if h.Version != CurrentVersion {
		return Header{}, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "unsupported chunk version %d", h.Version)
	}

	idsOff := 16
	metasOff := 16 + chunkz.MaxFilters
	var pipeline filter.Pipeline

	for i := 0; i < chunkz.MaxFilters; i++ {
		id := filter.ID(src[idsOff+i])

		if id == filter.None {
			continue
		}

		pipeline = append(pipeline, filter.Spec{ID: id, Meta: src[metasOff+i]})
	}

	h.Pipeline = pipeline

	if err := h.Pipeline.Validate(int(h.Typesize), int(h.Blocksize)); err != nil {
		return Header{}, err
	}

	byteShuffle := flags&flagByteShuffle != 0
	bitShuffle := flags&flagBitShuffle != 0

	if byteShuffle != hasFilter(h.Pipeline, filter.Shuffle) || bitShuffle != hasFilter(h.Pipeline, filter.Bitshuffle) {
		return Header{}, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "flags/filter-list mismatch")
	}

	return h, nil
}

func hasFilter(p filter.Pipeline, id filter.ID) bool {
	for _, e := range p {
		if e.ID == id {
			return true
		}
	}

	return false
}
