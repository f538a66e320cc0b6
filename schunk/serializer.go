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
	"encoding/binary"

	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/chunk"
)

// packedPrefixSize is the fixed prefix written at the start of a packed
// buffer (spec section 4.9: "a fixed-size prefix (version, flags, typesize,
// blocksize, nchunks, nbytes, cbytes, four ancillary-chunk offsets,
// data-offsets-table offset)"). Unlike c-blosc2's schunk.c, which memcpy's
// the live C struct (including pointers that only make sense in that
// process), this prefix is an explicit, versioned field layout:
//
//	0   1 byte   version
//	1   1 byte   flags (chunk.PipelineFlags: byte-shuffle/bit-shuffle/codec id)
//	2   1 byte   typesize
//	3   1 byte   reserved
//	4   4 bytes  blocksize (uint32)
//	8   4 bytes  nchunks (uint32)
//	12  4 bytes  reserved
//	16  8 bytes  filtersChunk offset (0 = absent)
//	24  8 bytes  codecChunk offset (0 = absent)
//	32  8 bytes  metadataChunk offset (0 = absent)
//	40  8 bytes  userdataChunk offset (0 = absent)
//	48  8 bytes  data-offsets-table offset
//	56  8 bytes  nbytes (uncompressed total, int64)
//	64  8 bytes  cbytes (packed buffer total length, int64)
const packedPrefixSize = 72

const packedVersion = 1

// GetPackedLength computes the total serialized size Pack would produce,
// without actually building the buffer (spec section 4.8's get_packed_length).
func (s *SuperChunk) GetPackedLength() int64 {
	total := int64(packedPrefixSize)

	for _, anc := range [][]byte{s.FiltersChunk, s.CodecChunk, s.MetadataChunk, s.UserdataChunk} {
		total += int64(len(anc))
	}

	for _, c := range s.chunks {
		total += int64(len(c.Bytes))
	}

	total += int64(len(s.chunks)) * 8 // trailing data-offsets table
	return total
}

// Pack serializes the super-chunk into one contiguous buffer: the fixed
// prefix, the (up to four) ancillary chunks, the data chunks laid out
// back-to-back, then a trailing int64 offsets table with one entry per data
// chunk (spec section 4.9).
func (s *SuperChunk) Pack() ([]byte, error) {
	total := s.GetPackedLength()
	out := make([]byte, total)

	pos := int64(packedPrefixSize)
	var filtersOff, codecOff, metadataOff, userdataOff int64

	writeAncillary := func(anc []byte) int64 {
		if len(anc) == 0 {
			return 0
		}

		off := pos
		copy(out[pos:pos+int64(len(anc))], anc)
		pos += int64(len(anc))
		return off
	}

	filtersOff = writeAncillary(s.FiltersChunk)
	codecOff = writeAncillary(s.CodecChunk)
	metadataOff = writeAncillary(s.MetadataChunk)
	userdataOff = writeAncillary(s.UserdataChunk)

	dataOffsets := make([]int64, len(s.chunks))

	for i, c := range s.chunks {
		dataOffsets[i] = pos
		copy(out[pos:pos+int64(len(c.Bytes))], c.Bytes)
		pos += int64(len(c.Bytes))
	}

	dataOffsetsTableOffset := pos

	for _, off := range dataOffsets {
		binary.LittleEndian.PutUint64(out[pos:pos+8], uint64(off))
		pos += 8
	}

	out[0] = packedVersion // prefix format version, distinct from chunk.CurrentVersion
	out[1] = chunk.PipelineFlags(s.Cctx.Params.Pipeline, s.Cctx.CodecID())
	out[2] = byte(s.Cctx.Params.Typesize)
	binary.LittleEndian.PutUint32(out[4:8], uint32(s.Cctx.Params.Blocksize))
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(s.chunks)))
	binary.LittleEndian.PutUint64(out[16:24], uint64(filtersOff))
	binary.LittleEndian.PutUint64(out[24:32], uint64(codecOff))
	binary.LittleEndian.PutUint64(out[32:40], uint64(metadataOff))
	binary.LittleEndian.PutUint64(out[40:48], uint64(userdataOff))
	binary.LittleEndian.PutUint64(out[48:56], uint64(dataOffsetsTableOffset))
	binary.LittleEndian.PutUint64(out[56:64], uint64(s.nbytes))
	binary.LittleEndian.PutUint64(out[64:72], uint64(total))

	return out, nil
}

// Unpack reverses Pack exactly: it parses the fixed prefix, recovers the
// ancillary chunks (if present) and the ordered data chunk sequence, and
// returns a new SuperChunk owning cctx/dctx and fresh, independently owned
// copies of every chunk's bytes.
func Unpack(buf []byte, cctx *chunk.CompressionContext, dctx *chunk.DecompressionContext) (*SuperChunk, error) {
	if len(buf) < packedPrefixSize {
		return nil, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "packed buffer too small: have %d, need %d", len(buf), packedPrefixSize)
	}

	if buf[0] != packedVersion {
		return nil, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "unsupported packed format version %d", buf[0])
	}

	flags := buf[1]
	typesize := buf[2]
	blocksize := binary.LittleEndian.Uint32(buf[4:8])
	nchunks := int(binary.LittleEndian.Uint32(buf[8:12]))
	filtersOff := int64(binary.LittleEndian.Uint64(buf[16:24]))
	codecOff := int64(binary.LittleEndian.Uint64(buf[24:32]))
	metadataOff := int64(binary.LittleEndian.Uint64(buf[32:40]))
	userdataOff := int64(binary.LittleEndian.Uint64(buf[40:48]))
	dataOffsetsTableOffset := int64(binary.LittleEndian.Uint64(buf[48:56]))
	nbytesTotal := binary.LittleEndian.Uint64(buf[56:64])
	cbytesTotal := binary.LittleEndian.Uint64(buf[64:72])

	if int64(len(buf)) != int64(cbytesTotal) {
		return nil, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "packed buffer length %d != recorded cbytes %d", len(buf), cbytesTotal)
	}

	if int(typesize) != cctx.Params.Typesize {
		return nil, chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadTypeSize, "packed typesize %d != context typesize %d", typesize, cctx.Params.Typesize)
	}

	if int(blocksize) != cctx.Params.Blocksize {
		return nil, chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadBlockSize, "packed blocksize %d != context blocksize %d", blocksize, cctx.Params.Blocksize)
	}

	if wantFlags := chunk.PipelineFlags(cctx.Params.Pipeline, cctx.CodecID()); flags != wantFlags {
		return nil, chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadFilterCombo, "packed flags %#x != context-derived flags %#x", flags, wantFlags)
	}

	s := New(cctx, dctx)
	s.nbytes = nbytesTotal

	readAncillary := func(off int64) ([]byte, error) {
		if off == 0 {
			return nil, nil
		}

		h, err := chunk.ParseHeader(buf[off:])

		if err != nil {
			return nil, err
		}

		end := off + int64(h.Cbytes)

		if end > int64(len(buf)) {
			return nil, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "ancillary chunk at offset %d overruns packed buffer", off)
		}

		owned := make([]byte, h.Cbytes)
		copy(owned, buf[off:end])
		return owned, nil
	}

	var err error

	if s.FiltersChunk, err = readAncillary(filtersOff); err != nil {
		return nil, err
	}

	if s.CodecChunk, err = readAncillary(codecOff); err != nil {
		return nil, err
	}

	if s.MetadataChunk, err = readAncillary(metadataOff); err != nil {
		return nil, err
	}

	if s.UserdataChunk, err = readAncillary(userdataOff); err != nil {
		return nil, err
	}

	if dataOffsetsTableOffset+int64(nchunks)*8 > int64(len(buf)) {
		return nil, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "data offsets table overruns packed buffer")
	}

	dataOffsets := make([]int64, nchunks)

	for i := 0; i < nchunks; i++ {
		off := dataOffsetsTableOffset + int64(i)*8
		dataOffsets[i] = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	}

	s.chunks = make([]*chunk.Chunk, nchunks)

	for i := 0; i < nchunks; i++ {
		start := dataOffsets[i]
		var end int64

		if i+1 < nchunks {
			end = dataOffsets[i+1]
		} else {
			end = dataOffsetsTableOffset
		}

		if start < 0 || end > int64(len(buf)) || start > end {
			return nil, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "data chunk %d range [%d,%d) invalid", i, start, end)
		}

		owned := make([]byte, end-start)
		copy(owned, buf[start:end])
		c, err := chunk.NewChunk(owned)

		if err != nil {
			return nil, err
		}

		s.chunks[i] = c
		s.cbytes += uint64(len(owned))
	}

	return s, nil
}
