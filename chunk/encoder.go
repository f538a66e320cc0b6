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
	"encoding/binary"
	"math"

	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/block"
)

// maxOverheadPerBlock is the worst case a block's payload can grow by over
// its uncompressed length: one tag byte (literal fallback never expands
// beyond that, per block.Encode).
const maxOverheadPerBlock = 1

// EncodeChunk implements the Chunk Encoder (spec section 4.5): split src
// into ctx.Params.Blocksize-sized blocks, run each through the block worker
// on ctx's thread pool, then assemble the header, offset table, and
// payloads into one contiguous chunk buffer, in block-index order
// regardless of completion order (kanzi-go's io.CompressedStream dispatches
// and reassembles blocks the same way in processBlock).
func EncodeChunk(ctx *CompressionContext, src []byte) ([]byte, error) {
	if err := ctx.checkOpen(); err != nil {
		return nil, err
	}

	if len(src) > math.MaxUint32 {
		return nil, chunkz.NewError(chunkz.KindSize, chunkz.ErrSourceTooLarge, "source is %d bytes, exceeds the %d-byte chunk Nbytes field", len(src), uint32(math.MaxUint32))
	}

	nbytes := len(src)
	blocksize := ctx.Params.Blocksize
	h := Header{
		Version:       CurrentVersion,
		VersionFormat: VersionFormat,
		Typesize:      byte(ctx.Params.Typesize),
		CodecID:       ctx.codecID,
		Pipeline:      ctx.Params.Pipeline,
		Nbytes:        uint32(nbytes),
		Blocksize:     uint32(blocksize),
	}

	nblocks := h.NumBlocks()
	payloads := make([][]byte, nblocks)

	notifyListeners(ctx.listeners, chunkz.NewEvent(chunkz.EvtEncodeStart, -1, nbytes, 0))

	var ref []byte

	if nblocks > 0 {
		ref = src[:blockByteLen(nbytes, blocksize, 0, nblocks)]
	}

	tasks := make([]func() error, nblocks)

	for i := 0; i < nblocks; i++ {
		i := i
		start := i * blocksize
		blen := blockByteLen(nbytes, blocksize, i, nblocks)
		srcBlock := src[start : start+blen]

		tasks[i] = func() error {
			buf1 := make([]byte, blen)
			buf2 := make([]byte, blen)
			p := block.Params{Pipeline: ctx.Params.Pipeline, Typesize: ctx.Params.Typesize, Codec: ctx.codecImp, Level: ctx.Params.Level}
			payload, err := block.Encode(srcBlock, p, ref, i == 0, buf1, buf2)

			if err != nil {
				return err
			}

			payloads[i] = payload
			notifyListeners(ctx.listeners, chunkz.NewEvent(chunkz.EvtBlockCoded, i, blen, len(payload)))
			return nil
		}
	}

	for _, err := range ctx.pool.Run(tasks) {
		if err != nil {
			return nil, err
		}
	}

	offsetTableSize := 4 * nblocks
	total := headerSize + offsetTableSize

	for _, pl := range payloads {
		total += len(pl)
	}

	out := make([]byte, total)
	offsets := make([]uint32, nblocks)
	pos := headerSize + offsetTableSize

	for i, pl := range payloads {
		offsets[i] = uint32(pos)
		copy(out[pos:pos+len(pl)], pl)
		pos += len(pl)
	}

	h.Cbytes = uint32(pos)

	if err := h.WriteTo(out); err != nil {
		return nil, err
	}

	offTable := out[headerSize : headerSize+offsetTableSize]

	for i, off := range offsets {
		binary.LittleEndian.PutUint32(offTable[4*i:4*i+4], off)
	}

	// Because block.Encode's literal fallback bounds a block's payload to
	// at most one tag byte more than its uncompressed length, cbytes can
	// never exceed this threshold in practice; the check remains as a
	// defensive guard per spec section 4.5's "incompressible error" case.
	maxAllowed := nbytes + headerSize + offsetTableSize + nblocks*maxOverheadPerBlock

	if int(h.Cbytes) > maxAllowed {
		return nil, chunkz.NewError(chunkz.KindIncompressible, chunkz.ErrWouldBeLarger, "chunk would be larger than source: %d > %d", h.Cbytes, maxAllowed)
	}

	notifyListeners(ctx.listeners, chunkz.NewEvent(chunkz.EvtEncodeEnd, -1, nbytes, int(h.Cbytes)))

	return out, nil
}

// blockByteLen returns the length in bytes of block i out of nblocks total
// blocks covering nbytes bytes at the given blocksize.
func blockByteLen(nbytes, blocksize, i, nblocks int) int {
	if i < nblocks-1 {
		return blocksize
	}

	last := nbytes - blocksize*(nblocks-1)

	if last <= 0 {
		return blocksize
	}

	return last
}
