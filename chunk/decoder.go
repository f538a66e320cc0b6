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
	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/block"
)

// DecodeChunk implements the Chunk Decoder's whole-chunk decode operation
// (spec section 4.6): parse the header, submit one decode task per block to
// ctx's thread pool, and write each block into its dst[i*blocksize .. ]
// slot. Returns the number of decoded bytes (the chunk's Nbytes).
//
// When the chunk's pipeline uses DELTA, block 0 is decoded first and
// synchronously, since every other block's inverse needs it as the
// reference; the remaining blocks are then decoded in parallel, matching
// spec section 4.6's "DELTA additionally requires that block 0 be decoded
// when any block > 0 is requested".
func DecodeChunk(ctx *DecompressionContext, raw []byte, dst []byte) (int, error) {
	if err := ctx.checkOpen(); err != nil {
		return 0, err
	}

	c, err := NewChunk(raw)

	if err != nil {
		return 0, err
	}

	nbytes := int(c.Header.Nbytes)

	if len(dst) < nbytes {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "decode dst too small: have %d, need %d", len(dst), nbytes)
	}

	codecImpl, err := ctx.Registry.ByID(c.Header.CodecID)

	if err != nil {
		return 0, err
	}

	nblocks := c.Header.NumBlocks()
	blocksize := int(c.Header.Blocksize)
	p := block.Params{Pipeline: c.Header.Pipeline, Typesize: int(c.Header.Typesize), Codec: codecImpl}
	usesDelta := c.Header.Pipeline.UsesDelta()

	notifyListeners(ctx.listeners, chunkz.NewEvent(chunkz.EvtDecodeStart, -1, len(raw), nbytes))

	decodeOne := func(i int, ref []byte) error {
		payload, err := c.Payload(i)

		if err != nil {
			return err
		}

		blen := c.BlockLen(i)
		start := i * blocksize
		buf1 := make([]byte, blen)
		buf2 := make([]byte, blen)
		err = block.Decode(payload, blen, p, ref, i == 0, dst[start:start+blen], buf1, buf2)

		if err == nil {
			notifyListeners(ctx.listeners, chunkz.NewEvent(chunkz.EvtBlockDecoded, i, len(payload), blen))
		}

		return err
	}

	if nblocks == 0 {
		notifyListeners(ctx.listeners, chunkz.NewEvent(chunkz.EvtDecodeEnd, -1, len(raw), nbytes))
		return 0, nil
	}

	first := 0

	if usesDelta {
		if err := decodeOne(0, nil); err != nil {
			return 0, err
		}

		first = 1
	}

	ref := dst[:c.BlockLen(0)]
	tasks := make([]func() error, 0, nblocks-first)

	for i := first; i < nblocks; i++ {
		i := i

		tasks = append(tasks, func() error {
			return decodeOne(i, ref)
		})
	}

	for _, err := range ctx.pool.Run(tasks) {
		if err != nil {
			return 0, err
		}
	}

	notifyListeners(ctx.listeners, chunkz.NewEvent(chunkz.EvtDecodeEnd, -1, len(raw), nbytes))

	return nbytes, nil
}

// DecodeChunkRange implements the Chunk Decoder's item-range extract
// operation (spec section 4.6): decode only the blocks covering
// [startItem, startItem+nitems) and copy the intersected bytes into dst.
// Non-local filters (BITSHUFFLE, DELTA) force whole-block decode into
// scratch before slicing, which is what this always does since block.Decode
// only ever operates on a complete block.
func DecodeChunkRange(ctx *DecompressionContext, raw []byte, startItem, nitems int, dst []byte) (int, error) {
	if err := ctx.checkOpen(); err != nil {
		return 0, err
	}

	c, err := NewChunk(raw)

	if err != nil {
		return 0, err
	}

	if nitems == 0 {
		return 0, nil
	}

	typesize := int(c.Header.Typesize)

	if typesize <= 0 {
		return 0, chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadTypeSize, "chunk has zero typesize")
	}

	totalItems := c.Nitems()

	if startItem < 0 || nitems < 0 || startItem+nitems > totalItems {
		return 0, chunkz.NewError(chunkz.KindRange, chunkz.ErrItemRange, "item range [%d,%d) out of bounds [0,%d)", startItem, startItem+nitems, totalItems)
	}

	startByte := startItem * typesize
	endByte := (startItem + nitems) * typesize

	if len(dst) < endByte-startByte {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "range dst too small: have %d, need %d", len(dst), endByte-startByte)
	}

	codecImpl, err := ctx.Registry.ByID(c.Header.CodecID)

	if err != nil {
		return 0, err
	}

	blocksize := int(c.Header.Blocksize)
	p := block.Params{Pipeline: c.Header.Pipeline, Typesize: typesize, Codec: codecImpl}
	usesDelta := c.Header.Pipeline.UsesDelta()

	b0 := startByte / blocksize
	b1 := (endByte - 1) / blocksize

	decodeBlock := func(i int, ref []byte) ([]byte, error) {
		payload, err := c.Payload(i)

		if err != nil {
			return nil, err
		}

		blen := c.BlockLen(i)
		out := make([]byte, blen)
		buf1 := make([]byte, blen)
		buf2 := make([]byte, blen)

		if err := block.Decode(payload, blen, p, ref, i == 0, out, buf1, buf2); err != nil {
			return nil, err
		}

		return out, nil
	}

	results := make([][]byte, b1-b0+1)
	var ref []byte

	// DELTA requires block 0's original bytes as the reference for every
	// other block's inverse. Decode it synchronously first, whether or not
	// it falls inside the requested range, since the remaining blocks in
	// range cannot be decoded concurrently with it otherwise.
	if usesDelta {
		block0, err := decodeBlock(0, nil)

		if err != nil {
			return 0, err
		}

		ref = block0

		if b0 == 0 {
			results[0] = block0
		}
	}

	tasks := make([]func() error, 0, len(results))

	for i := b0; i <= b1; i++ {
		if usesDelta && i == 0 {
			continue
		}

		i := i
		idx := i - b0

		tasks = append(tasks, func() error {
			out, err := decodeBlock(i, ref)

			if err != nil {
				return err
			}

			results[idx] = out
			return nil
		})
	}

	for _, err := range ctx.pool.Run(tasks) {
		if err != nil {
			return 0, err
		}
	}

	for i := b0; i <= b1; i++ {
		idx := i - b0
		blockStart := i * blocksize
		blockEnd := blockStart + c.BlockLen(i)
		isectStart := max(blockStart, startByte)
		isectEnd := min(blockEnd, endByte)

		if isectStart >= isectEnd {
			continue
		}

		copy(dst[isectStart-startByte:isectEnd-startByte], results[idx][isectStart-blockStart:isectEnd-blockStart])
	}

	return endByte - startByte, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}
