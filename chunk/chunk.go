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

	"github.com/chunkz-io/chunkz"
)

// Chunk is a self-describing, immutable compressed buffer (spec section 3).
// It is a typed view over a length-checked byte slice: Header is parsed
// once at construction, and every accessor below bounds-checks before
// indexing into Bytes, replacing the teacher source's raw-pointer-plus-
// manual-offset idiom (spec section 9).
type Chunk struct {
	Header Header
	Bytes  []byte
}

// NewChunk wraps raw, already-framed chunk bytes, validating the header and
// the offset table's structural invariants (spec section 3: strictly
// increasing offsets, last offset + last block size == cbytes).
func NewChunk(raw []byte) (*Chunk, error) {
	h, err := ParseHeader(raw)

	if err != nil {
		return nil, err
	}

	c := &Chunk{Header: h, Bytes: raw}

	if err := c.validateOffsets(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Chunk) offsetTableStart() int {
	return headerSize
}

func (c *Chunk) payloadsStart() int {
	return headerSize + c.Header.OffsetTableSize()
}

// Offset returns the absolute byte offset (within Bytes) of block i's
// payload.
func (c *Chunk) Offset(i int) (int, error) {
	nb := c.Header.NumBlocks()

	if i < 0 || i >= nb {
		return 0, chunkz.NewError(chunkz.KindRange, chunkz.ErrItemRange, "block index %d out of range [0,%d)", i, nb)
	}

	off := c.offsetTableStart() + 4*i

	if off+4 > len(c.Bytes) {
		return 0, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "offset table truncated")
	}

	return int(binary.LittleEndian.Uint32(c.Bytes[off : off+4])), nil
}

// BlockLen returns the uncompressed length of block i (Blocksize for every
// block except possibly the last, which may be shorter).
func (c *Chunk) BlockLen(i int) int {
	nb := c.Header.NumBlocks()
	bs := int(c.Header.Blocksize)

	if i < nb-1 {
		return bs
	}

	last := int(c.Header.Nbytes) - bs*(nb-1)

	if last <= 0 {
		return bs
	}

	return last
}

// Payload returns block i's payload bytes (tag byte + body), bounds-checked
// against the next block's offset (or Cbytes for the last block).
func (c *Chunk) Payload(i int) ([]byte, error) {
	start, err := c.Offset(i)

	if err != nil {
		return nil, err
	}

	nb := c.Header.NumBlocks()
	var end int

	if i+1 < nb {
		end, err = c.Offset(i + 1)

		if err != nil {
			return nil, err
		}
	} else {
		end = int(c.Header.Cbytes)
	}

	if start < 0 || end > len(c.Bytes) || start > end {
		return nil, chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "block %d payload range [%d,%d) invalid", i, start, end)
	}

	return c.Bytes[start:end], nil
}

// validateOffsets checks spec section 3's invariants: nblocks offset-table
// entries in strictly increasing order, and last offset + last block size
// == cbytes.
func (c *Chunk) validateOffsets() error {
	nb := c.Header.NumBlocks()

	if c.payloadsStart() > len(c.Bytes) {
		return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "chunk truncated before block payloads")
	}

	prev := -1

	for i := 0; i < nb; i++ {
		off, err := c.Offset(i)

		if err != nil {
			return err
		}

		if off <= prev {
			return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "block offsets not strictly increasing at index %d", i)
		}

		if off < c.payloadsStart() {
			return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "block %d offset %d precedes payload area", i, off)
		}

		prev = off
	}

	if int(c.Header.Cbytes) != len(c.Bytes) {
		return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "cbytes %d != actual chunk length %d", c.Header.Cbytes, len(c.Bytes))
	}

	return nil
}

// Nitems returns the number of typesize-wide elements represented by the
// chunk's uncompressed bytes (remainder bytes, if any, are not counted as
// a full item).
func (c *Chunk) Nitems() int {
	if c.Header.Typesize == 0 {
		return 0
	}

	return int(c.Header.Nbytes) / int(c.Header.Typesize)
}
