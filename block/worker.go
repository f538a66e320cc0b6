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

// Package block implements the Block Worker (spec section 4.4): filters
// plus codec on one block, emitting a sized, tagged payload, and its
// inverse. This is the unit of work dispatched to goroutines by the chunk
// package's encoder/decoder, the way kanzi-go's io.CompressedStream
// dispatches one encodingTask/decodingTask per block.
package block

import (
	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/filter"
)

// Tag values for the one-byte payload header (spec section 6: "Each block
// payload begins with a 1-byte tag").
const (
	TagCoded   byte = 0
	TagLiteral byte = 1
)

// Params bundles the per-call configuration a block worker needs. It is
// copied (not pointed to) into each task the way kanzi-go's
// CompressedOutputStream.processBlock copies its ctx map per task, so
// concurrent workers never share mutable state.
type Params struct {
	Pipeline filter.Pipeline
	Typesize int
	Codec    chunkz.Codec
	Level    int
}

// Encode runs the filter pipeline forward over src then hands the result to
// the codec, returning the block's payload (tag byte + body). ref is the
// Delta reference block (block 0's original bytes); isFirstBlock selects
// the Delta first-block identity rule (see filter.Pipeline.Forward). buf1
// and buf2 are scratch buffers of len(src) bytes owned by the caller for
// the filter pipeline's ping-pong; they are not reused by Encode after it
// returns.
func Encode(src []byte, p Params, ref []byte, isFirstBlock bool, buf1, buf2 []byte) ([]byte, error) {
	filtered, err := p.Pipeline.Forward(src, buf1, buf2, p.Typesize, ref, isFirstBlock)

	if err != nil {
		return nil, err
	}

	coded := make([]byte, p.Codec.MaxEncodedLen(len(filtered)))
	n, err := p.Codec.Encode(p.Level, filtered, coded)

	if err != nil {
		return nil, err
	}

	// Incompressible: the codec declined (n == 0) or the coded form would
	// not be smaller than storing the filtered block verbatim. Emit a
	// literal block per spec section 4.4.
	if n <= 0 || n >= len(filtered) {
		payload := make([]byte, 1+len(filtered))
		payload[0] = TagLiteral
		copy(payload[1:], filtered)
		return payload, nil
	}

	payload := make([]byte, 1+n)
	payload[0] = TagCoded
	copy(payload[1:], coded[:n])
	return payload, nil
}

// Decode inverts Encode: given a block's payload and its expected
// decompressed length (blockLen, the block's uncompressed size per the
// chunk header), it writes blockLen bytes of original data into dst and
// returns only an error. ref/isFirstBlock mirror Encode's Delta handling; buf1/buf2 are
// scratch buffers of blockLen bytes for the filter pipeline's ping-pong.
func Decode(payload []byte, blockLen int, p Params, ref []byte, isFirstBlock bool, dst, buf1, buf2 []byte) error {
	if len(payload) < 1 {
		return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "block payload is empty")
	}

	if len(dst) < blockLen {
		return chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "block dst too small: have %d, need %d", len(dst), blockLen)
	}

	tag := payload[0]
	body := payload[1:]

	var filtered []byte

	switch tag {
	case TagLiteral:
		if len(body) != blockLen {
			return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "literal block length %d != expected %d", len(body), blockLen)
		}

		filtered = body

	case TagCoded:
		tmp := make([]byte, blockLen)
		n, err := p.Codec.Decode(body, tmp)

		if err != nil {
			return err
		}

		if n != blockLen {
			return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "decoded block length %d != expected %d", n, blockLen)
		}

		filtered = tmp

	default:
		return chunkz.NewError(chunkz.KindFormat, chunkz.ErrBadHeader, "unknown block tag %d", tag)
	}

	out, err := p.Pipeline.Inverse(filtered, buf1, buf2, p.Typesize, ref, isFirstBlock)

	if err != nil {
		return err
	}

	copy(dst[:blockLen], out)
	return nil
}
