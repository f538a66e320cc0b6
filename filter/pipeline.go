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

package filter

import (
	"github.com/chunkz-io/chunkz"
)

// DeltaReferenceMeta is the Meta value recorded for a Delta filter entry
// when the reference is the chunk's own block 0 (DESIGN.md's resolution of
// the "which reference" open question). Reserved for a future alternative
// scheme.
const DeltaReferenceMeta = 0

// Pipeline is an ordered list of at most chunkz.MaxFilters (id, meta)
// entries (spec section 3). Unlike kanzi-go's fixed-length array of
// sentinel-tagged transforms, an empty pipeline position is simply absent
// from the slice, per spec section 9's redesign note.
type Pipeline []Spec

// Validate checks the three config-error conditions from spec section 4.3:
// Shuffle and Bitshuffle are mutually exclusive, TruncPrec requires
// typesize in {4, 8}, and Delta requires blocksize to be a multiple of
// typesize.
func (p Pipeline) Validate(typesize, blocksize int) error {
	if len(p) > chunkz.MaxFilters {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadFilterCombo, "pipeline has %d entries, max is %d", len(p), chunkz.MaxFilters)
	}

	hasShuffle := false
	hasBitshuffle := false

	for _, f := range p {
		switch f.ID {
		case Shuffle:
			hasShuffle = true
		case Bitshuffle:
			hasBitshuffle = true
		case TruncPrec:
			if typesize != 4 && typesize != 8 {
				return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadTypeSize, "trunc_prec requires typesize 4 or 8, got %d", typesize)
			}
		case Delta:
			if typesize <= 0 || blocksize%typesize != 0 {
				return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadBlockSize, "delta requires blocksize %% typesize == 0 (blocksize=%d typesize=%d)", blocksize, typesize)
			}
		}
	}

	if hasShuffle && hasBitshuffle {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrBadFilterCombo, "shuffle and bitshuffle are mutually exclusive")
	}

	return nil
}

// UsesDelta reports whether the pipeline contains a Delta filter.
func (p Pipeline) UsesDelta() bool {
	for _, f := range p {
		if f.ID == Delta {
			return true
		}
	}

	return false
}

// Forward applies every non-None filter in order, ping-ponging between buf1
// and buf2 (each must be len(block) bytes). ref is the Delta reference
// block (ignored unless the pipeline uses Delta); it may be nil otherwise.
// isFirstBlock selects DESIGN.md's resolution of the Delta first-block
// rule: the chunk's own block 0 is passed through unmodified by Delta
// (identity) rather than XORed against itself, since XORing a block against
// itself would make the reference unrecoverable at decode time. Returns
// the buffer holding the final result, which aliases block itself if every
// filter was None (or Delta-on-block-0, which behaves as None).
func (p Pipeline) Forward(block, buf1, buf2 []byte, typesize int, ref []byte, isFirstBlock bool) ([]byte, error) {
	cur := block
	scratch := [2][]byte{buf1, buf2}
	next := 0

	for _, f := range p {
		if f.ID == None || (f.ID == Delta && isFirstBlock) {
			continue
		}

		out := scratch[next]
		next = 1 - next

		if err := forwardOne(f, cur, out, typesize, ref); err != nil {
			return nil, err
		}

		cur = out
	}

	return cur, nil
}

// Inverse applies every non-None filter in reverse order, the mirror image
// of Forward.
func (p Pipeline) Inverse(block, buf1, buf2 []byte, typesize int, ref []byte, isFirstBlock bool) ([]byte, error) {
	cur := block
	scratch := [2][]byte{buf1, buf2}
	next := 0

	for i := len(p) - 1; i >= 0; i-- {
		f := p[i]

		if f.ID == None || (f.ID == Delta && isFirstBlock) {
			continue
		}

		out := scratch[next]
		next = 1 - next

		if err := inverseOne(f, cur, out, typesize, ref); err != nil {
			return nil, err
		}

		cur = out
	}

	return cur, nil
}

func forwardOne(f Spec, src, dst []byte, typesize int, ref []byte) error {
	switch f.ID {
	case Shuffle:
		return ShuffleForward(src, dst, typesize)
	case Bitshuffle:
		return BitshuffleForward(src, dst, typesize)
	case Delta:
		return DeltaForward(src, ref, dst)
	case TruncPrec:
		return TruncPrecForward(src, dst, typesize, f.Meta)
	default:
		copy(dst, src)
		return nil
	}
}

func inverseOne(f Spec, src, dst []byte, typesize int, ref []byte) error {
	switch f.ID {
	case Shuffle:
		return ShuffleInverse(src, dst, typesize)
	case Bitshuffle:
		return BitshuffleInverse(src, dst, typesize)
	case Delta:
		return DeltaInverse(src, ref, dst)
	case TruncPrec:
		return TruncPrecInverse(src, dst)
	default:
		copy(dst, src)
		return nil
	}
}
