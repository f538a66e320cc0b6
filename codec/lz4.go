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

package codec

import (
	"github.com/pierrec/lz4/v4"

	"github.com/chunkz-io/chunkz"
)

// lz4Codec wraps pierrec/lz4's block API, the fast LZ-class codec spec
// section 4.1 asks the registry to carry at least one of.
type lz4Codec struct{}

func newLZ4Codec() chunkz.Codec {
	return &lz4Codec{}
}

func (*lz4Codec) MaxEncodedLen(n int) int {
	return lz4.CompressBlockBound(n)
}

// Encode ignores level below the HC threshold; the fast compressor is the
// one spec section 4.1 actually asks for ("at least one fast LZ codec").
// Levels >= 9 switch to the slower, higher-ratio HC compressor.
func (*lz4Codec) Encode(level int, src, dst []byte) (int, error) {
	if level >= 9 {
		var hc lz4.CompressorHC
		n, err := hc.CompressBlock(src, dst)

		if err != nil {
			return 0, chunkz.NewError(chunkz.KindCodec, chunkz.ErrCodecFailure, "lz4: %v", err)
		}

		return n, nil
	}

	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst)

	if err != nil {
		return 0, chunkz.NewError(chunkz.KindCodec, chunkz.ErrCodecFailure, "lz4: %v", err)
	}

	return n, nil
}

func (*lz4Codec) Decode(src, dst []byte) (int, error) {
	n, err := lz4.UncompressBlock(src, dst)

	if err != nil {
		return 0, chunkz.NewError(chunkz.KindCodec, chunkz.ErrCodecFailure, "lz4: %v", err)
	}

	return n, nil
}
