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
	"github.com/klauspost/compress/zstd"

	"github.com/chunkz-io/chunkz"
)

// zstdCodec wraps klauspost/compress/zstd, grounded on famarks-loki's
// go.mod dependency on klauspost/compress. It is the higher-ratio option
// alongside the lz4/snappy/blosclz fast codecs. EncodeAll/DecodeAll are
// documented as safe to call concurrently on a shared Encoder/Decoder, so
// each bucketed encoder is built once and reused across all block workers.
//
// chunk.Params.Level is 1-9 (spec section 4.3); zstd's own EncoderLevel
// range is much coarser (fastest/default/better/best), so levels are
// bucketed rather than mapped one-to-one, the same coarsening lz4.go does
// at its HC threshold.
type zstdCodec struct {
	encoders [4]*zstd.Encoder
	dec      *zstd.Decoder
}

func newZstdCodec() chunkz.Codec {
	z := &zstdCodec{}

	for i, lvl := range []zstd.EncoderLevel{zstd.SpeedFastest, zstd.SpeedDefault, zstd.SpeedBetterCompression, zstd.SpeedBestCompression} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(lvl))
		z.encoders[i] = enc
	}

	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	z.dec = dec
	return z
}

func (*zstdCodec) MaxEncodedLen(n int) int {
	// zstd frames carry their own framing overhead; this bound is generous
	// rather than exact, matching the other backends' worst-case sizing.
	return n + n/2 + 256
}

// encoderForLevel buckets the 1-9 chunk.Params.Level range onto the four
// pre-built encoders: 1-2 fastest, 3-5 default, 6-7 better, 8-9 best.
func (z *zstdCodec) encoderForLevel(level int) *zstd.Encoder {
	switch {
	case level <= 2:
		return z.encoders[0]
	case level <= 5:
		return z.encoders[1]
	case level <= 7:
		return z.encoders[2]
	default:
		return z.encoders[3]
	}
}

func (z *zstdCodec) Encode(level int, src, dst []byte) (int, error) {
	out := z.encoderForLevel(level).EncodeAll(src, dst[:0])

	if len(out) > len(dst) {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "zstd: dst too small")
	}

	if len(out) > 0 && &out[0] != &dst[0] {
		copy(dst, out)
	}

	return len(out), nil
}

func (z *zstdCodec) Decode(src, dst []byte) (int, error) {
	out, err := z.dec.DecodeAll(src, dst[:0])

	if err != nil {
		return 0, chunkz.NewError(chunkz.KindCodec, chunkz.ErrCodecFailure, "zstd: %v", err)
	}

	if len(out) > len(dst) {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "zstd: dst too small")
	}

	if len(out) > 0 && &out[0] != &dst[0] {
		copy(dst, out)
	}

	return len(out), nil
}
