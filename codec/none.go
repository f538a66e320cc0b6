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
	"github.com/chunkz-io/chunkz"
)

// noneCodec is the identity codec. It backs the "none" registry entry used
// by the CHUNKZ_NOCOMPRESS debug override (spec section 6).
type noneCodec struct{}

func newNoneCodec() chunkz.Codec {
	return &noneCodec{}
}

func (*noneCodec) MaxEncodedLen(n int) int {
	return n
}

func (*noneCodec) Encode(_ int, src, dst []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "none codec: dst too small")
	}

	return copy(dst, src), nil
}

func (*noneCodec) Decode(src, dst []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "none codec: dst too small")
	}

	return copy(dst, src), nil
}
