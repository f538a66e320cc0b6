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
	"github.com/golang/snappy"

	"github.com/chunkz-io/chunkz"
)

// snappyCodec wraps golang/snappy, the codec used by the dolthub-dolt
// example repo's chunk store.
type snappyCodec struct{}

func newSnappyCodec() chunkz.Codec {
	return &snappyCodec{}
}

func (*snappyCodec) MaxEncodedLen(n int) int {
	return snappy.MaxEncodedLen(n)
}

func (*snappyCodec) Encode(_ int, src, dst []byte) (int, error) {
	if len(dst) < snappy.MaxEncodedLen(len(src)) {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "snappy: dst too small")
	}

	out := snappy.Encode(dst, src)
	return len(out), nil
}

func (*snappyCodec) Decode(src, dst []byte) (int, error) {
	n, err := snappy.DecodedLen(src)

	if err != nil {
		return 0, chunkz.NewError(chunkz.KindCodec, chunkz.ErrCodecFailure, "snappy: %v", err)
	}

	if len(dst) < n {
		return 0, chunkz.NewError(chunkz.KindSize, chunkz.ErrDestTooSmall, "snappy: dst too small")
	}

	out, err := snappy.Decode(dst, src)

	if err != nil {
		return 0, chunkz.NewError(chunkz.KindCodec, chunkz.ErrCodecFailure, "snappy: %v", err)
	}

	return len(out), nil
}
