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

// Package codec implements the Codec Registry (spec section 4.1): a
// name<->id table mapping to pluggable byte-codec backends. Backends wrap
// real third-party compression libraries; the registry itself knows nothing
// about their internals.
package codec

import (
	"fmt"
	"strings"

	"github.com/chunkz-io/chunkz"
)

// Numeric codec ids. The chunk flags byte (spec section 6) only reserves 3
// bits for the codec id, so ids used on the wire must stay in [0, 7] - see
// DESIGN.md's "Codec id width on the wire" decision.
const (
	NoneType    = uint32(0)
	LZ4Type     = uint32(1)
	SnappyType  = uint32(2)
	BloscLZType = uint32(3)
	ZstdType    = uint32(4)

	// MaxWireID is the largest codec id that fits in the chunk flags byte.
	MaxWireID = 7
)

// Registry maps codec names and ids to backend implementations. The zero
// value is not usable; use NewRegistry.
type Registry struct {
	byID   map[uint32]chunkz.Codec
	byName map[string]uint32
}

// NewRegistry returns a Registry pre-populated with the built-in backends
// (none, lz4, snappy, blosclz, zstd). Callers may Register additional
// backends under unused ids.
func NewRegistry() *Registry {
	r := &Registry{
		byID:   make(map[uint32]chunkz.Codec),
		byName: make(map[string]uint32),
	}

	r.Register(NoneType, "none", newNoneCodec())
	r.Register(LZ4Type, "lz4", newLZ4Codec())
	r.Register(SnappyType, "snappy", newSnappyCodec())
	r.Register(BloscLZType, "blosclz", newBloscLZCodec())
	r.Register(ZstdType, "zstd", newZstdCodec())

	return r
}

// Register adds or replaces a backend under the given id and name.
func (r *Registry) Register(id uint32, name string, c chunkz.Codec) {
	r.byID[id] = c
	r.byName[strings.ToLower(name)] = id
}

// ByID returns the backend registered under id.
func (r *Registry) ByID(id uint32) (chunkz.Codec, error) {
	c, ok := r.byID[id]

	if !ok {
		return nil, chunkz.NewError(chunkz.KindConfig, chunkz.ErrCodecFailure, "unknown codec id %d", id)
	}

	return c, nil
}

// ByName returns the backend registered under name along with its id.
// Lookup is case-insensitive.
func (r *Registry) ByName(name string) (chunkz.Codec, uint32, error) {
	id, ok := r.byName[strings.ToLower(name)]

	if !ok {
		return nil, 0, chunkz.NewError(chunkz.KindConfig, chunkz.ErrCodecFailure, "unknown codec name %q", name)
	}

	c, err := r.ByID(id)
	return c, id, err
}

// Name returns the registered name for id, or an error if none is
// registered.
func (r *Registry) Name(id uint32) (string, error) {
	for name, i := range r.byName {
		if i == id {
			return name, nil
		}
	}

	return "", fmt.Errorf("unknown codec id %d", id)
}
