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
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/codec"
	"github.com/chunkz-io/chunkz/filter"
)

// Params holds the immutable compression parameters a CompressionContext
// bundles with its codec backend and thread pool (spec section 4.7).
// Blocksize 0 means "auto-select" (see defaultBlockSize); Codec "" defers
// to CHUNKZ_CODEC or, failing that, "lz4".
type Params struct {
	Codec     string
	Level     int
	Typesize  int
	Blocksize int
	Pipeline  filter.Pipeline
	Threads   int
}

// CompressionContext bundles immutable compression parameters, a reference
// to a codec backend, and an owned thread pool (spec section 4.7). Contexts
// are reusable across many chunks but are not reentrant: concurrent use by
// multiple callers is a caller error, same as kanzi-go's streams.
type CompressionContext struct {
	Params    Params
	Registry  *codec.Registry
	codecImp  chunkz.Codec
	codecID   uint32
	pool      *pool
	closed    int32
	listeners []chunkz.Listener
}

// DecompressionContext is the decode-side analogue of CompressionContext.
type DecompressionContext struct {
	Registry  *codec.Registry
	pool      *pool
	closed    int32
	listeners []chunkz.Listener
}

// AddListener registers l to receive Encode* and BlockCoded events (spec
// section 7), mirroring kanzi-go's CompressedOutputStream.AddListener.
func (ctx *CompressionContext) AddListener(l chunkz.Listener) {
	ctx.listeners = append(ctx.listeners, l)
}

// RemoveListener unregisters a previously added listener.
func (ctx *CompressionContext) RemoveListener(l chunkz.Listener) {
	ctx.listeners = removeListener(ctx.listeners, l)
}

// AddListener registers l to receive Decode* and BlockDecoded events.
func (ctx *DecompressionContext) AddListener(l chunkz.Listener) {
	ctx.listeners = append(ctx.listeners, l)
}

// RemoveListener unregisters a previously added listener.
func (ctx *DecompressionContext) RemoveListener(l chunkz.Listener) {
	ctx.listeners = removeListener(ctx.listeners, l)
}

func removeListener(listeners []chunkz.Listener, target chunkz.Listener) []chunkz.Listener {
	for i, l := range listeners {
		if l == target {
			return append(listeners[:i], listeners[i+1:]...)
		}
	}

	return listeners
}

// notifyListeners fans evt out to every registered listener, the same way
// kanzi-go's io.CompressedStream.notifyListeners does, swallowing panics so
// a misbehaving listener cannot take down the encode or decode path.
func notifyListeners(listeners []chunkz.Listener, evt *chunkz.Event) {
	defer func() {
		recover()
	}()

	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}

func envThreads() int {
	v := strings.TrimSpace(os.Getenv("CHUNKZ_THREADS"))

	if v == "" {
		return 0
	}

	n, err := strconv.Atoi(v)

	if err != nil || n <= 0 {
		return 0
	}

	return n
}

func envCodec() string {
	return strings.TrimSpace(os.Getenv("CHUNKZ_CODEC"))
}

func envNoCompress() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("CHUNKZ_NOCOMPRESS")))

	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func resolveThreads(requested int) int {
	if requested > 0 {
		return requested
	}

	if n := envThreads(); n > 0 {
		return n
	}

	return runtime.NumCPU()
}

// NewCompressionContext validates p, resolves CHUNKZ_CODEC/CHUNKZ_THREADS/
// CHUNKZ_NOCOMPRESS fallbacks (explicit p fields win per SPEC_FULL.md's
// Ambient Stack configuration rules, except that a truthy CHUNKZ_NOCOMPRESS
// forces the "none" codec even over an explicit p.Codec), starts the owned
// thread pool, and
// returns a ready-to-use context. reg may be nil to use the package-default
// registry (codec.NewRegistry()).
func NewCompressionContext(p Params, reg *codec.Registry) (*CompressionContext, error) {
	if reg == nil {
		reg = codec.NewRegistry()
	}

	name := p.Codec

	if name == "" {
		name = envCodec()
	}

	if name == "" {
		name = "lz4"
	}

	if envNoCompress() {
		name = "none"
	}

	c, id, err := reg.ByName(name)

	if err != nil {
		return nil, err
	}

	if id > codec.MaxWireID {
		return nil, chunkz.NewError(chunkz.KindConfig, chunkz.ErrCodecFailure, "codec %q has wire id %d exceeding the chunk flags field's maximum of %d", name, id, codec.MaxWireID)
	}

	if p.Typesize <= 0 {
		p.Typesize = 1
	}

	if err := p.Pipeline.Validate(p.Typesize, p.Blocksize); err != nil {
		return nil, err
	}

	if p.Blocksize <= 0 {
		p.Blocksize = defaultBlockSize(p.Level, p.Typesize)
	}

	p.Threads = resolveThreads(p.Threads)

	return &CompressionContext{
		Params:   p,
		Registry: reg,
		codecImp: c,
		codecID:  id,
		pool:     newPool(p.Threads),
	}, nil
}

// CodecID returns the wire codec id resolved at construction time (after
// applying CHUNKZ_CODEC/CHUNKZ_NOCOMPRESS fallbacks).
func (ctx *CompressionContext) CodecID() uint32 {
	return ctx.codecID
}

// Close stops the owned thread pool. Further use of the context is a
// caller error (ErrClosed).
func (ctx *CompressionContext) Close() {
	if !atomic.CompareAndSwapInt32(&ctx.closed, 0, 1) {
		return
	}

	ctx.pool.Close()
}

func (ctx *CompressionContext) checkOpen() error {
	if atomic.LoadInt32(&ctx.closed) == 1 {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrClosed, "compression context is closed")
	}

	return nil
}

// NewDecompressionContext starts the owned thread pool for decode-side
// work. reg may be nil to use the package-default registry.
func NewDecompressionContext(threads int, reg *codec.Registry) (*DecompressionContext, error) {
	if reg == nil {
		reg = codec.NewRegistry()
	}

	return &DecompressionContext{
		Registry: reg,
		pool:     newPool(resolveThreads(threads)),
	}, nil
}

// Close stops the owned thread pool.
func (ctx *DecompressionContext) Close() {
	if !atomic.CompareAndSwapInt32(&ctx.closed, 0, 1) {
		return
	}

	ctx.pool.Close()
}

func (ctx *DecompressionContext) checkOpen() error {
	if atomic.LoadInt32(&ctx.closed) == 1 {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrClosed, "decompression context is closed")
	}

	return nil
}
