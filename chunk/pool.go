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
	"sync"
	"sync/atomic"

	"github.com/chunkz-io/chunkz"
	"github.com/chunkz-io/chunkz/internal"
)

// pool is the fixed-size goroutine pool a Context owns for the lifetime of
// the context (spec section 4.7, component 10 in SPEC_FULL.md's system
// overview). kanzi-go's io.CompressedStream instead spawns one goroutine
// per block per call (see io/CompressedStream.go's processBlock); this
// spec requires the pool to be created once and reused across many encode
// or decode calls, so a small persistent worker pool replaces that pattern
// (see DESIGN.md).
type pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	closed int32
	n      int
}

func newPool(n int) *pool {
	if n < 1 {
		n = 1
	}

	p := &pool{tasks: make(chan func()), n: n}

	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		task()
	}
}

// Submit runs fn on the pool, blocking until a worker accepts it.
func (p *pool) Submit(fn func()) error {
	if atomic.LoadInt32(&p.closed) == 1 {
		return chunkz.NewError(chunkz.KindConfig, chunkz.ErrClosed, "thread pool is closed")
	}

	p.tasks <- fn
	return nil
}

// Run distributes len(tasks) independent task units across at most p.n
// goroutines and blocks until all of them complete, mirroring kanzi-go's
// io.CompressedStream.processBlock: compute how many work units land on
// each goroutine with internal.ComputeJobsPerTask (the same job-splitting
// arithmetic kanzi uses to size its own per-task block counts), submit one
// batch per goroutine, sync.WaitGroup, wait. Each task unit reports its own
// error (if any) through the result slice; Run does not stop remaining
// units on the first error since codec and filter work cannot be safely
// interrupted mid-block (spec section 5's cancellation model: "lets
// siblings finish... discards the output, and surfaces the error").
func (p *pool) Run(tasks []func() error) []error {
	n := len(tasks)
	errs := make([]error, n)

	if n == 0 {
		return errs
	}

	workers := p.n

	if workers > n {
		workers = n
	}

	counts, _ := internal.ComputeJobsPerTask(make([]uint, workers), uint(n), uint(workers))

	var wg sync.WaitGroup
	start := 0

	for _, c := range counts {
		batchLen := int(c)

		if batchLen == 0 {
			continue
		}

		batch := tasks[start : start+batchLen]
		off := start
		start += batchLen

		wg.Add(1)

		if err := p.Submit(func() {
			defer wg.Done()

			for j, t := range batch {
				errs[off+j] = t()
			}
		}); err != nil {
			wg.Done()

			for j := range batch {
				errs[off+j] = err
			}
		}
	}

	wg.Wait()
	return errs
}

// Size returns the number of goroutines in the pool.
func (p *pool) Size() int {
	return p.n
}

// Close stops accepting new work and waits for in-flight workers to exit.
// Close is idempotent.
func (p *pool) Close() {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return
	}

	close(p.tasks)
	p.wg.Wait()
}
