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

const (
	minBlockSize = 4 * 1024
	maxBlockSize = 256 * 1024
)

// clevelSteps gives the base block size (before the typesize adjustment
// below) for each compression level from 1 to 9: higher effort levels get
// bigger blocks to give the codec more history to work with, mirroring
// c-blosc2's automatic blocksize heuristic in blosc2.c's compute_blocksize.
// This spec leaves the exact table unspecified (Open Question in spec
// section "Open Questions"), resolved in DESIGN.md as a fixed, deterministic
// table rather than a runtime heuristic based on input size or available
// cache size.
var clevelSteps = [10]int{
	0:  16 * 1024, // level 0 unused; clevel is clamped to [1,9] below
	1:  16 * 1024,
	2:  16 * 1024,
	3:  32 * 1024,
	4:  32 * 1024,
	5:  64 * 1024,
	6:  64 * 1024,
	7:  128 * 1024,
	8:  128 * 1024,
	9:  256 * 1024,
}

// defaultBlockSize picks a blocksize for (clevel, typesize) when the caller
// does not supply one explicitly. The result is always a multiple of
// typesize (so Delta's blocksize%typesize==0 requirement holds automatically)
// and is clamped to [minBlockSize, maxBlockSize].
func defaultBlockSize(clevel, typesize int) int {
	if clevel < 1 {
		clevel = 1
	} else if clevel > 9 {
		clevel = 9
	}

	if typesize < 1 {
		typesize = 1
	}

	bs := clevelSteps[clevel]

	// Round down to a multiple of typesize, then back up to at least one
	// full typesize-wide element.
	bs -= bs % typesize

	if bs < typesize {
		bs = typesize
	}

	if bs < minBlockSize {
		bs = minBlockSize - (minBlockSize % typesize)

		if bs < typesize {
			bs = typesize
		}
	}

	if bs > maxBlockSize {
		bs = maxBlockSize - (maxBlockSize % typesize)

		if bs == 0 {
			bs = maxBlockSize
		}
	}

	return bs
}
