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

package chunkz

import (
	"fmt"
	"os"
	"time"
)

// Event stages, mirroring the block lifecycle rather than kanzi's
// transform/entropy split since this engine has no entropy stage of its
// own (codecs are external).
const (
	EvtEncodeStart = iota
	EvtBlockFiltered
	EvtBlockCoded
	EvtEncodeEnd
	EvtDecodeStart
	EvtBlockDecoded
	EvtDecodeEnd
)

// Event is a block or chunk lifecycle notification delivered to a
// Listener. It carries no information the caller couldn't also compute
// itself; it exists purely so a caller can observe progress and timing
// without the library doing any logging of its own (spec section 7: "the
// library writes no log output except optional stderr diagnostic messages
// under a single compile-time verbosity flag").
type Event struct {
	Stage     int
	BlockID   int
	SizeIn    int
	SizeOut   int
	EventTime time.Time
}

// NewEvent creates an Event stamped with the current time.
func NewEvent(stage, blockID, sizeIn, sizeOut int) *Event {
	return &Event{Stage: stage, BlockID: blockID, SizeIn: sizeIn, SizeOut: sizeOut, EventTime: time.Now()}
}

func (e *Event) String() string {
	name := "UNKNOWN"

	switch e.Stage {
	case EvtEncodeStart:
		name = "ENCODE_START"
	case EvtBlockFiltered:
		name = "BLOCK_FILTERED"
	case EvtBlockCoded:
		name = "BLOCK_CODED"
	case EvtEncodeEnd:
		name = "ENCODE_END"
	case EvtDecodeStart:
		name = "DECODE_START"
	case EvtBlockDecoded:
		name = "BLOCK_DECODED"
	case EvtDecodeEnd:
		name = "DECODE_END"
	}

	return fmt.Sprintf("{\"type\":%q,\"block\":%d,\"in\":%d,\"out\":%d,\"time\":%d}",
		name, e.BlockID, e.SizeIn, e.SizeOut, e.EventTime.UnixNano()/1000000)
}

// Listener is implemented by event processors registered on a context.
type Listener interface {
	ProcessEvent(evt *Event)
}

// Verbose is the compile-time verbosity flag referenced by spec section 7.
// A build that wants stderr diagnostics flips it and relinks; there is no
// runtime logging configuration knob by design.
const Verbose = false

// verboseListener writes every event to an io.Writer, typically os.Stderr.
// Constructed by NewVerboseListener and only useful when Verbose is true;
// callers may still register it unconditionally since it is a no-op
// Listener implementation when the Verbose flag is compiled as false.
type verboseListener struct {
	w interface{ Write([]byte) (int, error) }
}

// NewVerboseListener returns a Listener that prints every Event to w
// (typically os.Stderr) when Verbose is true, and does nothing otherwise.
func NewVerboseListener(w interface{ Write([]byte) (int, error) }) Listener {
	if w == nil {
		w = os.Stderr
	}

	return &verboseListener{w: w}
}

func (v *verboseListener) ProcessEvent(evt *Event) {
	if !Verbose {
		return
	}

	fmt.Fprintln(v.w, evt.String())
}
