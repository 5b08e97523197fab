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

package kanzi

import (
	"fmt"
	"time"
)

// Event phases, in the order a block moves through them.
const (
	EvtStreamStart   = 0
	EvtHeaderDecoded = 1
	EvtBlockInfo     = 2
	EvtBeforeTransf  = 3
	EvtAfterTransf   = 4
	EvtBeforeEntropy = 5
	EvtAfterEntropy  = 6
	EvtStreamEnd     = 7

	HashNone = 0
	Hash32   = 32
	Hash64   = 64
)

// Event describes one step of the pipeline for a listener to observe;
// front ends use this to drive progress bars or verbose logs without
// the core knowing anything about how they render it.
type Event struct {
	phase int
	block int
	size  int64
	hash  uint64
	hType int
	when  time.Time
	msg   string
}

// NewMessageEvent wraps a free-form message, e.g. for a final summary line.
func NewMessageEvent(phase, block int, msg string) *Event {
	return &Event{phase: phase, block: block, msg: msg, when: time.Now()}
}

// NewEvent reports a phase transition for a given block, with size and
// optional checksum info. hType must be one of HashNone/Hash32/Hash64.
func NewEvent(phase, block int, size int64, hash uint64, hType int) *Event {
	if hType != HashNone && hType != Hash32 && hType != Hash64 {
		hType = HashNone
	}

	return &Event{phase: phase, block: block, size: size, hash: hash, hType: hType, when: time.Now()}
}

func (e *Event) Phase() int      { return e.phase }
func (e *Event) Block() int      { return e.block }
func (e *Event) Size() int64     { return e.size }
func (e *Event) Hash() uint64    { return e.hash }
func (e *Event) HashType() int   { return e.hType }
func (e *Event) When() time.Time { return e.when }

func phaseName(phase int) string {
	switch phase {
	case EvtStreamStart:
		return "STREAM_START"
	case EvtHeaderDecoded:
		return "HEADER_DECODED"
	case EvtBlockInfo:
		return "BLOCK_INFO"
	case EvtBeforeTransf:
		return "BEFORE_TRANSFORM"
	case EvtAfterTransf:
		return "AFTER_TRANSFORM"
	case EvtBeforeEntropy:
		return "BEFORE_ENTROPY"
	case EvtAfterEntropy:
		return "AFTER_ENTROPY"
	case EvtStreamEnd:
		return "STREAM_END"
	default:
		return "UNKNOWN"
	}
}

func (e *Event) String() string {
	if len(e.msg) > 0 {
		return e.msg
	}

	hash := ""

	if e.hType != HashNone {
		hash = fmt.Sprintf(", hash=%x", e.hash)
	}

	return fmt.Sprintf("%s block=%d size=%d%s", phaseName(e.phase), e.block, e.size, hash)
}

// Listener receives Events emitted by the encoder/decoder pipeline.
// ProcessEvent must not block for long: it runs on the worker that
// produced the event.
type Listener interface {
	ProcessEvent(evt *Event)
}
