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

// Package io assembles the transform and entropy packages into the
// compressed bit stream container: a header, a sequence of per-block
// frames, and an end-of-stream terminator, read and written by a
// bounded-parallelism pipeline that keeps the shared bit stream in
// strict block order while the CPU-heavy work runs concurrently.
package io

import (
	"fmt"

	kanzi "github.com/corewave/kanzi"
	entropy "github.com/corewave/kanzi/entropy"
	transform "github.com/corewave/kanzi/transform"
)

const (
	minBlockSize     = 1024
	maxBlockSize     = 1 << 30
	maxConcurrency   = 64
	unknownSize      = int64(-1)
	minEntropyChunk  = 1024
	defaultBlockSize = 4 * 1024 * 1024
)

// Params carries everything an encoder needs to build a stream, and
// everything a decoder needs to interpret one in headerless mode. The
// zero value is not valid; use NewParams for the usual defaults.
type Params struct {
	// EntropyName and TransformChain are canonical registry names
	// ("HUFFMAN", "TEXT+BWT+RANK+ZRLT", ...); resolved to registry
	// ids at stream-construction time.
	EntropyName    string
	TransformChain string

	BlockSize    uint32
	ChecksumSize uint32 // 0, 32 or 64
	Jobs         uint

	// OriginalSize is the exact uncompressed length, if known up
	// front; unknownSize otherwise. Written into the header's
	// original-size tag/field.
	OriginalSize int64

	SkipBlocks bool
	Headerless bool

	// From/To restrict decode to a half-open block-id range [From, To);
	// zero values mean unrestricted. Block ids are 1-based.
	From, To int

	entropyType uint32
	chain       uint64
}

// NewParams returns Params with the usual defaults: Huffman entropy
// coding behind a BWT chain, a 4 MiB block, one job, no checksum.
func NewParams() *Params {
	return &Params{
		EntropyName:    "HUFFMAN",
		TransformChain: "BWT+RANK+ZRLT",
		BlockSize:      defaultBlockSize,
		ChecksumSize:   0,
		Jobs:           1,
		OriginalSize:   unknownSize,
	}
}

// resolve validates the parameter set and fills in entropyType/chain,
// returning an *kanzi.IOError on the first problem found.
func (p *Params) resolve() error {
	if p.Jobs == 0 || p.Jobs > maxConcurrency {
		return kanzi.NewIOError(fmt.Sprintf("jobs must be in [1..%d], got %d", maxConcurrency, p.Jobs), kanzi.ERR_CREATE_STREAM)
	}

	if p.BlockSize < minBlockSize || p.BlockSize > maxBlockSize {
		return kanzi.NewIOError(fmt.Sprintf("block size must be in [%d..%d]", minBlockSize, maxBlockSize), kanzi.ERR_BLOCK_SIZE)
	}

	if p.BlockSize&15 != 0 {
		return kanzi.NewIOError("block size must be a multiple of 16", kanzi.ERR_BLOCK_SIZE)
	}

	if p.ChecksumSize != 0 && p.ChecksumSize != 32 && p.ChecksumSize != 64 {
		return kanzi.NewIOError("checksum size must be 0, 32 or 64", kanzi.ERR_INVALID_PARAM)
	}

	et, err := entropy.TypeOf(p.EntropyName)

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
	}

	chain, err := transform.ParseChain(p.TransformChain)

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
	}

	p.entropyType = et
	p.chain = chain
	return nil
}

func sizeTag(v int64) (tag uint, bits uint) {
	if v < 0 {
		return 0, 0
	}

	u := uint64(v)

	switch {
	case u < 1<<16:
		return 1, 16
	case u < 1<<32:
		return 2, 32
	default:
		return 3, 48
	}
}
