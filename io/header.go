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

package io

import (
	"fmt"

	kanzi "github.com/corewave/kanzi"
	entropy "github.com/corewave/kanzi/entropy"
	transform "github.com/corewave/kanzi/transform"
)

const (
	streamMagic   = uint64(0x4B414E5A) // "KANZ"
	streamVersion = uint64(6)
	headerHash    = uint32(0x1E35A7BD)
)

func ckSizeToField(ckSize uint32) uint64 {
	switch ckSize {
	case 32:
		return 1
	case 64:
		return 2
	default:
		return 0
	}
}

func fieldToCkSize(field uint64) uint32 {
	switch field {
	case 1:
		return 32
	case 2:
		return 64
	default:
		return 0
	}
}

// headerCRC implements the header checksum exactly: seed from the
// version, then XOR in HASH * ~field for every fixed-width field but
// the 15 padding bits, which the format reserves without covering
// them in the checksum.
func headerCRC(ckField, entropyType uint64, chain uint64, blockSizeField uint64, hasOriginal bool, original uint64) uint32 {
	seed := uint32(0x01030507) * uint32(streamVersion)
	cksum := headerHash * seed
	cksum ^= headerHash * ^uint32(ckField)
	cksum ^= headerHash * ^uint32(entropyType)
	cksum ^= headerHash * ^uint32(chain>>32)
	cksum ^= headerHash * ^uint32(chain)
	cksum ^= headerHash * ^uint32(blockSizeField)

	if hasOriginal {
		cksum ^= headerHash * ^uint32(original>>32)
		cksum ^= headerHash * ^uint32(original)
	}

	return ((cksum >> 23) ^ (cksum >> 3)) & 0x00FFFFFF
}

func writeHeader(obs kanzi.OutputBitStream, p *Params) error {
	obs.WriteBits(streamMagic, 32)
	obs.WriteBits(streamVersion, 4)

	ckField := ckSizeToField(p.ChecksumSize)
	obs.WriteBits(ckField, 2)
	obs.WriteBits(uint64(p.entropyType), 5)
	obs.WriteBits(p.chain, 48)

	blockSizeField := uint64(p.BlockSize) >> 4
	obs.WriteBits(blockSizeField, 28)

	tag, bits := sizeTag(p.OriginalSize)
	obs.WriteBits(uint64(tag), 2)
	var original uint64

	if tag != 0 {
		original = uint64(p.OriginalSize)
		obs.WriteBits(original, bits)
	}

	obs.WriteBits(0, 15)

	crc := headerCRC(ckField, uint64(p.entropyType), p.chain, blockSizeField, tag != 0, original)
	obs.WriteBits(uint64(crc), 24)
	return nil
}

func readHeader(ibs kanzi.InputBitStream) (*Params, error) {
	magic := ibs.ReadBits(32)

	if magic != streamMagic {
		return nil, kanzi.NewIOError("invalid stream: bad magic number", kanzi.ERR_INVALID_FILE)
	}

	version := ibs.ReadBits(4)

	if version != streamVersion {
		return nil, kanzi.NewIOError(fmt.Sprintf("unsupported bitstream version %d", version), kanzi.ERR_STREAM_VERSION)
	}

	ckField := ibs.ReadBits(2)
	entropyType := ibs.ReadBits(5)
	chain := ibs.ReadBits(48)
	blockSizeField := ibs.ReadBits(28)
	tag := ibs.ReadBits(2)
	var original uint64
	originalSize := unknownSize

	if tag != 0 {
		bits := uint(16 * tag)
		original = ibs.ReadBits(bits)
		originalSize = int64(original)
	}

	ibs.ReadBits(15) // padding, reserved

	crcRead := ibs.ReadBits(24)
	crcCalc := headerCRC(ckField, entropyType, chain, blockSizeField, tag != 0, original)

	if uint64(crcCalc) != crcRead {
		return nil, kanzi.NewIOError("header CRC mismatch", kanzi.ERR_CRC_CHECK)
	}

	chainName, err := transform.ChainName(chain)

	if err != nil {
		return nil, kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
	}

	entropyName, err := entropy.Name(uint32(entropyType))

	if err != nil {
		return nil, kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
	}

	p := &Params{
		EntropyName:    entropyName,
		TransformChain: chainName,
		BlockSize:      uint32(blockSizeField << 4),
		ChecksumSize:   fieldToCkSize(ckField),
		OriginalSize:   originalSize,
		entropyType:    uint32(entropyType),
		chain:          chain,
	}

	return p, nil
}
