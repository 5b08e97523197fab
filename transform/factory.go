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

package transform

import (
	"fmt"
	"strings"

	kanzi "github.com/corewave/kanzi"
	kcore "github.com/corewave/kanzi/internal/kcore"
)

// Registry ids, 6 bits wide, as laid out in spec.md section 6. A chain
// of up to 8 of these is packed MSB-first into the 48-bit transform
// chain field of the stream header, left-justified and padded on the
// right with NoneType.
const (
	NoneType  = uint64(0)
	PackType  = uint64(1)
	BWTType   = uint64(2)
	BWTSType  = uint64(3)
	LZType    = uint64(4)
	LZXType   = uint64(5)
	LZPType   = uint64(6)
	ROLZType  = uint64(7)
	ROLZXType = uint64(8)
	RLTType   = uint64(9)
	ZRLTType  = uint64(10)
	MTFTType  = uint64(11)
	RANKType  = uint64(12)
	SRTType   = uint64(13)
	TEXTType  = uint64(14)
	MMType    = uint64(15) // FSD, named MM (multimedia) in the registry
	EXEType   = uint64(16)
	UTFType   = uint64(17)
	DNAType   = uint64(18)
)

// Params carries block-level configuration alongside a transform
// chain, analogous to the teacher's context map. No transform in this
// package reads it: each decides from the block's bytes alone.
type Params struct {
	// DataType is the hint inferred at encode time from magic numbers
	// or histogram shape; a transform may refuse when it mismatches.
	DataType kcore.DataType

	// BlockID distinguishes blocks sharing one stream-wide dictionary
	// instance reset point (dictionaries are per-block, never
	// cross-block, per spec.md section 3).
	BlockID int
}

// one resolves a single registry id to a fresh, stateless transform
// instance; p is not passed on to the constructors.
func one(id uint64, p *Params) (kanzi.ByteTransform, error) {
	switch id {
	case NoneType:
		return NewNone()
	case PackType:
		return NewPack()
	case BWTType:
		return NewBWT()
	case BWTSType:
		return NewBWTS()
	case LZType:
		return NewLZ()
	case LZXType:
		return NewLZX()
	case LZPType:
		return NewLZP()
	case ROLZType:
		return NewROLZ(false)
	case ROLZXType:
		return NewROLZ(true)
	case RLTType:
		return NewRLT()
	case ZRLTType:
		return NewZRLT()
	case MTFTType:
		return NewSBRT(SBRTModeMTF)
	case RANKType:
		return NewSBRT(SBRTModeRank)
	case SRTType:
		return NewSBRT(SBRTModeSRT)
	case TEXTType:
		return NewTextCodec()
	case MMType:
		return NewFSD()
	case EXEType:
		return NewEXE()
	case UTFType:
		return NewUTF()
	case DNAType:
		return NewDNA()
	default:
		return nil, fmt.Errorf("transform: unsupported registry id %d", id)
	}
}

var typeNames = map[uint64]string{
	NoneType:  "NONE",
	PackType:  "PACK",
	BWTType:   "BWT",
	BWTSType:  "BWTS",
	LZType:    "LZ",
	LZXType:   "LZX",
	LZPType:   "LZP",
	ROLZType:  "ROLZ",
	ROLZXType: "ROLZX",
	RLTType:   "RLT",
	ZRLTType:  "ZRLT",
	MTFTType:  "MTFT",
	RANKType:  "RANK",
	SRTType:   "SRT",
	TEXTType:  "TEXT",
	MMType:    "MM",
	EXEType:   "EXE",
	UTFType:   "UTF",
	DNAType:   "DNA",
}

var nameTypes = func() map[string]uint64 {
	m := make(map[string]uint64, len(typeNames))

	for id, name := range typeNames {
		m[name] = id
	}

	return m
}()

// Name returns the canonical registry name of a single transform id.
func Name(id uint64) (string, error) {
	if name, ok := typeNames[id]; ok {
		return name, nil
	}

	return "", fmt.Errorf("transform: unsupported id %d", id)
}

// TypeOf resolves a canonical name (case-insensitive) to its registry id.
func TypeOf(name string) (uint64, error) {
	if id, ok := nameTypes[strings.ToUpper(name)]; ok {
		return id, nil
	}

	return 0, fmt.Errorf("transform: unsupported name %q", name)
}

// ParseChain resolves a '+'-separated chain of up to 8 canonical names
// (e.g. "TEXT+BWT+RANK+ZRLT") into the packed 48-bit chain field.
func ParseChain(spec string) (uint64, error) {
	if spec == "" || strings.EqualFold(spec, "NONE") {
		return NoneType, nil
	}

	parts := strings.Split(spec, "+")

	if len(parts) > 8 {
		return 0, fmt.Errorf("transform: chain has %d stages, max is 8", len(parts))
	}

	var packed uint64

	for i, p := range parts {
		id, err := TypeOf(strings.TrimSpace(p))

		if err != nil {
			return 0, err
		}

		shift := uint(8-1-i) * 6
		packed |= id << shift
	}

	// Right-pad unused stage slots with NoneType (already zero).
	return packed, nil
}

// ChainName renders a packed 48-bit chain field back to its '+'-joined
// canonical form, dropping NoneType padding stages.
func ChainName(packed uint64) (string, error) {
	var names []string

	for i := 0; i < 8; i++ {
		shift := uint(8-1-i) * 6
		id := (packed >> shift) & 0x3F

		if id == NoneType {
			continue
		}

		name, err := Name(id)

		if err != nil {
			return "", err
		}

		names = append(names, name)
	}

	if len(names) == 0 {
		return "NONE", nil
	}

	return strings.Join(names, "+"), nil
}

// Stages unpacks a 48-bit chain field into its ordered, non-padding
// registry ids (at most 8).
func Stages(packed uint64) []uint64 {
	var ids []uint64

	for i := 0; i < 8; i++ {
		shift := uint(8-1-i) * 6
		id := (packed >> shift) & 0x3F

		if id != NoneType {
			ids = append(ids, id)
		}
	}

	return ids
}
