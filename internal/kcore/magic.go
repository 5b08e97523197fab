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

package kcore

import "encoding/binary"

// Well-known container magic numbers, used both to recognize already
// compressed data (so the pipeline can skip it) and as a data-type hint.
const (
	NoMagic     = 0
	JpgMagic    = 0xFFD8FFE0
	GifMagic    = 0x47494638
	PdfMagic    = 0x25504446
	ZipMagic    = 0x504B0304
	LzmaMagic   = 0x377ABCAF
	PngMagic    = 0x89504E47
	ElfMagic    = 0x7F454C46
	MachMagic32 = 0xFEEDFACE
	MachCigam32 = 0xCEFAEDFE
	MachMagic64 = 0xFEEDFACF
	MachCigam64 = 0xCFFAEDFE
	ZstdMagic   = 0x28B52FFD
	BrotliMagic = 0x81CFB2CE
	RiffMagic   = 0x52494646
	CabMagic    = 0x4D534346
	FlacMagic   = 0x664C6143
	XzMagic     = 0xFD377A58
	RarMagic    = 0x52617221
	KnzMagic    = 0x4B414E5A

	Bzip2Magic = 0x425A68
	Mp3IdMagic = 0x494433

	GzipMagic = 0x1F8B
	BmpMagic  = 0x424D
	WinMagic  = 0x4D5A
	PbmMagic  = 0x5034
	PgmMagic  = 0x5035
	PpmMagic  = 0x5036
)

var (
	magicKeys32 = [...]uint{
		GifMagic, PdfMagic, ZipMagic, LzmaMagic, PngMagic,
		ElfMagic, MachMagic32, MachCigam32, MachMagic64, MachCigam64,
		ZstdMagic, BrotliMagic, CabMagic, RiffMagic, FlacMagic,
		XzMagic, KnzMagic, RarMagic,
	}

	magicKeys16 = [...]uint{GzipMagic, BmpMagic, WinMagic}
)

// DetectMagic inspects the first bytes of src against the known table.
// Returns NoMagic when nothing matches.
func DetectMagic(src []byte) uint {
	if len(src) < 4 {
		return NoMagic
	}

	key := uint(binary.BigEndian.Uint32(src))

	// JPEG APPn markers vary in the low nibble; collapse them all to
	// the canonical tag.
	if key&^uint(0x0F) == JpgMagic {
		return JpgMagic
	}

	if key>>8 == Bzip2Magic || key>>8 == Mp3IdMagic {
		return key >> 8
	}

	for _, k := range magicKeys32 {
		if key == k {
			return key
		}
	}

	key16 := key >> 16

	for _, k := range magicKeys16 {
		if key16 == k {
			return key16
		}
	}

	if key16 == PbmMagic || key16 == PgmMagic || key16 == PpmMagic {
		sub := (key >> 8) & 0xFF

		if sub == 0x07 || sub == 0x0A || sub == 0x0D || sub == 0x20 {
			return key16
		}
	}

	return NoMagic
}

// IsCompressed reports whether magic corresponds to an already
// compressed or otherwise entropy-dense container format.
func IsCompressed(magic uint) bool {
	switch magic {
	case JpgMagic, GifMagic, PngMagic, LzmaMagic, ZstdMagic, BrotliMagic,
		CabMagic, ZipMagic, GzipMagic, Bzip2Magic, FlacMagic, Mp3IdMagic,
		XzMagic, KnzMagic, RarMagic:
		return true
	default:
		return false
	}
}

// IsMultimedia reports whether magic corresponds to a sampled media container.
func IsMultimedia(magic uint) bool {
	switch magic {
	case JpgMagic, GifMagic, PngMagic, RiffMagic, FlacMagic, Mp3IdMagic,
		BmpMagic, PbmMagic, PgmMagic, PpmMagic:
		return true
	default:
		return false
	}
}

// IsExecutable reports whether magic corresponds to a native executable format.
func IsExecutable(magic uint) bool {
	switch magic {
	case ElfMagic, WinMagic, MachMagic32, MachCigam32, MachMagic64, MachCigam64:
		return true
	default:
		return false
	}
}
