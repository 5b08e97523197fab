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
	"errors"
	"strings"

	util "github.com/corewave/kanzi/util"
)

const (
	// CR and LF drive the codec's end-of-line normalization.
	CR = byte(0x0D)
	LF = byte(0x0A)

	textEscapeWord     = byte(0x0F) // dictionary word, case preserved
	textEscapeFlipCase = byte(0x0E) // dictionary word, first letter case toggled
	textMaxDictSize     = 1 << 19
	textMaxWordLen      = 31
	textMinWordLen      = 2
)

// commonWords seeds the static dictionary with frequent short English
// words, the same role the teacher's 1024-word _TC_DICT_EN_1024 table
// plays, reduced here to keep the table itself from dwarfing the
// codec's logic; the dynamic dictionary described below picks up
// everything else a given block actually uses.
var commonWords = strings.Fields(`
the be and of in to with it that for you he have on said say at but
we by had they as would who or can may do this was is much any from
not she what their which get give has are him her come my our were
will some because there through tell when work them yet up own out
into just could over old think day way than like other how then its
people two more these been now want first new use see time man many
thing make here well only his very after without another no all
believe before off though so against while last too down today same
back take each different where between those even seen under about
one also fact must actually prevent expect contain concern school
year going cannot due ever toward girl firm glass gas keep world
still went should spend stage doctor might job continue everyone
never answer few mean difference tend need leave try nice hold
something ask warm lip cover issue happen turn look sure discover
fight mad direction agree someone fail respect notice choice begin
three system level feel meet company box show play live letter egg
number open problem fat hand measure question call remember certain
put next chair start run raise goal really home tea candidate money
business young good court find know kind help night child lot your
us eye yes word bit van month half low million high organization
red green blue white black yourself eight both little house let
despite provide service himself friend describe father development
away kill trip hour game often plant place end among since stand
`)

// textDictionary holds the static word list plus a per-block dynamic
// extension, mirroring the teacher's dictList/dictMap split: the
// static half is shared read-only process-wide state, the dynamic
// half is rebuilt from scratch on every call to Forward/Inverse since
// spec.md section 3 forbids cross-block dictionary state.
type textDictionary struct {
	words map[string]int32
	list  [][]byte
}

func newTextDictionary() *textDictionary {
	d := &textDictionary{words: make(map[string]int32, len(commonWords)*2)}

	for _, w := range commonWords {
		if len(w) < textMinWordLen || len(w) > textMaxWordLen {
			continue
		}

		cap := capitalize(w)
		d.add(w)
		d.add(cap)
	}

	return d
}

func capitalize(w string) string {
	if w == "" {
		return w
	}

	b := []byte(w)

	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 32
	}

	return string(b)
}

func (d *textDictionary) add(w string) int32 {
	if idx, ok := d.words[w]; ok {
		return idx
	}

	if len(d.list) >= textMaxDictSize {
		return -1
	}

	idx := int32(len(d.list))
	d.list = append(d.list, []byte(w))
	d.words[w] = idx
	return idx
}

func (d *textDictionary) lookup(w []byte) (int32, bool) {
	idx, ok := d.words[string(w)]
	return idx, ok
}

// TextCodec replaces dictionary words with a 1-3 byte varint index
// behind one of two escape bytes (case preserved, or first-letter
// case toggled) and normalizes CRLF to LF, restoring it on inverse;
// bytes outside the delimiter/letter alphabet pass through untouched.
// This implements the newer of the teacher's two escape encodings
// (TextCodec2 in the upstream naming, see spec.md section 9's Open
// Questions) since a new port only needs to write one variant.
type TextCodec struct{}

func NewTextCodec() (*TextCodec, error) { return &TextCodec{}, nil }

func (t *TextCodec) MaxEncodedLen(srcLen int) int { return srcLen + srcLen/5 + 16 }

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func (t *TextCodec) Forward(src, dst []byte) (uint, uint, error) {
	n := len(src)

	if n < 64 {
		return 0, 0, errors.New("TEXT: input too small")
	}

	letters := 0

	for _, b := range src {
		if isLetter(b) || b == ' ' || b == '\n' || b == '\r' {
			letters++
		} else if b == textEscapeWord || b == textEscapeFlipCase {
			// The two escape values pass through nowhere, so a block
			// containing them literally cannot be represented.
			return 0, 0, errors.New("TEXT: block contains escape bytes")
		}
	}

	if letters < n-n/10 {
		return 0, 0, errors.New("TEXT: not text-dominated")
	}

	// A block normalizes CR+LF to LF only when every line ending in it
	// is CR+LF; otherwise a bare LF on inverse would be ambiguous with
	// one that started as CR+LF, so normalization is skipped entirely
	// for mixed-EOL blocks and a single flag byte records the choice.
	crlf, bareLF := 0, 0

	for k := 0; k < n; k++ {
		if src[k] == CR && k+1 < n && src[k+1] == LF {
			crlf++
			k++
		} else if src[k] == LF {
			bareLF++
		}
	}

	normalizeCRLF := crlf > 0 && bareLF == 0

	if len(dst) < 1 {
		return 0, 0, errors.New("TEXT: output buffer too small")
	}

	if normalizeCRLF {
		dst[0] = 1
	} else {
		dst[0] = 0
	}

	dict := newTextDictionary()
	d := 1
	i := 0

	for i < n {
		if normalizeCRLF && src[i] == CR && i+1 < n && src[i+1] == LF {
			dst[d] = LF
			d++
			i += 2
			continue
		}

		if !isLetter(src[i]) {
			if d >= len(dst) {
				return 0, 0, errors.New("TEXT: output buffer too small")
			}

			dst[d] = src[i]
			d++
			i++
			continue
		}

		j := i

		for j < n && isLetter(src[j]) && j-i < textMaxWordLen {
			j++
		}

		word := src[i:j]
		idx, found := dict.lookup(word)

		if !found {
			flipped := flipFirstCase(word)

			if fidx, ok := dict.lookup(flipped); ok {
				idx, found = fidx, true

				if d+2+5 > len(dst) {
					return 0, 0, errors.New("TEXT: output buffer too small")
				}

				dst[d] = textEscapeFlipCase
				d++
				var buf [5]byte
				enc := util.WriteVarInt(buf[:0], uint32(idx))
				copy(dst[d:], enc)
				d += len(enc)
				dict.add(string(word))
				i = j
				continue
			}
		}

		if found {
			if d+1+5 > len(dst) {
				return 0, 0, errors.New("TEXT: output buffer too small")
			}

			dst[d] = textEscapeWord
			d++
			var buf [5]byte
			enc := util.WriteVarInt(buf[:0], uint32(idx))
			copy(dst[d:], enc)
			d += len(enc)
			i = j
			continue
		}

		dict.add(string(word))

		if d+len(word) > len(dst) {
			return 0, 0, errors.New("TEXT: output buffer too small")
		}

		copy(dst[d:], word)
		d += len(word)
		i = j
	}

	if d >= n {
		return 0, 0, errors.New("TEXT: no gain")
	}

	return uint(n), uint(d), nil
}

func flipFirstCase(w []byte) []byte {
	if len(w) == 0 {
		return w
	}

	out := append([]byte(nil), w...)

	if out[0] >= 'a' && out[0] <= 'z' {
		out[0] -= 32
	} else if out[0] >= 'A' && out[0] <= 'Z' {
		out[0] += 32
	}

	return out
}

func (t *TextCodec) Inverse(src, dst []byte) (uint, uint, error) {
	if len(src) < 1 {
		return 0, 0, errors.New("TEXT: truncated header")
	}

	normalizeCRLF := src[0] == 1
	dict := newTextDictionary()
	s, d := 1, 0

	emit := func(w []byte) error {
		if d+len(w) > len(dst) {
			return errors.New("TEXT: output buffer too small")
		}

		copy(dst[d:], w)
		d += len(w)
		return nil
	}

	for s < len(src) {
		c := src[s]

		if c == textEscapeWord || c == textEscapeFlipCase {
			s++
			idx, nb, err := util.ReadVarInt(src, s)

			if err != nil {
				return 0, 0, err
			}

			s += nb

			if int(idx) >= len(dict.list) {
				return 0, 0, errors.New("TEXT: dictionary index out of range")
			}

			word := dict.list[idx]

			if c == textEscapeFlipCase {
				word = flipFirstCase(word)
			}

			if err := emit(word); err != nil {
				return 0, 0, err
			}

			if c == textEscapeFlipCase {
				// The encoder adds the as-appeared form to its
				// dynamic dictionary on a flip-case hit; mirror it
				// or every later index drifts by one.
				dict.add(string(word))
			}

			continue
		}

		if c == LF && normalizeCRLF {
			if d+2 > len(dst) {
				return 0, 0, errors.New("TEXT: output buffer too small")
			}

			dst[d] = CR
			dst[d+1] = LF
			d += 2
			s++
			continue
		}

		if !isLetter(c) {
			if d >= len(dst) {
				return 0, 0, errors.New("TEXT: output buffer too small")
			}

			dst[d] = c
			d++
			s++
			continue
		}

		j := s

		for j < len(src) && isLetter(src[j]) && j-s < textMaxWordLen {
			j++
		}

		word := src[s:j]

		if err := emit(word); err != nil {
			return 0, 0, err
		}

		dict.add(string(word))
		s = j
	}

	return uint(len(src)), uint(d), nil
}
