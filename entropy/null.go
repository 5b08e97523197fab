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

package entropy

import (
	"errors"

	kanzi "github.com/corewave/kanzi"
)

// NullEncoder copies bytes through the bit stream unchanged, 8 bits
// at a time. Used for the NONE entropy registry entry and for
// copy-blocks where the pipeline decided entropy coding wasn't worth it.
type NullEncoder struct {
	bs kanzi.OutputBitStream
}

func NewNullEncoder(bs kanzi.OutputBitStream) (*NullEncoder, error) {
	if bs == nil {
		return nil, errors.New("invalid null bitstream parameter")
	}

	return &NullEncoder{bs: bs}, nil
}

func (e *NullEncoder) Write(block []byte) (int, error) {
	for _, b := range block {
		e.bs.WriteBits(uint64(b), 8)
	}

	return len(block), nil
}

func (e *NullEncoder) BitStream() kanzi.OutputBitStream { return e.bs }
func (e *NullEncoder) Dispose()                         {}

// NullDecoder is the mirror image of NullEncoder.
type NullDecoder struct {
	bs kanzi.InputBitStream
}

func NewNullDecoder(bs kanzi.InputBitStream) (*NullDecoder, error) {
	if bs == nil {
		return nil, errors.New("invalid null bitstream parameter")
	}

	return &NullDecoder{bs: bs}, nil
}

func (d *NullDecoder) Read(block []byte) (int, error) {
	for i := range block {
		block[i] = byte(d.bs.ReadBits(8))
	}

	return len(block), nil
}

func (d *NullDecoder) BitStream() kanzi.InputBitStream { return d.bs }
func (d *NullDecoder) Dispose()                        {}
