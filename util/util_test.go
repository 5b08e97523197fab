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

package util

import (
	"bytes"
	"io"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 129, 16383, 16384, 1 << 21, 1<<28 - 1, 1 << 28, 1<<32 - 1}

	for _, v := range values {
		buf := WriteVarInt(nil, v)
		got, n, err := ReadVarInt(buf, 0)

		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}

		if got != v || n != len(buf) {
			t.Fatalf("varint %d: got %d after %d of %d bytes", v, got, n, len(buf))
		}
	}
}

func TestVarIntTruncated(t *testing.T) {
	buf := WriteVarInt(nil, 1<<30)

	if _, _, err := ReadVarInt(buf[:len(buf)-1], 0); err == nil {
		t.Fatal("accepted truncated varint")
	}

	if _, _, err := ReadVarInt(nil, 0); err == nil {
		t.Fatal("accepted empty input")
	}
}

func TestEndianHelpers(t *testing.T) {
	buf := make([]byte, 8)

	PutLittleEndian32(buf, 0x01020304)

	if !bytes.Equal(buf[:4], []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("little-endian 32 layout: %v", buf[:4])
	}

	if LittleEndian32(buf) != 0x01020304 {
		t.Fatal("little-endian 32 round trip")
	}

	PutBigEndian32(buf, 0x01020304)

	if !bytes.Equal(buf[:4], []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("big-endian 32 layout: %v", buf[:4])
	}

	PutLittleEndian64(buf, 0x0102030405060708)

	if LittleEndian64(buf) != 0x0102030405060708 {
		t.Fatal("little-endian 64 round trip")
	}

	PutBigEndian64(buf, 0x0102030405060708)

	if BigEndian64(buf) != 0x0102030405060708 {
		t.Fatal("big-endian 64 round trip")
	}

	PutLittleEndian16(buf, 0xBEEF)

	if LittleEndian16(buf) != 0xBEEF || buf[0] != 0xEF {
		t.Fatal("little-endian 16")
	}

	PutBigEndian16(buf, 0xBEEF)

	if BigEndian16(buf) != 0xBEEF || buf[0] != 0xBE {
		t.Fatal("big-endian 16")
	}
}

func TestBufferStream(t *testing.T) {
	bs := NewBufferStream(make([]byte, 0, 64))

	if n, err := bs.Write([]byte("hello ")); n != 6 || err != nil {
		t.Fatalf("write: %d, %v", n, err)
	}

	bs.Write([]byte("world"))

	out := make([]byte, 4)

	if n, err := bs.Read(out); n != 4 || err != nil || string(out) != "hell" {
		t.Fatalf("read: %d %q %v", n, out, err)
	}

	rest := make([]byte, 16)
	n, _ := bs.Read(rest)

	if string(rest[:n]) != "o world" {
		t.Fatalf("second read: %q", rest[:n])
	}

	if _, err := bs.Read(rest); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}
