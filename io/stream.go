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
	"io"
	"math/bits"
	"runtime"
	"sync"
	"sync/atomic"

	kanzi "github.com/corewave/kanzi"
	"github.com/corewave/kanzi/bitstream"
	"github.com/corewave/kanzi/entropy"
	"github.com/corewave/kanzi/internal/kcore"
	"github.com/corewave/kanzi/transform"
	"github.com/corewave/kanzi/util"
	"github.com/corewave/kanzi/util/hash"
)

const (
	streamBufferSize = 256 * 1024
	extraBufferSize  = 512
	smallBlockSize   = 15
	cancelTasksID    = int32(-1)

	copyBlockMask = byte(0x80)
	transformsBit = byte(0x10)
)

func notifyListeners(listeners []kanzi.Listener, evt *kanzi.Event) {
	defer func() { recover() }()

	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}

func newChecksum(size uint32) func([]byte) uint64 {
	switch size {
	case 32:
		return func(b []byte) uint64 { return uint64(hash.Sum32(b, 0)) }
	case 64:
		return func(b []byte) uint64 { return hash.Sum64(b, 0) }
	default:
		return nil
	}
}

// detectDataType mirrors the encoder pipeline's step 3: magic numbers
// take priority over histogram shape.
func detectDataType(block []byte) kcore.DataType {
	if len(block) >= 4 {
		magic := kcore.DetectMagic(block)

		if kcore.IsCompressed(magic) {
			return kcore.DTBin
		}

		if kcore.IsMultimedia(magic) {
			return kcore.DTMultimedia
		}

		if kcore.IsExecutable(magic) {
			return kcore.DTExe
		}
	}

	var freqs [256]int
	kcore.Histogram(block, freqs[:], true, false)
	return kcore.DetectSimpleType(len(block), freqs[:])
}

func looksIncompressible(block []byte) bool {
	if len(block) >= 8 && kcore.IsCompressed(kcore.DetectMagic(block)) {
		return true
	}

	var freqs [256]int
	kcore.Histogram(block, freqs[:], true, false)
	return kcore.Entropy1024(len(block), freqs[:]) >= entropy.IncompressibleThreshold1024
}

func bytesNeeded(n uint32) uint {
	switch {
	case n < 1<<8:
		return 1
	case n < 1<<16:
		return 2
	case n < 1<<24:
		return 3
	default:
		return 4
	}
}

// blockLenFieldWidth returns Lw, the width of the field that carries
// dataBits itself: max(3, ceil(log2(dataBits))+1).
func blockLenFieldWidth(dataBits uint64) uint {
	if dataBits < 2 {
		return 3
	}

	if w := uint(bits.Len64(dataBits-1)) + 1; w > 3 {
		return w
	}

	return 3
}

func writeEndOfStream(obs kanzi.OutputBitStream) {
	obs.WriteBits(0, 5)
	obs.WriteBits(0, 3)
}

type blockBuffer struct {
	// Enclose the slice in a struct so a stream and its tasks can
	// share and re-allocate it without copying the header around.
	Buf []byte
}

type encodingTaskResult struct {
	err *kanzi.IOError
}

type decodingTaskResult struct {
	err      *kanzi.IOError
	data     []byte
	decoded  int
	blockID  int
	skipped  bool
	checksum uint64
}

// CompressedOutputStream is an io.WriteCloser that compresses
// everything written to it into the framed block bitstream. Blocks
// are encoded by up to Jobs concurrent tasks; the shared bit stream
// is written in strict block order through the sequential gate.
type CompressedOutputStream struct {
	params      *Params
	obs         kanzi.OutputBitStream
	hasher      func([]byte) uint64
	buffers     []blockBuffer
	listeners   []kanzi.Listener
	initialized int32
	closed      int32
	blockID     int32
	available   int
}

// NewCompressedOutputStream wraps sink with a compressing writer
// configured by p. The header (unless p.Headerless) is written lazily,
// on the first block.
func NewCompressedOutputStream(sink io.WriteCloser, p *Params) (*CompressedOutputStream, error) {
	obs, err := bitstream.NewWriter(sink, streamBufferSize)

	if err != nil {
		return nil, kanzi.NewIOError(fmt.Sprintf("cannot create output bit stream: %v", err), kanzi.ERR_CREATE_BITSTREAM)
	}

	return NewCompressedOutputStreamWithBitStream(obs, p)
}

// NewCompressedOutputStreamWithBitStream is the lower-level entry
// point for callers that already own a bit stream.
func NewCompressedOutputStreamWithBitStream(obs kanzi.OutputBitStream, p *Params) (*CompressedOutputStream, error) {
	if obs == nil {
		return nil, kanzi.NewIOError("invalid null output bitstream", kanzi.ERR_CREATE_STREAM)
	}

	if p == nil {
		return nil, kanzi.NewIOError("invalid null parameters", kanzi.ERR_CREATE_STREAM)
	}

	if err := p.resolve(); err != nil {
		return nil, err
	}

	s := &CompressedOutputStream{params: p, obs: obs}
	s.hasher = newChecksum(p.ChecksumSize)
	s.buffers = make([]blockBuffer, 2*p.Jobs)

	// The first input buffer is allocated eagerly with headroom for
	// incompressible blocks; the others stay empty until their slot
	// is first used.
	s.buffers[0] = blockBuffer{Buf: make([]byte, bufferSizeFor(int(p.BlockSize)))}

	for i := 1; i < len(s.buffers); i++ {
		s.buffers[i] = blockBuffer{Buf: make([]byte, 0)}
	}

	return s, nil
}

func bufferSizeFor(blockSize int) int {
	sz := blockSize + blockSize>>6

	if sz < 65536 {
		sz = 65536
	}

	return sz
}

// AddListener registers a pipeline event listener.
func (s *CompressedOutputStream) AddListener(l kanzi.Listener) bool {
	if l == nil {
		return false
	}

	s.listeners = append(s.listeners, l)
	return true
}

// RemoveListener unregisters a previously added listener.
func (s *CompressedOutputStream) RemoveListener(l kanzi.Listener) bool {
	for i, e := range s.listeners {
		if e == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return true
		}
	}

	return false
}

// Write buffers p into the current block, submitting full blocks to
// the encoding pipeline as thresholds are crossed. It returns the
// number of bytes consumed and the first error encountered.
func (s *CompressedOutputStream) Write(p []byte) (int, error) {
	if atomic.LoadInt32(&s.closed) == 1 {
		return 0, kanzi.NewIOError("stream closed", kanzi.ERR_WRITE_FILE)
	}

	off := 0
	remaining := len(p)
	blockSize := int(s.params.BlockSize)

	for remaining > 0 {
		bufOff := s.available % blockSize
		lenChunk := blockSize - bufOff

		if lenChunk > remaining {
			lenChunk = remaining
		}

		bufID := s.available / blockSize
		copy(s.buffers[bufID].Buf[bufOff:], p[off:off+lenChunk])
		off += lenChunk
		remaining -= lenChunk
		s.available += lenChunk

		if bufOff+lenChunk >= blockSize {
			if bufID+1 < int(s.params.Jobs) {
				// Rotate to the next input slot.
				if len(s.buffers[bufID+1].Buf) == 0 {
					s.buffers[bufID+1].Buf = make([]byte, bufferSizeFor(blockSize))
				}
			} else if err := s.processBlocks(); err != nil {
				return len(p) - remaining, err
			}
		}
	}

	return len(p), nil
}

// processBlocks drains the filled input buffers through one batch of
// concurrent encoding tasks, one task per block.
func (s *CompressedOutputStream) processBlocks() error {
	if atomic.SwapInt32(&s.initialized, 1) == 0 && !s.params.Headerless {
		if err := writeHeader(s.obs, s.params); err != nil {
			return kanzi.NewIOError(err.Error(), kanzi.ERR_WRITE_FILE)
		}
	}

	if s.available == 0 {
		return nil
	}

	listeners := make([]kanzi.Listener, len(s.listeners))
	copy(listeners, s.listeners)

	blockSize := int(s.params.BlockSize)
	firstID := s.blockID
	var wg sync.WaitGroup
	results := make([]encodingTaskResult, s.params.Jobs)
	tasks := 0

	for taskID := 0; taskID < int(s.params.Jobs) && s.available > 0; taskID++ {
		dataLength := s.available

		if dataLength > blockSize {
			dataLength = blockSize
		}

		s.available -= dataLength
		wg.Add(1)
		tasks++

		t := &encodingTask{
			iBuffer:          &s.buffers[taskID],
			oBuffer:          &s.buffers[int(s.params.Jobs)+taskID],
			hasher:           s.hasher,
			blockLength:      dataLength,
			params:           s.params,
			currentBlockID:   firstID + int32(taskID) + 1,
			processedBlockID: &s.blockID,
			wg:               &wg,
			listeners:        listeners,
			obs:              s.obs,
		}

		go t.encode(&results[taskID])
	}

	wg.Wait()

	for i := 0; i < tasks; i++ {
		if results[i].err != nil {
			return results[i].err
		}
	}

	return nil
}

// Close submits the last partial block, writes the end-of-stream
// terminator and closes the underlying bit stream. Idempotent.
func (s *CompressedOutputStream) Close() error {
	if atomic.SwapInt32(&s.closed, 1) == 1 {
		return nil
	}

	if err := s.processBlocks(); err != nil {
		return err
	}

	if atomic.LoadInt32(&s.blockID) == cancelTasksID {
		return kanzi.NewIOError("stream canceled", kanzi.ERR_PROCESS_BLOCK)
	}

	writeEndOfStream(s.obs)

	if err := s.obs.Close(); err != nil {
		return err
	}

	if len(s.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtStreamEnd, int(s.blockID), int64(s.GetWritten()), 0, kanzi.HashNone)
		notifyListeners(s.listeners, evt)
	}

	for i := range s.buffers {
		s.buffers[i] = blockBuffer{Buf: make([]byte, 0)}
	}

	return nil
}

// GetWritten returns the number of bytes emitted so far.
func (s *CompressedOutputStream) GetWritten() uint64 {
	return (s.obs.Written() + 7) >> 3
}

type encodingTask struct {
	iBuffer          *blockBuffer
	oBuffer          *blockBuffer
	hasher           func([]byte) uint64
	blockLength      int
	params           *Params
	currentBlockID   int32
	processedBlockID *int32
	wg               *sync.WaitGroup
	listeners        []kanzi.Listener
	obs              kanzi.OutputBitStream
}

// encode runs the transform+entropy stages into a task-local buffer,
// then waits on the sequential gate and emits the whole frame to the
// shared bit stream.
//
// Frame mode byte:
//
//	bit  7     copy block (transform and entropy forced to NONE)
//	bits 6-5   byte width of the pre-transform length field, minus 1
//	bit  4     skip flags are in the next byte (more than 4 stages)
//	bits 3-0   skip flags, when bit 4 is clear
func (t *encodingTask) encode(res *encodingTaskResult) {
	data := t.iBuffer.Buf
	buffer := t.oBuffer.Buf
	mode := byte(0)
	var checksum uint64

	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_PROCESS_BLOCK)
			} else {
				res.err = kanzi.NewIOError(fmt.Sprintf("%v", r), kanzi.ERR_PROCESS_BLOCK)
			}
		}

		if res.err != nil {
			atomic.StoreInt32(t.processedBlockID, cancelTasksID)
		} else if atomic.LoadInt32(t.processedBlockID) == t.currentBlockID-1 {
			atomic.StoreInt32(t.processedBlockID, t.currentBlockID)
		}

		t.wg.Done()
	}()

	if t.hasher != nil {
		checksum = t.hasher(data[0:t.blockLength])
	}

	if len(t.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtBeforeTransf, int(t.currentBlockID),
			int64(t.blockLength), checksum, int(t.params.ChecksumSize))
		notifyListeners(t.listeners, evt)
	}

	chain := t.params.chain
	entropyType := t.params.entropyType

	if t.blockLength <= smallBlockSize {
		chain = transform.NoneType
		entropyType = entropy.NoneType
		mode |= copyBlockMask
	} else if t.params.SkipBlocks && looksIncompressible(data[0:t.blockLength]) {
		chain = transform.NoneType
		entropyType = entropy.NoneType
		mode |= copyBlockMask
	}

	tp := &transform.Params{BlockID: int(t.currentBlockID)}

	if mode&copyBlockMask == 0 {
		tp.DataType = detectDataType(data[0:t.blockLength])
	}

	seq, err := transform.NewSequence(chain, tp)

	if err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_CREATE_CODEC)
		return
	}

	requiredSize := seq.MaxEncodedLen(t.blockLength)

	if len(data) < requiredSize {
		data = append(data, make([]byte, requiredSize-len(data))...)
		t.iBuffer.Buf = data
	}

	if len(buffer) < requiredSize {
		buffer = append(buffer, make([]byte, requiredSize-len(buffer))...)
		t.oBuffer.Buf = buffer
	}

	_, postTransformLength, err := seq.Forward(data[0:t.blockLength], buffer)

	if err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_PROCESS_BLOCK)
		return
	}

	if uint64(postTransformLength) >= 1<<32 {
		res.err = kanzi.NewIOError("invalid block data length", kanzi.ERR_WRITE_FILE)
		return
	}

	dataSize := bytesNeeded(uint32(postTransformLength))
	mode |= byte(((dataSize - 1) & 0x03) << 5)

	if len(t.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtAfterTransf, int(t.currentBlockID),
			int64(postTransformLength), checksum, int(t.params.ChecksumSize))
		notifyListeners(t.listeners, evt)
	}

	// The frame is built in a bitstream local to this task so the
	// CPU-heavy entropy coding never touches the shared stream.
	frameSize := int(postTransformLength) + t.blockLength>>3

	if frameSize < 512*1024 {
		frameSize = 512 * 1024
	}

	if len(data) < frameSize {
		data = make([]byte, frameSize)
		t.iBuffer.Buf = data
	}

	bufStream := util.NewBufferStream(data[0:0:cap(data)])
	obs, _ := bitstream.NewWriter(bufStream, 16384)

	if mode&copyBlockMask != 0 || seq.Len() <= 4 {
		mode |= seq.SkipFlags() >> 4
		obs.WriteBits(uint64(mode), 8)
	} else {
		mode |= transformsBit
		obs.WriteBits(uint64(mode), 8)
		obs.WriteBits(uint64(seq.SkipFlags()), 8)
	}

	obs.WriteBits(uint64(postTransformLength), 8*dataSize)

	if t.hasher != nil {
		obs.WriteBits(checksum, uint(t.params.ChecksumSize))
	}

	if len(t.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtBeforeEntropy, int(t.currentBlockID),
			int64(postTransformLength), checksum, int(t.params.ChecksumSize))
		notifyListeners(t.listeners, evt)
	}

	// Rebuilt per block: entropy statistics never cross blocks.
	ee, err := entropy.NewEntropyEncoder(obs, entropyType)

	if err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_CREATE_CODEC)
		return
	}

	if _, err = ee.Write(buffer[0:postTransformLength]); err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_PROCESS_BLOCK)
		return
	}

	// Dispose may still write to the local bitstream.
	ee.Dispose()
	obs.Close()
	written := obs.Written()
	frame := bufStream.Bytes()

	// Sequential gate: wait for the previous block to be emitted.
	for {
		id := atomic.LoadInt32(t.processedBlockID)

		if id == cancelTasksID {
			return
		}

		if id == t.currentBlockID-1 {
			break
		}

		runtime.Gosched()
	}

	if len(t.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtAfterEntropy, int(t.currentBlockID),
			int64((written+7)>>3), checksum, int(t.params.ChecksumSize))
		notifyListeners(t.listeners, evt)
	}

	lw := blockLenFieldWidth(written)
	t.obs.WriteBits(uint64(lw-3), 5)
	t.obs.WriteBits(written, lw)

	for n, left := 0, written; left > 0; {
		chunk := uint64(1) << 30

		if left < chunk {
			chunk = left
		}

		t.obs.WriteArray(frame[n:], uint(chunk))
		n += int((chunk + 7) >> 3)
		left -= chunk
	}
}

// CompressedInputStream is an io.ReadCloser that decompresses a
// framed block bitstream produced by CompressedOutputStream. Up to
// Jobs blocks are decoded concurrently; bytes come back to the caller
// in block order.
type CompressedInputStream struct {
	params      *Params
	ibs         kanzi.InputBitStream
	hasher      func([]byte) uint64
	buffers     []blockBuffer
	listeners   []kanzi.Listener
	initialized int32
	closed      int32
	blockID     int32
	available   int
	consumed    int
}

// NewCompressedInputStream wraps source with a decompressing reader.
// In headerless mode p must carry the full parameter set the encoder
// used; otherwise only Jobs (and the optional From/To block range)
// are read from p and the rest comes from the stream header.
func NewCompressedInputStream(source io.ReadCloser, p *Params) (*CompressedInputStream, error) {
	ibs, err := bitstream.NewReader(source, streamBufferSize)

	if err != nil {
		return nil, kanzi.NewIOError(fmt.Sprintf("cannot create input bit stream: %v", err), kanzi.ERR_CREATE_BITSTREAM)
	}

	return NewCompressedInputStreamWithBitStream(ibs, p)
}

// NewCompressedInputStreamWithBitStream is the lower-level entry
// point for callers that already own a bit stream.
func NewCompressedInputStreamWithBitStream(ibs kanzi.InputBitStream, p *Params) (*CompressedInputStream, error) {
	if ibs == nil {
		return nil, kanzi.NewIOError("invalid null input bitstream", kanzi.ERR_CREATE_STREAM)
	}

	if p == nil {
		return nil, kanzi.NewIOError("invalid null parameters", kanzi.ERR_CREATE_STREAM)
	}

	if p.Jobs == 0 || p.Jobs > maxConcurrency {
		return nil, kanzi.NewIOError(fmt.Sprintf("jobs must be in [1..%d], got %d", maxConcurrency, p.Jobs), kanzi.ERR_CREATE_STREAM)
	}

	if p.Headerless {
		if err := p.resolve(); err != nil {
			return nil, err
		}
	}

	s := &CompressedInputStream{params: p, ibs: ibs}
	s.buffers = make([]blockBuffer, 2*p.Jobs)

	for i := range s.buffers {
		s.buffers[i] = blockBuffer{Buf: make([]byte, 0)}
	}

	return s, nil
}

// AddListener registers a pipeline event listener.
func (s *CompressedInputStream) AddListener(l kanzi.Listener) bool {
	if l == nil {
		return false
	}

	s.listeners = append(s.listeners, l)
	return true
}

// RemoveListener unregisters a previously added listener.
func (s *CompressedInputStream) RemoveListener(l kanzi.Listener) bool {
	for i, e := range s.listeners {
		if e == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return true
		}
	}

	return false
}

func (s *CompressedInputStream) initialize() error {
	if s.params.Headerless {
		return nil
	}

	hp, err := readHeader(s.ibs)

	if err != nil {
		return err
	}

	if hp.BlockSize < minBlockSize || hp.BlockSize > maxBlockSize {
		return kanzi.NewIOError(fmt.Sprintf("invalid bitstream, incorrect block size: %d", hp.BlockSize), kanzi.ERR_BLOCK_SIZE)
	}

	// Header parameters win; the caller keeps Jobs and the decode range.
	hp.Jobs = s.params.Jobs
	hp.From = s.params.From
	hp.To = s.params.To
	s.params = hp

	if len(s.listeners) > 0 {
		msg := fmt.Sprintf("Using %v entropy codec, %v transform, block size %d",
			hp.EntropyName, hp.TransformChain, hp.BlockSize)
		evt := kanzi.NewMessageEvent(kanzi.EvtHeaderDecoded, 0, msg)
		notifyListeners(s.listeners, evt)
	}

	return nil
}

// Read decodes up to len(p) bytes into p, in block order. It returns
// io.EOF after the end-of-stream terminator frame.
func (s *CompressedInputStream) Read(p []byte) (int, error) {
	if atomic.LoadInt32(&s.closed) == 1 {
		return 0, kanzi.NewIOError("stream closed", kanzi.ERR_READ_FILE)
	}

	if atomic.SwapInt32(&s.initialized, 1) == 0 {
		if err := s.initialize(); err != nil {
			return 0, err
		}

		s.hasher = newChecksum(s.params.ChecksumSize)
	}

	off := 0
	remaining := len(p)
	blockSize := int(s.params.BlockSize)

	for remaining > 0 {
		bufOff := s.consumed % blockSize
		avail := s.available

		if avail > blockSize-bufOff {
			avail = blockSize - bufOff
		}

		lenChunk := remaining

		if lenChunk > avail {
			lenChunk = avail
		}

		if lenChunk > 0 {
			bufID := s.consumed / blockSize
			copy(p[off:], s.buffers[bufID].Buf[bufOff:bufOff+lenChunk])
			off += lenChunk
			remaining -= lenChunk
			s.available -= lenChunk
			s.consumed += lenChunk

			if s.available > 0 && bufOff+lenChunk >= blockSize {
				continue
			}

			if remaining == 0 {
				break
			}
		}

		if s.available == 0 {
			var err error

			if s.available, err = s.processBlocks(); err != nil {
				return len(p) - remaining, err
			}

			if s.available == 0 {
				if len(p) == remaining {
					return 0, io.EOF
				}

				break
			}
		}
	}

	return len(p) - remaining, nil
}

// processBlocks runs one batch of concurrent decoding tasks and
// returns the total number of bytes they produced.
func (s *CompressedInputStream) processBlocks() (int, error) {
	if atomic.LoadInt32(&s.blockID) == cancelTasksID {
		return 0, nil
	}

	listeners := make([]kanzi.Listener, len(s.listeners))
	copy(listeners, s.listeners)

	blockSize := int(s.params.BlockSize)
	blkSize := blockSize + extraBufferSize

	if blkSize < blockSize+blockSize>>4 {
		blkSize = blockSize + blockSize>>4
	}

	decoded := 0

	for {
		nbTasks := int(s.params.Jobs)
		results := make([]decodingTaskResult, nbTasks)
		var wg sync.WaitGroup
		firstID := s.blockID

		for taskID := 0; taskID < nbTasks; taskID++ {
			if len(s.buffers[taskID].Buf) < blkSize {
				s.buffers[taskID].Buf = make([]byte, blkSize)
			}

			wg.Add(1)

			t := &decodingTask{
				iBuffer:          &s.buffers[taskID],
				oBuffer:          &s.buffers[nbTasks+taskID],
				hasher:           s.hasher,
				blockLength:      blkSize,
				params:           s.params,
				currentBlockID:   firstID + int32(taskID) + 1,
				processedBlockID: &s.blockID,
				wg:               &wg,
				listeners:        listeners,
				ibs:              s.ibs,
			}

			go t.decode(&results[taskID])
		}

		wg.Wait()
		skipped := 0

		for _, r := range results {
			if r.decoded > blockSize {
				return decoded, kanzi.NewIOError("invalid data", kanzi.ERR_PROCESS_BLOCK)
			}

			decoded += r.decoded

			if r.err != nil {
				return decoded, r.err
			}

			if r.skipped {
				skipped++
			}
		}

		// Compact the produced blocks to the front buffers: a skipped
		// block leaves no gap, so the consumer's positional indexing by
		// block size stays valid.
		slot := 0

		for _, r := range results {
			if r.decoded == 0 {
				continue
			}

			copy(s.buffers[slot].Buf, r.data[0:r.decoded])
			slot++

			if len(listeners) > 0 {
				evt := kanzi.NewEvent(kanzi.EvtAfterTransf, r.blockID,
					int64(r.decoded), r.checksum, int(s.params.ChecksumSize))
				notifyListeners(listeners, evt)
			}
		}

		// A batch in which every block fell outside the decode range
		// produced nothing for the caller; read the next one.
		if skipped != nbTasks {
			break
		}
	}

	s.consumed = 0
	return decoded, nil
}

// Close cancels outstanding work and closes the underlying bit
// stream. Idempotent.
func (s *CompressedInputStream) Close() error {
	if atomic.SwapInt32(&s.closed, 1) == 1 {
		return nil
	}

	atomic.StoreInt32(&s.blockID, cancelTasksID)

	if err := s.ibs.Close(); err != nil {
		return err
	}

	if len(s.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtStreamEnd, 0, int64(s.GetRead()), 0, kanzi.HashNone)
		notifyListeners(s.listeners, evt)
	}

	s.available = 0

	for i := range s.buffers {
		s.buffers[i] = blockBuffer{Buf: make([]byte, 0)}
	}

	return nil
}

// GetRead returns the number of compressed bytes consumed so far.
func (s *CompressedInputStream) GetRead() uint64 {
	return (s.ibs.Read() + 7) >> 3
}

type decodingTask struct {
	iBuffer          *blockBuffer
	oBuffer          *blockBuffer
	hasher           func([]byte) uint64
	blockLength      int
	params           *Params
	currentBlockID   int32
	processedBlockID *int32
	wg               *sync.WaitGroup
	listeners        []kanzi.Listener
	ibs              kanzi.InputBitStream
}

// decode reads the next frame off the shared bit stream under the
// sequential gate, releases the gate, then runs entropy decode and
// the inverse transform chain concurrently with its siblings.
func (t *decodingTask) decode(res *decodingTaskResult) {
	data := t.iBuffer.Buf
	buffer := t.oBuffer.Buf
	decoded := 0
	var checksum1 uint64
	skipped := false

	defer func() {
		res.data = t.iBuffer.Buf
		res.decoded = decoded
		res.blockID = int(t.currentBlockID)
		res.checksum = checksum1
		res.skipped = skipped

		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_PROCESS_BLOCK)
			} else {
				res.err = kanzi.NewIOError(fmt.Sprintf("%v", r), kanzi.ERR_PROCESS_BLOCK)
			}

			res.decoded = 0
		}

		if res.err != nil || (res.decoded == 0 && !res.skipped) {
			atomic.StoreInt32(t.processedBlockID, cancelTasksID)
		} else if atomic.LoadInt32(t.processedBlockID) == t.currentBlockID-1 {
			atomic.StoreInt32(t.processedBlockID, t.currentBlockID)
		}

		t.wg.Done()
	}()

	// Sequential gate: only the task owning the next block id may
	// touch the shared bit stream.
	for {
		id := atomic.LoadInt32(t.processedBlockID)

		if id == cancelTasksID {
			return
		}

		if id == t.currentBlockID-1 {
			break
		}

		runtime.Gosched()
	}

	lw := uint(t.ibs.ReadBits(5)) + 3
	read := t.ibs.ReadBits(lw)

	if read == 0 {
		// End-of-stream terminator.
		return
	}

	if read > uint64(1)<<34 {
		res.err = kanzi.NewIOError("invalid block size", kanzi.ERR_BLOCK_SIZE)
		return
	}

	r := int((read + 7) >> 3)

	if len(data) < r {
		data = append(data, make([]byte, r-len(data))...)
		t.iBuffer.Buf = data
	}

	for n, left := 0, read; left > 0; {
		chunk := uint64(1) << 30

		if left < chunk {
			chunk = left
		}

		t.ibs.ReadArray(data[n:], uint(chunk))
		n += int((chunk + 7) >> 3)
		left -= chunk
	}

	// The frame is in task-local memory: release the gate so the next
	// reader can proceed while this one decodes.
	atomic.StoreInt32(t.processedBlockID, t.currentBlockID)

	if t.params.From > 0 && int(t.currentBlockID) < t.params.From {
		skipped = true
		return
	}

	if t.params.To > 0 && int(t.currentBlockID) >= t.params.To {
		skipped = true
		return
	}

	bufStream := util.NewBufferStream(data[0:r])
	ibs, _ := bitstream.NewReader(bufStream, 16384)

	chain := t.params.chain
	entropyType := t.params.entropyType
	mode := byte(ibs.ReadBits(8))
	skipFlags := byte(0)

	if mode&copyBlockMask != 0 {
		chain = transform.NoneType
		entropyType = entropy.NoneType
	} else if mode&transformsBit != 0 {
		skipFlags = byte(ibs.ReadBits(8))
	} else {
		skipFlags = (mode << 4) | 0x0F
	}

	dataSize := uint(1 + ((mode >> 5) & 0x03))
	preTransformLength := int(ibs.ReadBits(8 * dataSize))

	if preTransformLength == 0 {
		res.err = kanzi.NewIOError("invalid block size", kanzi.ERR_BLOCK_SIZE)
		return
	}

	maxTransformLength := 3 * int(t.params.BlockSize) / 2

	if maxTransformLength < 2048 {
		maxTransformLength = 2048
	}

	if preTransformLength > maxTransformLength {
		res.err = kanzi.NewIOError(fmt.Sprintf("invalid compressed block length: %d", preTransformLength), kanzi.ERR_READ_FILE)
		return
	}

	if t.hasher != nil {
		checksum1 = ibs.ReadBits(uint(t.params.ChecksumSize))
	}

	if len(t.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtBeforeEntropy, int(t.currentBlockID),
			int64(-1), checksum1, int(t.params.ChecksumSize))
		notifyListeners(t.listeners, evt)
	}

	bufferSize := t.blockLength

	if bufferSize < preTransformLength+extraBufferSize {
		bufferSize = preTransformLength + extraBufferSize
	}

	if len(buffer) < bufferSize {
		buffer = append(buffer, make([]byte, bufferSize-len(buffer))...)
		t.oBuffer.Buf = buffer
	}

	// Rebuilt per block: entropy statistics never cross blocks.
	ed, err := entropy.NewEntropyDecoder(ibs, entropyType)

	if err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
		return
	}

	defer ed.Dispose()

	if _, err = ed.Read(buffer[0:preTransformLength]); err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_PROCESS_BLOCK)
		return
	}

	ibs.Close()

	if len(t.listeners) > 0 {
		evt := kanzi.NewEvent(kanzi.EvtAfterEntropy, int(t.currentBlockID),
			int64(ibs.Read())>>3, checksum1, int(t.params.ChecksumSize))
		notifyListeners(t.listeners, evt)

		evt = kanzi.NewEvent(kanzi.EvtBeforeTransf, int(t.currentBlockID),
			int64(preTransformLength), checksum1, int(t.params.ChecksumSize))
		notifyListeners(t.listeners, evt)
	}

	seq, err := transform.NewSequence(chain, &transform.Params{BlockID: int(t.currentBlockID)})

	if err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
		return
	}

	seq.SetSkipFlags(skipFlags)
	_, oIdx, err := seq.Inverse(buffer[0:preTransformLength], data)

	if err != nil {
		res.err = kanzi.NewIOError(err.Error(), kanzi.ERR_PROCESS_BLOCK)
		return
	}

	decoded = int(oIdx)

	if t.hasher != nil {
		checksum2 := t.hasher(data[0:decoded])

		if checksum2 != checksum1 {
			res.err = kanzi.NewIOError(fmt.Sprintf("corrupted bitstream: expected checksum %x, found %x",
				checksum1, checksum2), kanzi.ERR_CRC_CHECK)
			return
		}
	}
}
