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

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	kanzi "github.com/corewave/kanzi"
	"github.com/corewave/kanzi/internal/kcore"
	kio "github.com/corewave/kanzi/io"
	"github.com/spf13/cobra"
)

var compressFlags struct {
	output    string
	blockSize string
	entropy   string
	transform string
	checksum  uint32
	jobs      uint
	force     bool
	skip      bool
	progress  bool
}

var compressCmd = &cobra.Command{
	Use:     "compress [flags] <file>...",
	Aliases: []string{"c"},
	Short:   "compress one or more files",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCompress,
}

func init() {
	f := compressCmd.Flags()
	f.StringVarP(&compressFlags.output, "output", "o", "", "output file (single input only; default <input>.knz)")
	f.StringVarP(&compressFlags.blockSize, "block", "b", "4m", "block size, with optional k/m/g suffix")
	f.StringVarP(&compressFlags.entropy, "entropy", "e", "ANS0", "entropy codec (NONE, HUFFMAN, ANS0, ANS1, RANGE, FPAQ, CM, TPAQ, TPAQX)")
	f.StringVarP(&compressFlags.transform, "transform", "t", "BWT+RANK+ZRLT", "transform chain, '+'-separated")
	f.Uint32VarP(&compressFlags.checksum, "checksum", "s", 0, "block checksum size in bits (0, 32 or 64)")
	f.UintVarP(&compressFlags.jobs, "jobs", "j", 1, "maximum concurrent block tasks")
	f.BoolVarP(&compressFlags.force, "force", "f", false, "overwrite existing output files")
	f.BoolVarP(&compressFlags.skip, "skip", "x", false, "detect and copy incompressible blocks verbatim")
	f.BoolVarP(&compressFlags.progress, "progress", "p", true, "display a progress bar")
}

// parseBlockSize accepts a plain byte count or a k/m/g-suffixed one.
func parseBlockSize(s string) (uint32, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	scale := uint64(1)

	switch {
	case strings.HasSuffix(s, "k"):
		scale, s = 1024, s[:len(s)-1]
	case strings.HasSuffix(s, "m"):
		scale, s = 1024*1024, s[:len(s)-1]
	case strings.HasSuffix(s, "g"):
		scale, s = 1024*1024*1024, s[:len(s)-1]
	}

	v, err := strconv.ParseUint(s, 10, 32)

	if err != nil {
		return 0, fmt.Errorf("invalid block size %q", s)
	}

	return uint32(v * scale), nil
}

func runCompress(cmd *cobra.Command, args []string) error {
	blockSize, err := parseBlockSize(compressFlags.blockSize)

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_BLOCK_SIZE)
	}

	if compressFlags.output != "" && len(args) > 1 {
		return kanzi.NewIOError("--output requires a single input file", kanzi.ERR_INVALID_PARAM)
	}

	if compressFlags.jobs == 0 {
		return kanzi.NewIOError("jobs must be at least 1", kanzi.ERR_INVALID_PARAM)
	}

	// Workers are split across the input files; each file's stream
	// gets its share for per-block concurrency.
	shares, err := kcore.JobShares(compressFlags.jobs, uint(len(args)))

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_PARAM)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(args))

	for i, name := range args {
		wg.Add(1)

		go func(i int, name string, jobs uint) {
			defer wg.Done()
			errs[i] = compressFile(name, jobs, blockSize)
		}(i, name, shares[i])
	}

	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return e
		}
	}

	return nil
}

func compressFile(name string, jobs uint, blockSize uint32) error {
	input, err := os.Open(name)

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_OPEN_FILE)
	}

	defer input.Close()

	st, err := input.Stat()

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_OPEN_FILE)
	}

	if st.IsDir() {
		return kanzi.NewIOError(name+" is a directory", kanzi.ERR_OPEN_FILE)
	}

	outName := compressFlags.output

	if outName == "" {
		outName = name + ".knz"
	}

	if !compressFlags.force {
		if _, err := os.Stat(outName); err == nil {
			return kanzi.NewIOError(outName+" exists, use --force to overwrite", kanzi.ERR_OVERWRITE_FILE)
		}
	}

	output, err := os.Create(outName)

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_CREATE_FILE)
	}

	params := kio.NewParams()
	params.EntropyName = compressFlags.entropy
	params.TransformChain = compressFlags.transform
	params.BlockSize = blockSize
	params.ChecksumSize = compressFlags.checksum
	params.Jobs = jobs
	params.OriginalSize = st.Size()
	params.SkipBlocks = compressFlags.skip

	cos, err := kio.NewCompressedOutputStream(output, params)

	if err != nil {
		output.Close()
		os.Remove(outName)
		return err
	}

	if compressFlags.progress {
		cos.AddListener(newProgressListener(name, st.Size(), kanzi.EvtBeforeTransf))
	}

	n, err := copyAll(cos, input, int(blockSize))

	if err == nil {
		err = cos.Close()
	} else {
		cos.Close()
	}

	if err != nil {
		output.Close()
		os.Remove(outName)
		return err
	}

	if err := output.Close(); err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_WRITE_FILE)
	}

	fmt.Printf("%s: %d => %d bytes\n", name, n, cos.GetWritten())
	return nil
}
