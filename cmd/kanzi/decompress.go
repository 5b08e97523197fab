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
	"io"
	"os"
	"strings"
	"sync"

	kanzi "github.com/corewave/kanzi"
	"github.com/corewave/kanzi/internal/kcore"
	kio "github.com/corewave/kanzi/io"
	"github.com/spf13/cobra"
)

var decompressFlags struct {
	output   string
	jobs     uint
	force    bool
	from     int
	to       int
	progress bool
}

var decompressCmd = &cobra.Command{
	Use:     "decompress [flags] <file>...",
	Aliases: []string{"d"},
	Short:   "decompress one or more files",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDecompress,
}

func init() {
	f := decompressCmd.Flags()
	f.StringVarP(&decompressFlags.output, "output", "o", "", "output file (single input only; default strips .knz)")
	f.UintVarP(&decompressFlags.jobs, "jobs", "j", 1, "maximum concurrent block tasks")
	f.BoolVarP(&decompressFlags.force, "force", "f", false, "overwrite existing output files")
	f.IntVar(&decompressFlags.from, "from", 0, "first block id to decode (1-based, inclusive)")
	f.IntVar(&decompressFlags.to, "to", 0, "block id to stop at (exclusive, 0 for end of stream)")
	f.BoolVarP(&decompressFlags.progress, "progress", "p", true, "display a progress bar")
}

func runDecompress(cmd *cobra.Command, args []string) error {
	if decompressFlags.output != "" && len(args) > 1 {
		return kanzi.NewIOError("--output requires a single input file", kanzi.ERR_INVALID_PARAM)
	}

	if decompressFlags.jobs == 0 {
		return kanzi.NewIOError("jobs must be at least 1", kanzi.ERR_INVALID_PARAM)
	}

	shares, err := kcore.JobShares(decompressFlags.jobs, uint(len(args)))

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_INVALID_PARAM)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(args))

	for i, name := range args {
		wg.Add(1)

		go func(i int, name string, jobs uint) {
			defer wg.Done()
			errs[i] = decompressFile(name, jobs)
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

func decompressFile(name string, jobs uint) error {
	input, err := os.Open(name)

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_OPEN_FILE)
	}

	defer input.Close()

	outName := decompressFlags.output

	if outName == "" {
		outName = strings.TrimSuffix(name, ".knz")

		if outName == name {
			outName = name + ".out"
		}
	}

	if !decompressFlags.force {
		if _, err := os.Stat(outName); err == nil {
			return kanzi.NewIOError(outName+" exists, use --force to overwrite", kanzi.ERR_OVERWRITE_FILE)
		}
	}

	output, err := os.Create(outName)

	if err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_CREATE_FILE)
	}

	params := &kio.Params{
		Jobs: jobs,
		From: decompressFlags.from,
		To:   decompressFlags.to,
	}

	cis, err := kio.NewCompressedInputStream(input, params)

	if err != nil {
		output.Close()
		os.Remove(outName)
		return err
	}

	if decompressFlags.progress {
		st, _ := input.Stat()
		var sz int64 = -1

		if st != nil {
			sz = st.Size()
		}

		cis.AddListener(newProgressListener(name, sz, kanzi.EvtAfterTransf))
	}

	n, err := io.Copy(output, cis)
	cis.Close()

	if err != nil {
		// Keep whatever was written before the failure; the caller
		// decides whether the partial output is worth anything.
		output.Close()
		return err
	}

	if err := output.Close(); err != nil {
		return kanzi.NewIOError(err.Error(), kanzi.ERR_WRITE_FILE)
	}

	fmt.Printf("%s: %d => %d bytes\n", name, cis.GetRead(), n)
	return nil
}

// copyAll pushes src through dst in block-size chunks, so the writer's
// internal buffering rotates through its slots at block granularity.
func copyAll(dst io.Writer, src io.Reader, chunk int) (int64, error) {
	buf := make([]byte, chunk)
	var total int64

	for {
		n, err := src.Read(buf)

		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}

			total += int64(n)
		}

		if err == io.EOF {
			return total, nil
		}

		if err != nil {
			return total, err
		}
	}
}
