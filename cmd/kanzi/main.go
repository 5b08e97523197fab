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

// Command kanzi is the file front end of the block compressor: it
// enumerates inputs, opens sinks and drives the core stream reader
// and writer. Everything format-related happens in the io package;
// this binary only moves bytes and renders progress.
package main

import (
	"fmt"
	"os"

	kanzi "github.com/corewave/kanzi"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "kanzi",
	Short:         "kanzi is a lossless block compressor",
	Long:          "kanzi compresses and decompresses files with configurable\nreversible transforms and entropy codecs applied per block.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(decompressCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		if ioErr, ok := err.(*kanzi.IOError); ok {
			os.Exit(ioErr.ErrorCode())
		}

		os.Exit(kanzi.ERR_UNKNOWN)
	}
}
