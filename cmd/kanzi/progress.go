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
	"os"
	"sync"

	kanzi "github.com/corewave/kanzi"
	"github.com/schollz/progressbar/v3"
)

// progressListener renders pipeline events as a byte-count progress
// bar. Events arrive from worker goroutines, hence the lock. Only one
// phase is counted per stream: EvtBeforeTransf carries the raw block
// length on encode, EvtAfterTransf the restored length on decode.
type progressListener struct {
	mu    sync.Mutex
	phase int
	bar   *progressbar.ProgressBar
}

// newProgressListener builds a listener for one stream. total is the
// uncompressed size when known, -1 for a spinner.
func newProgressListener(name string, total int64, phase int) *progressListener {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(true))

	return &progressListener{bar: bar, phase: phase}
}

func (l *progressListener) ProcessEvent(evt *kanzi.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch evt.Phase() {
	case l.phase:
		if evt.Size() > 0 {
			l.bar.Add64(evt.Size())
		}

	case kanzi.EvtStreamEnd:
		l.bar.Finish()
	}
}
