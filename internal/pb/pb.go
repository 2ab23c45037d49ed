/*
 *     Copyright 2025 The CNAI Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pb

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	humanize "github.com/dustin/go-humanize"
	mpbv8 "github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var disableProgress atomic.Bool

// SetDisableProgress turns progress rendering off for every new bar.
func SetDisableProgress(disable bool) {
	disableProgress.Store(disable)
}

// ProgressBar renders one bar per tracked file.
type ProgressBar struct {
	mu   sync.Mutex
	mpb  *mpbv8.Progress
	bars map[string]*mpbv8.Bar
}

// NewProgressBar creates a progress bar writing to stderr, or discarding
// output when progress is disabled.
func NewProgressBar() *ProgressBar {
	var out io.Writer = os.Stderr
	if disableProgress.Load() {
		out = io.Discard
	}

	return &ProgressBar{
		mpb:  mpbv8.New(mpbv8.WithWidth(60), mpbv8.WithOutput(out)),
		bars: make(map[string]*mpbv8.Bar),
	}
}

// Track returns a reader that advances the bar of name while reader is consumed.
func (p *ProgressBar) Track(prompt, name string, size int64, reader io.Reader) io.Reader {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.bars[name]; ok {
		return reader
	}

	bar := p.mpb.New(size,
		mpbv8.BarStyle(),
		mpbv8.BarFillerOnComplete("|"),
		mpbv8.PrependDecorators(
			decor.Name(fmt.Sprintf("%s => %s", prompt, name), decor.WCSyncSpaceR),
		),
		mpbv8.AppendDecorators(
			decor.OnComplete(decor.Counters(decor.SizeB1024(0), "% .2f / % .2f"), humanize.IBytes(uint64(size))),
			decor.OnComplete(decor.Name(" | ", decor.WCSyncWidthR), " | "),
			decor.OnComplete(decor.AverageSpeed(decor.SizeB1024(0), "% .2f", decor.WCSyncWidthR), "done"),
		),
	)
	p.bars[name] = bar

	return bar.ProxyReader(reader)
}

// Abort drops the bar of name, used when tracking ends with an error.
func (p *ProgressBar) Abort(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bar, ok := p.bars[name]; ok {
		bar.Abort(true)
	}
}

// Stop stops rendering, bars that did not complete are left as they are.
func (p *ProgressBar) Stop() {
	p.mpb.Shutdown()
}
