// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package probables

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// String renders a human-readable summary of f, suitable for logging
// or an operator-facing dashboard.
func (f *Filter) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"estimated elements", humanize.Comma(int64(f.estimatedElements))},
		{"elements added", humanize.Comma(int64(f.elementsAdded))},
		{"number of bits", humanize.Comma(int64(f.numBits))},
		{"number of hashes", f.numHashes},
		{"false positive rate (target)", fmt.Sprintf("%.6f", f.fpr)},
		{"false positive rate (current)", fmt.Sprintf("%.6f", f.CurrentFalsePositiveRate())},
		{"size on disk", humanize.Bytes(uint64(len(f.bits)) + footerSize)},
	})
	return t.Render()
}

// String renders a human-readable summary of f.
func (f *CountingFilter) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"estimated elements", humanize.Comma(int64(f.estimatedElements))},
		{"elements added", humanize.Comma(int64(f.elementsAdded))},
		{"number of bits", humanize.Comma(int64(f.numBits))},
		{"number of hashes", f.numHashes},
		{"size on disk", humanize.Bytes(uint64(len(f.counters))*4 + countingFooterSize)},
	})
	return t.Render()
}

// String renders a human-readable summary of f.
func (f *CuckooFilter) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"capacity", humanize.Comma(int64(f.capacity))},
		{"bucket size", f.bucketSize},
		{"inserted elements", humanize.Comma(int64(f.inserted))},
		{"load factor", fmt.Sprintf("%.4f", f.LoadFactor())},
		{"fingerprint size (bytes)", f.fingerprintSz},
	})
	return t.Render()
}

// String renders a human-readable summary of c.
func (c *CountMinSketch) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"width", humanize.Comma(int64(c.width))},
		{"depth", humanize.Comma(int64(c.depth))},
		{"elements added", humanize.Comma(c.elementsAdded)},
		{"confidence", fmt.Sprintf("%.6f", c.Confidence())},
		{"error rate", fmt.Sprintf("%.6f", c.ErrorRate())},
	})
	return t.Render()
}
