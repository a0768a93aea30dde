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
	"encoding/binary"
	"math"
	"sort"
)

// QueryType selects how CountMinSketch.Check and Add combine a key's d
// observed cells into a single estimate.
type QueryType int

const (
	// QueryMin takes the smallest of the d cells: the classic count-min
	// estimator, always an upper bound on the true count.
	QueryMin QueryType = iota
	// QueryMean takes the integer mean of the d cells.
	QueryMean
	// QueryMeanMin corrects each cell for expected collision noise
	// before taking the median, trading worst-case guarantees for
	// better typical-case accuracy on skewed streams.
	QueryMeanMin
)

// CountMinSketch is a probabilistic frequency table: Add(key, n)
// records n occurrences of key, and Check(key) returns an estimate of
// its total count that is never below the truth (under QueryMin) at
// the cost of occasional overestimation from hash collisions.
type CountMinSketch struct {
	width, depth  uint64
	bins          []int32
	elementsAdded int64
	queryType     QueryType
	hashFunc      HashFunc
}

// NewCountMinSketch constructs a sketch from explicit width and depth.
func NewCountMinSketch(width, depth uint64) (*CountMinSketch, error) {
	return NewCountMinSketchWithHash(width, depth, DefaultHash)
}

// NewCountMinSketchWithHash is NewCountMinSketch with an explicit
// HashFunc.
func NewCountMinSketchWithHash(width, depth uint64, hash HashFunc) (*CountMinSketch, error) {
	if width == 0 || depth == 0 {
		return nil, newInitializationError("width and depth must both be greater than 0")
	}
	if hash == nil {
		hash = DefaultHash
	}
	return &CountMinSketch{
		width:    width,
		depth:    depth,
		bins:     make([]int32, width*depth),
		hashFunc: hash,
	}, nil
}

// NewCountMinSketchFromConfidence constructs a sketch sized so that its
// error bound is at most errorRate with probability confidence.
func NewCountMinSketchFromConfidence(confidence, errorRate float64) (*CountMinSketch, error) {
	width, depth, err := countMinParamsFromConfidence(confidence, errorRate)
	if err != nil {
		return nil, err
	}
	return NewCountMinSketch(width, depth)
}

func (c *CountMinSketch) Width() uint64            { return c.width }
func (c *CountMinSketch) Depth() uint64             { return c.depth }
func (c *CountMinSketch) ElementsAdded() int64       { return c.elementsAdded }
func (c *CountMinSketch) QueryType() QueryType       { return c.queryType }
func (c *CountMinSketch) SetQueryType(q QueryType)  { c.queryType = q }

// Confidence and ErrorRate report the derived accuracy parameters for
// this sketch's (width, depth).
func (c *CountMinSketch) Confidence() float64 {
	confidence, _, _ := countMinParamsFromWidthDepth(c.width, c.depth)
	return confidence
}

func (c *CountMinSketch) ErrorRate() float64 {
	_, errorRate, _ := countMinParamsFromWidthDepth(c.width, c.depth)
	return errorRate
}

func (c *CountMinSketch) rowHashes(key []byte) []uint64 {
	return c.hashFunc(key, int(c.depth))
}

func clampAddInt32(v int32, n int64) int32 {
	sum := int64(v) + n
	if sum > math.MaxInt32 {
		return math.MaxInt32
	}
	if sum < math.MinInt32 {
		return math.MinInt32
	}
	return int32(sum)
}

// Add records n occurrences of key (n may be negative, acting as
// Remove), clamping each touched cell to [INT32_MIN, INT32_MAX] and
// elements_added to [INT64_MIN, INT64_MAX]. It returns the query-
// strategy estimate computed from the cells just touched.
func (c *CountMinSketch) Add(key []byte, n int64) int64 {
	hashes := c.rowHashes(key)
	cells := make([]int32, c.depth)
	for row := uint64(0); row < c.depth; row++ {
		col := hashes[row] % c.width
		idx := row*c.width + col
		c.bins[idx] = clampAddInt32(c.bins[idx], n)
		cells[row] = c.bins[idx]
	}
	c.elementsAdded = addClampInt64(c.elementsAdded, n)
	return c.applyQuery(cells)
}

func addClampInt64(a, b int64) int64 {
	sum := a + b
	// Overflow detection for signed addition: if a and b share a sign
	// but the sum doesn't, we wrapped around.
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		if b > 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return sum
}

// Remove is Add with a negated count.
func (c *CountMinSketch) Remove(key []byte, n int64) int64 {
	return c.Add(key, -n)
}

// Check returns the query-strategy estimate of key's total recorded
// count, without modifying the sketch.
func (c *CountMinSketch) Check(key []byte) int64 {
	hashes := c.rowHashes(key)
	cells := make([]int32, c.depth)
	for row := uint64(0); row < c.depth; row++ {
		col := hashes[row] % c.width
		cells[row] = c.bins[row*c.width+col]
	}
	return c.applyQuery(cells)
}

func (c *CountMinSketch) applyQuery(cells []int32) int64 {
	switch c.queryType {
	case QueryMean:
		return meanQuery(cells)
	case QueryMeanMin:
		return meanMinQuery(cells, c.elementsAdded, c.width)
	default:
		return minQuery(cells)
	}
}

func minQuery(cells []int32) int64 {
	sorted := append([]int32(nil), cells...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return int64(sorted[0])
}

func meanQuery(cells []int32) int64 {
	var sum int64
	for _, c := range cells {
		sum += int64(c)
	}
	return sum / int64(len(cells))
}

// meanMinQuery corrects each observed cell for the expected noise
// contributed by unrelated keys hashing into the same column, then
// returns the median of the corrected values — floor of the average of
// the two middle values when depth is even, as the reference
// implementation does.
func meanMinQuery(cells []int32, elementsAdded int64, width uint64) int64 {
	corrected := make([]int64, len(cells))
	for i, t := range cells {
		diff := elementsAdded - int64(t)
		corrected[i] = int64(t) - diff/int64(width-1)
	}
	sort.Slice(corrected, func(i, j int) bool { return corrected[i] < corrected[j] })
	mid := len(corrected) / 2
	if len(corrected)%2 == 1 {
		return corrected[mid]
	}
	a, b := corrected[mid-1], corrected[mid]
	sum := a + b
	// Floor division toward negative infinity, matching the reference's
	// floor-of-average behavior for negative corrected counts.
	q := sum / 2
	if sum%2 != 0 && (sum < 0) {
		q--
	}
	return q
}

// Join merges other's counts into c in place: requires identical
// (width, depth, hash). Per-cell addition saturates exactly like Add;
// elements_added is likewise clamped.
func (c *CountMinSketch) Join(other *CountMinSketch) error {
	if c.width != other.width || c.depth != other.depth {
		return newCountMinSketchError("incompatible count-min sketch geometry")
	}
	a := c.rowHashes([]byte("test"))
	b := other.rowHashes([]byte("test"))
	for i := range a {
		if a[i] != b[i] {
			return newCountMinSketchError("incompatible count-min sketch hash function")
		}
	}
	for i := range c.bins {
		c.bins[i] = clampAddInt32(c.bins[i], int64(other.bins[i]))
	}
	c.elementsAdded = addClampInt64(c.elementsAdded, other.elementsAdded)
	return nil
}

// countMinFooterSize is the byte size of the trailing metadata block:
// width, depth (u32 each) and elements_added (i64).
const countMinFooterSize = 4 + 4 + 8

// Export serializes c: w*d row-major signed 32-bit counters, followed
// by the (width, depth, elements_added) footer.
func (c *CountMinSketch) Export() []byte {
	buf := make([]byte, len(c.bins)*4+countMinFooterSize)
	for i, v := range c.bins {
		binary.NativeEndian.PutUint32(buf[i*4:i*4+4], uint32(v))
	}
	off := len(c.bins) * 4
	binary.NativeEndian.PutUint32(buf[off:off+4], uint32(c.width))
	binary.NativeEndian.PutUint32(buf[off+4:off+8], uint32(c.depth))
	binary.NativeEndian.PutUint64(buf[off+8:off+16], uint64(c.elementsAdded))
	return buf
}

// CountMinFrombytes reconstructs a sketch from the bytes produced by
// Export.
func CountMinFrombytes(data []byte, hash HashFunc) (*CountMinSketch, error) {
	if len(data) < countMinFooterSize {
		return nil, newInitializationError("data too short to contain a footer")
	}
	footerOff := len(data) - countMinFooterSize
	width := uint64(binary.NativeEndian.Uint32(data[footerOff : footerOff+4]))
	depth := uint64(binary.NativeEndian.Uint32(data[footerOff+4 : footerOff+8]))
	elementsAdded := int64(binary.NativeEndian.Uint64(data[footerOff+8 : footerOff+16]))
	if width == 0 || depth == 0 {
		return nil, newInitializationError("malformed count-min footer: width or depth is zero")
	}
	if uint64(footerOff)/4 != width*depth {
		return nil, newInitializationError("bin count does not match encoded width*depth")
	}
	bins := make([]int32, width*depth)
	for i := range bins {
		bins[i] = int32(binary.NativeEndian.Uint32(data[i*4 : i*4+4]))
	}
	if hash == nil {
		hash = DefaultHash
	}
	return &CountMinSketch{
		width:         width,
		depth:         depth,
		bins:          bins,
		elementsAdded: elementsAdded,
		hashFunc:      hash,
	}, nil
}
