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

import "math"

// Filter is a standard (unblocked) Bloom filter: a bit-packed
// approximate-set tester with one-sided error. A lookup of a key that
// was added always returns true; a lookup of a key that was never added
// may still return true (a false positive), with probability bounded by
// FalsePositiveRate.
//
// A Filter is single-writer, multi-reader: see the package doc comment.
type Filter struct {
	estimatedElements uint64
	fpr               float64
	numHashes         uint32
	numBits           uint64
	bloomLength       uint64
	bits              bitSet
	elementsAdded     uint64
	hashFunc          HashFunc
}

// New constructs a Bloom filter sized so that after estimatedElements
// distinct insertions its false positive rate is at most
// falsePositiveRate.
func New(estimatedElements uint64, falsePositiveRate float64) (*Filter, error) {
	return NewWithHash(estimatedElements, falsePositiveRate, DefaultHash)
}

// NewWithHash is New with an explicit HashFunc.
func NewWithHash(estimatedElements uint64, falsePositiveRate float64, hash HashFunc) (*Filter, error) {
	p, err := optimizeBloomParams(estimatedElements, falsePositiveRate)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		hash = DefaultHash
	}
	length := (p.numBits + 7) / 8
	return &Filter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		bloomLength:       length,
		bits:              newBitSet(p.numBits),
		hashFunc:          hash,
	}, nil
}

// EstimatedElements returns the n the filter was sized for.
func (f *Filter) EstimatedElements() uint64 { return f.estimatedElements }

// FalsePositiveRate returns the target false positive rate, rounded
// through float32 to match the C reference implementation.
func (f *Filter) FalsePositiveRate() float64 { return f.fpr }

// NumberHashes returns k, the number of hash functions used per key.
func (f *Filter) NumberHashes() uint32 { return f.numHashes }

// NumberBits returns m, the number of bits in the filter.
func (f *Filter) NumberBits() uint64 { return f.numBits }

// BloomLength returns the length in bytes of the packed bit array.
func (f *Filter) BloomLength() uint64 { return f.bloomLength }

// ElementsAdded returns the number of Add calls made so far.
func (f *Filter) ElementsAdded() uint64 { return f.elementsAdded }

// HashFunc returns the hash function in use.
func (f *Filter) HashFunc() HashFunc { return f.hashFunc }

// Hashes returns the depth-length hash vector for key, using the
// filter's own NumberHashes unless depth is explicitly given.
func (f *Filter) Hashes(key []byte, depth ...int) []uint64 {
	d := int(f.numHashes)
	if len(depth) > 0 {
		d = depth[0]
	}
	return f.hashFunc(key, d)
}

// Add inserts key into the filter.
func (f *Filter) Add(key []byte) {
	f.AddAlt(f.Hashes(key))
}

// AddAlt inserts an element already reduced to its hash vector. It is
// the primitive Add is built on, exposed so callers can reuse a
// precomputed hash vector across filters.
func (f *Filter) AddAlt(hashes []uint64) {
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		f.bits.set(k)
	}
	f.elementsAdded++
}

// Check reports whether key has likely been added to the filter. It
// never returns false for a key that was added (no false negatives),
// but may return true for a key that was not (a false positive).
func (f *Filter) Check(key []byte) bool {
	return f.CheckAlt(f.Hashes(key))
}

// CheckAlt is Check for an already-computed hash vector.
func (f *Filter) CheckAlt(hashes []uint64) bool {
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		if !f.bits.test(k) {
			return false
		}
	}
	return true
}

// EstimateElements estimates the number of distinct keys added, based
// purely on the fraction of bits set. It returns -1 (as a sentinel) if
// every bit is set, since the estimator diverges at that point.
func (f *Filter) EstimateElements() int64 {
	setBits := float64(f.bits.popcount())
	if setBits == float64(f.numBits) {
		return -1
	}
	logArg := 1 - setBits/float64(f.numBits)
	tmp := float64(f.numBits) / float64(f.numHashes)
	return int64(-1 * tmp * math.Log(logArg))
}

// CurrentFalsePositiveRate estimates the filter's current false
// positive rate given the number of elements added so far.
func (f *Filter) CurrentFalsePositiveRate() float64 {
	num := float64(f.numHashes) * -1 * float64(f.elementsAdded)
	exp := math.Exp(num / float64(f.numBits))
	return math.Pow(1-exp, float64(f.numHashes))
}

// Clear resets the filter to its empty state.
func (f *Filter) Clear() {
	f.bits.clear()
	f.elementsAdded = 0
}

// compatible reports whether f and other share identical (m, k) and
// hash function, the predicate spec.md §4.E requires for set algebra.
func (f *Filter) compatible(other *Filter) bool {
	if f.numBits != other.numBits || f.numHashes != other.numHashes {
		return false
	}
	a := f.Hashes([]byte("test"), int(f.numHashes))
	b := other.Hashes([]byte("test"), int(other.numHashes))
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Union returns a new filter containing the union of f and other, or
// nil if they are not compatible (differing geometry or hash
// function). The result's ElementsAdded is its own EstimateElements.
func (f *Filter) Union(other *Filter) (*Filter, error) {
	if !f.compatible(other) {
		return nil, nil
	}
	res, err := NewWithHash(f.estimatedElements, f.fpr, f.hashFunc)
	if err != nil {
		return nil, err
	}
	copy(res.bits, f.bits)
	res.bits.or(other.bits)
	res.elementsAdded = uint64(maxInt64(res.EstimateElements(), 0))
	return res, nil
}

// Intersection returns a new filter containing the intersection of f
// and other, or nil if they are not compatible.
func (f *Filter) Intersection(other *Filter) (*Filter, error) {
	if !f.compatible(other) {
		return nil, nil
	}
	res, err := NewWithHash(f.estimatedElements, f.fpr, f.hashFunc)
	if err != nil {
		return nil, err
	}
	copy(res.bits, f.bits)
	res.bits.and(other.bits)
	res.elementsAdded = uint64(maxInt64(res.EstimateElements(), 0))
	return res, nil
}

// JaccardIndex returns the Jaccard similarity of f and other: the ratio
// of set bits in their intersection to set bits in their union. It
// returns 1.0 when the union is empty (both filters are empty) and nil
// when f and other are not compatible.
func (f *Filter) JaccardIndex(other *Filter) *float64 {
	if !f.compatible(other) {
		return nil
	}
	var countUnion, countIntersection uint64
	for i := range f.bits {
		u := f.bits[i] | other.bits[i]
		n := f.bits[i] & other.bits[i]
		countUnion += uint64(popcount8(u))
		countIntersection += uint64(popcount8(n))
	}
	var res float64
	if countUnion == 0 {
		res = 1.0
	} else {
		res = float64(countIntersection) / float64(countUnion)
	}
	return &res
}

func popcount8(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
