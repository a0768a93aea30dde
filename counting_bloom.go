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
	"encoding/hex"
	"math"
	"strings"
)

// CountingFilter is a Bloom filter whose slots are 32-bit saturating
// counters instead of single bits, allowing Remove in addition to Add.
// Saturated counters (at math.MaxUint32) are never incremented further
// and never wrap; Remove decrements them like any other nonzero counter.
type CountingFilter struct {
	estimatedElements uint64
	fpr               float64
	numHashes         uint32
	numBits           uint64
	counters          []uint32
	elementsAdded     uint64
	hashFunc          HashFunc
}

// NewCounting constructs a counting Bloom filter sized for
// estimatedElements at falsePositiveRate, using DefaultHash.
func NewCounting(estimatedElements uint64, falsePositiveRate float64) (*CountingFilter, error) {
	return NewCountingWithHash(estimatedElements, falsePositiveRate, DefaultHash)
}

// NewCountingWithHash is NewCounting with an explicit HashFunc.
func NewCountingWithHash(estimatedElements uint64, falsePositiveRate float64, hash HashFunc) (*CountingFilter, error) {
	p, err := optimizeBloomParams(estimatedElements, falsePositiveRate)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		hash = DefaultHash
	}
	return &CountingFilter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		counters:          make([]uint32, p.numBits),
		hashFunc:          hash,
	}, nil
}

func (f *CountingFilter) EstimatedElements() uint64 { return f.estimatedElements }
func (f *CountingFilter) FalsePositiveRate() float64 { return f.fpr }
func (f *CountingFilter) NumberHashes() uint32       { return f.numHashes }
func (f *CountingFilter) NumberBits() uint64         { return f.numBits }
func (f *CountingFilter) ElementsAdded() uint64      { return f.elementsAdded }

// Hashes returns the filter's own depth-length hash vector for key.
func (f *CountingFilter) Hashes(key []byte) []uint64 {
	return f.hashFunc(key, int(f.numHashes))
}

// Add inserts key, incrementing (and saturating) each of its k slots.
func (f *CountingFilter) Add(key []byte) {
	f.AddAlt(f.Hashes(key))
}

// AddAlt is Add for a precomputed hash vector.
func (f *CountingFilter) AddAlt(hashes []uint64) {
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		if f.counters[k] < math.MaxUint32 {
			f.counters[k]++
		}
	}
	f.elementsAdded++
}

// Remove decrements each of key's k slots (saturating at zero) and
// returns the minimum resulting slot value across them, the filter's
// best estimate of key's remaining count.
func (f *CountingFilter) Remove(key []byte) uint32 {
	return f.RemoveAlt(f.Hashes(key))
}

// RemoveAlt is Remove for a precomputed hash vector.
func (f *CountingFilter) RemoveAlt(hashes []uint64) uint32 {
	min := uint32(math.MaxUint32)
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		if f.counters[k] > 0 {
			f.counters[k]--
		}
		if f.counters[k] < min {
			min = f.counters[k]
		}
	}
	if f.elementsAdded > 0 {
		f.elementsAdded--
	}
	return min
}

// Check reports whether every one of key's k slots is nonzero.
func (f *CountingFilter) Check(key []byte) bool {
	return f.CheckAlt(f.Hashes(key))
}

// CheckAlt is Check for a precomputed hash vector.
func (f *CountingFilter) CheckAlt(hashes []uint64) bool {
	for i := uint32(0); i < f.numHashes; i++ {
		if f.counters[hashes[i]%f.numBits] == 0 {
			return false
		}
	}
	return true
}

// Count returns the minimum slot value across key's k slots, an
// estimate of the number of times key was added (never below its true
// count, possibly above it due to collisions).
func (f *CountingFilter) Count(key []byte) uint32 {
	hashes := f.Hashes(key)
	min := uint32(math.MaxUint32)
	for i := uint32(0); i < f.numHashes; i++ {
		v := f.counters[hashes[i]%f.numBits]
		if v < min {
			min = v
		}
	}
	return min
}

// EstimateElements estimates the number of distinct keys added, from
// the fraction of nonzero slots.
func (f *CountingFilter) EstimateElements() int64 {
	var nonZero float64
	for _, c := range f.counters {
		if c != 0 {
			nonZero++
		}
	}
	if nonZero == float64(f.numBits) {
		return -1
	}
	tmp := float64(f.numBits) / float64(f.numHashes)
	return int64(-1 * tmp * math.Log(1-nonZero/float64(f.numBits)))
}

// Clear resets every counter to zero.
func (f *CountingFilter) Clear() {
	for i := range f.counters {
		f.counters[i] = 0
	}
	f.elementsAdded = 0
}

func (f *CountingFilter) compatible(other *CountingFilter) bool {
	if f.numBits != other.numBits || f.numHashes != other.numHashes {
		return false
	}
	a := f.hashFunc([]byte("test"), int(f.numHashes))
	b := other.hashFunc([]byte("test"), int(other.numHashes))
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Union returns a new counting filter whose slots are the elementwise
// sum of f's and other's (saturating), or nil if they are not
// compatible. This is a supplemented operation: the reference
// implementation this package is modeled on does not define set algebra
// for counting filters, but the same bitwise construction used for the
// standard Bloom filter generalizes directly to saturating counters.
func (f *CountingFilter) Union(other *CountingFilter) (*CountingFilter, error) {
	if !f.compatible(other) {
		return nil, nil
	}
	res, err := NewCountingWithHash(f.estimatedElements, f.fpr, f.hashFunc)
	if err != nil {
		return nil, err
	}
	for i := range f.counters {
		sum := uint64(f.counters[i]) + uint64(other.counters[i])
		if sum > math.MaxUint32 {
			sum = math.MaxUint32
		}
		res.counters[i] = uint32(sum)
	}
	res.elementsAdded = f.elementsAdded + other.elementsAdded
	return res, nil
}

// Intersection returns a new counting filter whose slots are the
// elementwise minimum of f's and other's, or nil if they are not
// compatible.
func (f *CountingFilter) Intersection(other *CountingFilter) (*CountingFilter, error) {
	if !f.compatible(other) {
		return nil, nil
	}
	res, err := NewCountingWithHash(f.estimatedElements, f.fpr, f.hashFunc)
	if err != nil {
		return nil, err
	}
	for i := range f.counters {
		a, b := f.counters[i], other.counters[i]
		if b < a {
			a = b
		}
		res.counters[i] = a
	}
	return res, nil
}

// JaccardIndex returns the Jaccard similarity of f and other's
// nonzero-slot sets, or nil if they are not compatible.
func (f *CountingFilter) JaccardIndex(other *CountingFilter) *float64 {
	if !f.compatible(other) {
		return nil
	}
	var union, inter float64
	for i := range f.counters {
		a, b := f.counters[i] != 0, other.counters[i] != 0
		if a || b {
			union++
		}
		if a && b {
			inter++
		}
	}
	res := 1.0
	if union != 0 {
		res = inter / union
	}
	return &res
}

// countingFooterSize is the byte size of the counting filter's trailing
// metadata block: identical layout to the standard filter's footer.
const countingFooterSize = footerSize

// Export serializes f: one native-endian uint32 counter per
// slot, followed by the native-endian footer.
func (f *CountingFilter) Export() []byte {
	buf := make([]byte, len(f.counters)*4+countingFooterSize)
	for i, c := range f.counters {
		binary.NativeEndian.PutUint32(buf[i*4:i*4+4], c)
	}
	copy(buf[len(f.counters)*4:], footer(binary.NativeEndian, f.estimatedElements, f.elementsAdded, f.fpr))
	return buf
}

// exportBigEndian is the byte encoding ExportHex hex-encodes: one
// big-endian uint32 counter per slot, followed by a big-endian footer.
func (f *CountingFilter) exportBigEndian() []byte {
	buf := make([]byte, len(f.counters)*4+countingFooterSize)
	for i, c := range f.counters {
		binary.BigEndian.PutUint32(buf[i*4:i*4+4], c)
	}
	copy(buf[len(f.counters)*4:], footer(binary.BigEndian, f.estimatedElements, f.elementsAdded, f.fpr))
	return buf
}

// ExportHex is Export rendered as lowercase hexadecimal with a
// big-endian footer, matching the standard filter's hex convention.
func (f *CountingFilter) ExportHex() string {
	return hex.EncodeToString(f.exportBigEndian())
}

// ExportCHeader writes f in the C reference implementation's header
// format for a counting Bloom filter. The embedded array is the same
// big-endian-footer encoding ExportHex produces, not the native-endian
// Export body, so the header is portable across host byte orders.
func (f *CountingFilter) ExportCHeader(varName string) string {
	return exportCHeader(varName, "CountingBloomFilter", f.exportBigEndian(), f.numBits, f.numHashes, f.elementsAdded, f.fpr)
}

// CountingFrombytes reconstructs a counting Bloom filter from the bytes
// produced by Export.
func CountingFrombytes(data []byte, hash HashFunc) (*CountingFilter, error) {
	if len(data) < countingFooterSize || (len(data)-countingFooterSize)%4 != 0 {
		return nil, newInitializationError("data length inconsistent with a counting Bloom filter export")
	}
	body := data[:len(data)-countingFooterSize]
	estimatedElements, elementsAdded, fpr, err := parseFooter(binary.NativeEndian, data[len(data)-countingFooterSize:])
	if err != nil {
		return nil, err
	}
	p, err := optimizeBloomParams(estimatedElements, fpr)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)/4) != p.numBits {
		return nil, newInitializationError("counter slot count does not match the bit count derived from its footer")
	}
	if hash == nil {
		hash = DefaultHash
	}
	counters := make([]uint32, p.numBits)
	for i := range counters {
		counters[i] = binary.NativeEndian.Uint32(body[i*4 : i*4+4])
	}
	return &CountingFilter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		counters:          counters,
		elementsAdded:     elementsAdded,
		hashFunc:          hash,
	}, nil
}

// CountingFromHex is CountingFrombytes for the hexadecimal export form.
func CountingFromHex(s string, hash HashFunc) (*CountingFilter, error) {
	data, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, newInitializationError("invalid hexadecimal input: " + err.Error())
	}
	if len(data) < countingFooterSize || (len(data)-countingFooterSize)%4 != 0 {
		return nil, newInitializationError("data length inconsistent with a counting Bloom filter export")
	}
	body := data[:len(data)-countingFooterSize]
	estimatedElements, elementsAdded, fpr, err := parseFooter(binary.BigEndian, data[len(data)-countingFooterSize:])
	if err != nil {
		return nil, err
	}
	p, err := optimizeBloomParams(estimatedElements, fpr)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)/4) != p.numBits {
		return nil, newInitializationError("counter slot count does not match the bit count derived from its footer")
	}
	if hash == nil {
		hash = DefaultHash
	}
	counters := make([]uint32, p.numBits)
	for i := range counters {
		counters[i] = binary.BigEndian.Uint32(body[i*4 : i*4+4])
	}
	return &CountingFilter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		counters:          counters,
		elementsAdded:     elementsAdded,
		hashFunc:          hash,
	}, nil
}
