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

import "sync/atomic"

// SyncFilter is a standard Bloom filter that may be added to and
// checked from multiple goroutines concurrently, without an external
// lock. Bits live in 32-bit words set with a compare-and-swap retry
// loop, so concurrent Adds never lose a bit and a concurrent Check
// always observes a consistent snapshot of each bit it tests.
//
// SyncFilter trades this for a narrower surface than Filter: it does
// not implement Union, Intersection, Clear or the Export/Frombytes
// family, which assume no concurrent writer.
type SyncFilter struct {
	numHashes uint32
	numBits   uint64
	words     []uint32
	hashFunc  HashFunc
	added     int64
}

// NewSync constructs a SyncFilter sized for estimatedElements keys at
// falsePositiveRate.
func NewSync(estimatedElements uint64, falsePositiveRate float64) (*SyncFilter, error) {
	return NewSyncWithHash(estimatedElements, falsePositiveRate, DefaultHash)
}

// NewSyncWithHash is NewSync with an explicit HashFunc.
func NewSyncWithHash(estimatedElements uint64, falsePositiveRate float64, hash HashFunc) (*SyncFilter, error) {
	p, err := optimizeBloomParams(estimatedElements, falsePositiveRate)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		hash = DefaultHash
	}
	return &SyncFilter{
		numHashes: p.numHashes,
		numBits:   p.numBits,
		words:     make([]uint32, (p.numBits+31)/32),
		hashFunc:  hash,
	}, nil
}

// NumberHashes returns k.
func (f *SyncFilter) NumberHashes() uint32 { return f.numHashes }

// NumberBits returns m.
func (f *SyncFilter) NumberBits() uint64 { return f.numBits }

// ElementsAdded returns the number of Add calls observed so far.
func (f *SyncFilter) ElementsAdded() uint64 { return uint64(atomic.LoadInt64(&f.added)) }

// Add atomically inserts key.
func (f *SyncFilter) Add(key []byte) {
	hashes := f.hashFunc(key, int(f.numHashes))
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		setbitAtomic(f.words, k)
	}
	atomic.AddInt64(&f.added, 1)
}

// Check reports whether key has likely been added.
func (f *SyncFilter) Check(key []byte) bool {
	hashes := f.hashFunc(key, int(f.numHashes))
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		if !getbitAtomic(f.words, k) {
			return false
		}
	}
	return true
}

// getbitAtomic reports whether bit i is set.
func getbitAtomic(words []uint32, i uint64) bool {
	bit := uint32(1) << (i % 32)
	x := atomic.LoadUint32(&words[i/32])
	return x&bit != 0
}

// setbitAtomic sets bit i, retrying the compare-and-swap until it wins
// or discovers the bit is already set by a racing goroutine.
func setbitAtomic(words []uint32, i uint64) {
	bit := uint32(1) << (i % 32)
	p := &words[i/32]
	for {
		old := atomic.LoadUint32(p)
		if old&bit != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(p, old, old|bit) {
			return
		}
	}
}
