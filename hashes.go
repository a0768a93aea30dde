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

// Package probables implements a family of approximate-membership and
// frequency data structures: Bloom filters (standard, on-disk, counting,
// expanding, rotating), cuckoo filters (standard and counting), count-min
// sketches (plus heavy-hitters and stream-threshold trackers) and a
// quotient filter.
//
// Every structure except SyncFilter is single-writer, multi-reader: concurrent callers must
// serialize their own mutating calls (Add, Remove, Clear, Expand, Push,
// Pop, Join and the set-algebra constructors); read-only calls (Check,
// EstimateElements, CurrentFalsePositiveRate, Hashes, JaccardIndex,
// Export, ExportHex) may run concurrently with each other but not with a
// writer.
package probables

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// HashFunc computes depth 64-bit hash values for key. Filters call it
// with their own hash-count (number of hashes for a Bloom filter, depth
// for a count-min sketch) and address their internal storage with the
// results modulo their own geometry.
//
// A filter records only the HashFunc value, not any serializable
// identity for it: callers that reload a persisted filter must supply
// the same HashFunc they saved it with.
type HashFunc func(key []byte, depth int) []uint64

const (
	fnvOffset64 uint64 = 14695981039346656073
	fnvPrime64  uint64 = 1099511628211
)

// fnv1a64 is the bare 64-bit FNV-1a hash of b.
func fnv1a64(b []byte) uint64 {
	h := fnvOffset64
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

// DefaultHash is the library's default HashFunc. It computes the first
// value as the FNV-1a hash of key, and every subsequent value as the
// FNV-1a hash of the lowercase hexadecimal representation (no "0x"
// prefix) of the previous value.
//
// This chained-hex construction is a persistence-visible contract:
// filters saved under DefaultHash must remain queryable by any
// compliant implementation, so the exact byte sequence fed to each
// successive hash matters and must not be "simplified" away.
func DefaultHash(key []byte, depth int) []uint64 {
	res := make([]uint64, depth)
	var tmp uint64
	for i := 0; i < depth; i++ {
		if i == 0 {
			tmp = fnv1a64(key)
		} else {
			tmp = fnv1a64([]byte(fmt.Sprintf("%x", tmp)))
		}
		res[i] = tmp
	}
	return res
}

// XXHash64 is an alternate, faster, non-cryptographic HashFunc built on
// github.com/cespare/xxhash/v2. It uses the same chained-hex-of-previous
// construction as DefaultHash so that filters behave identically under
// either hash function; only the underlying digest differs.
func XXHash64(key []byte, depth int) []uint64 {
	res := make([]uint64, depth)
	var tmp uint64
	for i := 0; i < depth; i++ {
		if i == 0 {
			tmp = xxhash.Sum64(key)
		} else {
			tmp = xxhash.Sum64([]byte(fmt.Sprintf("%x", tmp)))
		}
		res[i] = tmp
	}
	return res
}
