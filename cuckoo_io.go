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
	"math/rand"
)

// cuckooHeaderSize is the byte size of the self-describing cuckoo
// export header: capacity, bucket_size, max_swaps (all u64), expansion
// rate (f64), fingerprint_size_bytes (u8) and inserted_elements (u64).
const cuckooHeaderSize = 8 + 8 + 8 + 8 + 1 + 8

func cuckooHeader(capacity uint64, bucketSize, maxSwaps uint, expansionRate float64, fingerprintSz int, inserted uint64) []byte {
	buf := make([]byte, cuckooHeaderSize)
	binary.BigEndian.PutUint64(buf[0:8], capacity)
	binary.BigEndian.PutUint64(buf[8:16], uint64(bucketSize))
	binary.BigEndian.PutUint64(buf[16:24], uint64(maxSwaps))
	binary.BigEndian.PutUint64(buf[24:32], math.Float64bits(expansionRate))
	buf[32] = byte(fingerprintSz)
	binary.BigEndian.PutUint64(buf[33:41], inserted)
	return buf
}

func parseCuckooHeader(buf []byte) (capacity uint64, bucketSize, maxSwaps uint, expansionRate float64, fingerprintSz int, inserted uint64, err error) {
	if len(buf) < cuckooHeaderSize {
		return 0, 0, 0, 0, 0, 0, newInitializationError("cuckoo export header is truncated")
	}
	capacity = binary.BigEndian.Uint64(buf[0:8])
	bucketSize = uint(binary.BigEndian.Uint64(buf[8:16]))
	maxSwaps = uint(binary.BigEndian.Uint64(buf[16:24]))
	expansionRate = math.Float64frombits(binary.BigEndian.Uint64(buf[24:32]))
	fingerprintSz = int(buf[32])
	inserted = binary.BigEndian.Uint64(buf[33:41])
	return capacity, bucketSize, maxSwaps, expansionRate, fingerprintSz, inserted, nil
}

// Export serializes f to the self-describing cuckoo format of spec §6:
// a header of filter parameters followed by the row-major fingerprint
// body (zero meaning an empty slot, padded out to BucketSize per row).
func (f *CuckooFilter) Export() []byte {
	buf := cuckooHeader(f.capacity, f.bucketSize, f.maxSwaps, f.expansionRate, f.fingerprintSz, f.inserted)
	body := make([]byte, 0, f.capacity*uint64(f.bucketSize)*4)
	row := make([]byte, 4)
	for _, bucket := range f.buckets {
		for i := uint(0); i < f.bucketSize; i++ {
			var fp uint32
			if int(i) < len(bucket) {
				fp = bucket[i]
			}
			binary.BigEndian.PutUint32(row, fp)
			body = append(body, row...)
		}
	}
	return append(buf, body...)
}

// CuckooFrombytes reconstructs a CuckooFilter from the bytes produced
// by Export. The reconstructed filter's RNG is freshly seeded with
// seed, since eviction history is not part of the persisted format.
func CuckooFrombytes(data []byte, seed int64) (*CuckooFilter, error) {
	capacity, bucketSize, maxSwaps, expansionRate, fingerprintSz, inserted, err := parseCuckooHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[cuckooHeaderSize:]
	if uint64(len(body)) != capacity*uint64(bucketSize)*4 {
		return nil, newInitializationError("cuckoo export body length does not match its header")
	}
	buckets := make([][]uint32, capacity)
	off := 0
	for i := range buckets {
		var bucket []uint32
		for j := uint(0); j < bucketSize; j++ {
			fp := binary.BigEndian.Uint32(body[off : off+4])
			off += 4
			if fp != 0 {
				bucket = append(bucket, fp)
			}
		}
		buckets[i] = bucket
	}
	return &CuckooFilter{
		capacity:      capacity,
		bucketSize:    bucketSize,
		maxSwaps:      maxSwaps,
		expansionRate: expansionRate,
		fingerprintSz: fingerprintSz,
		buckets:       buckets,
		inserted:      inserted,
		rng:           rand.New(rand.NewSource(seed)),
	}, nil
}

// Export serializes a counting cuckoo filter: the same header as the
// standard cuckoo format, followed by a row-major body where each slot
// carries both its fingerprint and its u32 counter.
func (f *CountingCuckooFilter) Export() []byte {
	buf := cuckooHeader(f.capacity, f.bucketSize, f.maxSwaps, f.expansionRate, f.fingerprintSz, f.inserted)
	body := make([]byte, 0, f.capacity*uint64(f.bucketSize)*8)
	row := make([]byte, 8)
	for _, bucket := range f.buckets {
		for i := uint(0); i < f.bucketSize; i++ {
			var fp, count uint32
			if int(i) < len(bucket) {
				fp = bucket[i].fingerprint
				count = bucket[i].count
			}
			binary.BigEndian.PutUint32(row[0:4], fp)
			binary.BigEndian.PutUint32(row[4:8], count)
			body = append(body, row...)
		}
	}
	return append(buf, body...)
}

// CountingCuckooFrombytes reconstructs a CountingCuckooFilter from the
// bytes produced by Export.
func CountingCuckooFrombytes(data []byte, seed int64) (*CountingCuckooFilter, error) {
	capacity, bucketSize, maxSwaps, expansionRate, fingerprintSz, inserted, err := parseCuckooHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[cuckooHeaderSize:]
	if uint64(len(body)) != capacity*uint64(bucketSize)*8 {
		return nil, newInitializationError("counting cuckoo export body length does not match its header")
	}
	buckets := make([][]countingCuckooBin, capacity)
	var unique uint64
	off := 0
	for i := range buckets {
		var bucket []countingCuckooBin
		for j := uint(0); j < bucketSize; j++ {
			fp := binary.BigEndian.Uint32(body[off : off+4])
			count := binary.BigEndian.Uint32(body[off+4 : off+8])
			off += 8
			if fp != 0 {
				bucket = append(bucket, countingCuckooBin{fingerprint: fp, count: count})
				unique++
			}
		}
		buckets[i] = bucket
	}
	return &CountingCuckooFilter{
		capacity:      capacity,
		bucketSize:    bucketSize,
		maxSwaps:      maxSwaps,
		expansionRate: expansionRate,
		fingerprintSz: fingerprintSz,
		buckets:       buckets,
		inserted:      inserted,
		unique:        unique,
		rng:           rand.New(rand.NewSource(seed)),
	}, nil
}
