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
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// OnDiskFilter is a standard Bloom filter backed by a memory-mapped
// file instead of process memory. Every Add flushes the updated
// elements-added count to the footer immediately, so the file on disk
// is always a valid, loadable snapshot — at the cost of one mmap write
// per insertion.
//
// OnDiskFilter does not support Frombytes/FromHex: its only load path
// is OpenOnDisk against an existing file.
type OnDiskFilter struct {
	estimatedElements uint64
	fpr               float64
	numHashes         uint32
	numBits           uint64
	elements          uint64
	hashFunc          HashFunc
	path              string
	file              *os.File
	data              mmap.MMap
}

// NewOnDisk creates a new file at path sized for estimatedElements keys
// at falsePositiveRate, zero-filled, and maps it into memory.
func NewOnDisk(path string, estimatedElements uint64, falsePositiveRate float64) (*OnDiskFilter, error) {
	return NewOnDiskWithHash(path, estimatedElements, falsePositiveRate, DefaultHash)
}

// NewOnDiskWithHash is NewOnDisk with an explicit HashFunc.
func NewOnDiskWithHash(path string, estimatedElements uint64, falsePositiveRate float64, hash HashFunc) (*OnDiskFilter, error) {
	p, err := optimizeBloomParams(estimatedElements, falsePositiveRate)
	if err != nil {
		return nil, err
	}
	if hash == nil {
		hash = DefaultHash
	}
	bloomLength := (p.numBits + 7) / 8

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, newInitializationError("unable to create backing file: " + err.Error())
	}
	total := int64(bloomLength) + footerSize
	if err := f.Truncate(total); err != nil {
		f.Close()
		return nil, newInitializationError("unable to size backing file: " + err.Error())
	}

	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, newInitializationError("unable to mmap backing file: " + err.Error())
	}

	od := &OnDiskFilter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		hashFunc:          hash,
		path:              path,
		file:              f,
		data:              m,
	}
	od.writeFooter()
	return od, nil
}

// OpenOnDisk maps an existing filter file created by NewOnDisk/Export.
func OpenOnDisk(path string, hash HashFunc) (*OnDiskFilter, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, newInitializationError("unable to open backing file: " + err.Error())
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, newInitializationError("unable to mmap backing file: " + err.Error())
	}
	if len(m) < footerSize {
		m.Unmap()
		f.Close()
		return nil, newInitializationError("backing file too short to contain a footer")
	}
	estimatedElements, elementsAdded, fpr, err := parseFooter(binary.NativeEndian, m[len(m)-footerSize:])
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	p, err := optimizeBloomParams(estimatedElements, fpr)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	if uint64(len(m)-footerSize) != (p.numBits+7)/8 {
		m.Unmap()
		f.Close()
		return nil, newInitializationError("backing file length does not match the bit count derived from its footer")
	}
	if hash == nil {
		hash = DefaultHash
	}
	return &OnDiskFilter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		elements:          elementsAdded,
		hashFunc:          hash,
		path:              path,
		file:              f,
		data:              m,
	}, nil
}

func (f *OnDiskFilter) bloomLength() uint64 { return uint64(len(f.data)) - footerSize }

func (f *OnDiskFilter) writeFooter() {
	copy(f.data[f.bloomLength():], footer(binary.NativeEndian, f.estimatedElements, f.elements, f.fpr))
}

func (f *OnDiskFilter) FalsePositiveRate() float64 { return f.fpr }
func (f *OnDiskFilter) NumberHashes() uint32       { return f.numHashes }
func (f *OnDiskFilter) NumberBits() uint64         { return f.numBits }
func (f *OnDiskFilter) ElementsAdded() uint64      { return f.elements }

// Hashes returns the filter's own depth-length hash vector for key.
func (f *OnDiskFilter) Hashes(key []byte) []uint64 {
	return f.hashFunc(key, int(f.numHashes))
}

// Add inserts key and immediately flushes the updated elements-added
// count into the mapped footer region.
func (f *OnDiskFilter) Add(key []byte) {
	hashes := f.Hashes(key)
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		f.data[k>>3] |= 1 << (k & 7)
	}
	f.elements++
	f.writeFooter()
}

// Check reports whether key has likely been added.
func (f *OnDiskFilter) Check(key []byte) bool {
	hashes := f.Hashes(key)
	for i := uint32(0); i < f.numHashes; i++ {
		k := hashes[i] % f.numBits
		if f.data[k>>3]&(1<<(k&7)) == 0 {
			return false
		}
	}
	return true
}

// Flush synchronizes the memory-mapped region to disk.
func (f *OnDiskFilter) Flush() error {
	return f.data.Flush()
}

// Export writes f's current contents to dest. If dest is the file the
// filter is already backed by, Export is a no-op (the mapping keeps
// dest current on every Add); otherwise the backing file is flushed and
// copied to dest.
func (f *OnDiskFilter) Export(dest string) error {
	if dest == f.path {
		return f.Flush()
	}
	if err := f.Flush(); err != nil {
		return err
	}
	src, err := os.Open(f.path)
	if err != nil {
		return newInitializationError("unable to reopen backing file for export: " + err.Error())
	}
	defer src.Close()
	out, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return newInitializationError("unable to create export destination: " + err.Error())
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

// Close unmaps and closes the backing file. It is safe to call more
// than once.
func (f *OnDiskFilter) Close() error {
	if f.data != nil {
		if err := f.data.Unmap(); err != nil {
			return err
		}
		f.data = nil
	}
	if f.file != nil {
		err := f.file.Close()
		f.file = nil
		return err
	}
	return nil
}

// Frombytes is not supported for an on-disk filter: use OpenOnDisk.
func OnDiskFrombytes(_ []byte, _ HashFunc) (*OnDiskFilter, error) {
	return nil, newNotSupportedError("on-disk Bloom filters cannot be loaded from an in-memory byte slice; use OpenOnDisk")
}
