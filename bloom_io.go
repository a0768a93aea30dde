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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// footerSize is the byte size of the trailing metadata block shared by
// the standard and counting Bloom filters: estimated_elements (u64),
// elements_added (u64) and false_positive_rate (f32), per spec.md §6.
// Note that the footer carries n, not m: the number of bits and hashes
// is always re-derived from (n, fpr) on load, never stored directly.
const footerSize = 8 + 8 + 4

// footer packs (estimatedElements, elementsAdded, fpr) using byteOrder.
func footer(byteOrder binary.ByteOrder, estimatedElements, elementsAdded uint64, fpr float64) []byte {
	buf := make([]byte, footerSize)
	byteOrder.PutUint64(buf[0:8], estimatedElements)
	byteOrder.PutUint64(buf[8:16], elementsAdded)
	byteOrder.PutUint32(buf[16:20], math.Float32bits(float32(fpr)))
	return buf
}

func parseFooter(byteOrder binary.ByteOrder, buf []byte) (estimatedElements, elementsAdded uint64, fpr float64, err error) {
	if len(buf) != footerSize {
		return 0, 0, 0, newInitializationError("malformed footer: wrong length")
	}
	estimatedElements = byteOrder.Uint64(buf[0:8])
	elementsAdded = byteOrder.Uint64(buf[8:16])
	fpr = float64(math.Float32frombits(byteOrder.Uint32(buf[16:20])))
	return estimatedElements, elementsAdded, fpr, nil
}

// Export serializes f to its native binary form: the packed bit array
// followed by the native-endian footer.
func (f *Filter) Export() []byte {
	buf := make([]byte, 0, len(f.bits)+footerSize)
	buf = append(buf, f.bits...)
	buf = append(buf, footer(binary.NativeEndian, f.estimatedElements, f.elementsAdded, f.fpr)...)
	return buf
}

// ExportHex serializes f to the hexadecimal form of spec.md §6: the
// packed bit array followed by a big-endian footer, all lowercase hex,
// no separators.
func (f *Filter) ExportHex() string {
	return hex.EncodeToString(f.exportBigEndian())
}

// ExportCHeader writes f in the C reference implementation's header
// format, suitable for embedding a precomputed filter in a C program.
// The embedded array is the same big-endian-footer encoding ExportHex
// produces, not the native-endian Export body, so the header is
// portable across host byte orders.
func (f *Filter) ExportCHeader(varName string) string {
	return exportCHeader(varName, "standard BloomFilter", f.exportBigEndian(), f.numBits, f.numHashes, f.elementsAdded, f.fpr)
}

// exportBigEndian is the byte encoding ExportHex hex-encodes: the
// packed bit array followed by a big-endian footer.
func (f *Filter) exportBigEndian() []byte {
	buf := make([]byte, 0, len(f.bits)+footerSize)
	buf = append(buf, f.bits...)
	buf = append(buf, footer(binary.BigEndian, f.estimatedElements, f.elementsAdded, f.fpr)...)
	return buf
}

// Frombytes reconstructs a standard Bloom filter from the bytes
// produced by Export. hash must be the same HashFunc the filter was
// created with.
func Frombytes(data []byte, hash HashFunc) (*Filter, error) {
	if len(data) < footerSize {
		return nil, newInitializationError("data too short to contain a footer")
	}
	body := data[:len(data)-footerSize]
	estimatedElements, elementsAdded, fpr, err := parseFooter(binary.NativeEndian, data[len(data)-footerSize:])
	if err != nil {
		return nil, err
	}
	p, err := optimizeBloomParams(estimatedElements, fpr)
	if err != nil {
		return nil, err
	}
	expectLen := (p.numBits + 7) / 8
	if uint64(len(body)) != expectLen {
		return nil, newInitializationError("data length does not match the bit count derived from its footer")
	}
	if hash == nil {
		hash = DefaultHash
	}
	bits := make(bitSet, len(body))
	copy(bits, body)
	return &Filter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		bloomLength:       expectLen,
		bits:              bits,
		elementsAdded:     elementsAdded,
		hashFunc:          hash,
	}, nil
}

// FromHex is Frombytes for the hexadecimal export form.
func FromHex(s string, hash HashFunc) (*Filter, error) {
	data, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, newInitializationError("invalid hexadecimal input: " + err.Error())
	}
	if len(data) < footerSize {
		return nil, newInitializationError("data too short to contain a footer")
	}
	body := data[:len(data)-footerSize]
	estimatedElements, elementsAdded, fpr, err := parseFooter(binary.BigEndian, data[len(data)-footerSize:])
	if err != nil {
		return nil, err
	}
	p, err := optimizeBloomParams(estimatedElements, fpr)
	if err != nil {
		return nil, err
	}
	expectLen := (p.numBits + 7) / 8
	if uint64(len(body)) != expectLen {
		return nil, newInitializationError("data length does not match the bit count derived from its footer")
	}
	if hash == nil {
		hash = DefaultHash
	}
	bits := make(bitSet, len(body))
	copy(bits, body)
	return &Filter{
		estimatedElements: estimatedElements,
		fpr:               p.fpr,
		numHashes:         p.numHashes,
		numBits:           p.numBits,
		bloomLength:       expectLen,
		bits:              bits,
		elementsAdded:     elementsAdded,
		hashFunc:          hash,
	}, nil
}

// exportCHeader renders the shared C-header export body used by both
// the standard and counting Bloom filters; only the struct label
// differs between them.
func exportCHeader(varName, label string, data []byte, numBits uint64, numHashes uint32, elementsAdded uint64, fpr float64) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "/* %s exported from a %s */\n", varName, label)
	fmt.Fprintf(&b, "static const uint64_t %s_number_bits = %d;\n", varName, numBits)
	fmt.Fprintf(&b, "static const unsigned int %s_number_hashes = %d;\n", varName, numHashes)
	fmt.Fprintf(&b, "static const uint64_t %s_elements_added = %d;\n", varName, elementsAdded)
	fmt.Fprintf(&b, "static const float %s_fpr = %v;\n", varName, float32(fpr))
	fmt.Fprintf(&b, "static unsigned char %s_bloom[] = {", varName)
	for i, byt := range data {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "0x%02x", byt)
	}
	b.WriteString("};\n")
	return b.String()
}
