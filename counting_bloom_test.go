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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingBloomAddCheckRemove(t *testing.T) {
	f, err := NewCounting(100, 0.01)
	require.NoError(t, err)

	f.Add([]byte("test"))
	f.Add([]byte("test"))
	assert.True(t, f.Check([]byte("test")))
	assert.EqualValues(t, 2, f.Count([]byte("test")))
	assert.False(t, f.Check([]byte("missing")))

	min := f.Remove([]byte("test"))
	assert.EqualValues(t, 1, min)
	assert.True(t, f.Check([]byte("test")))

	f.Remove([]byte("test"))
	assert.False(t, f.Check([]byte("test")))
}

// TestCountingBloomStreamOrder exercises the mixed sequence named in the
// persisted-file scenario: six distinct words, then a repeat of "test",
// a distinct case-sensitive "Test", another "out", and a third "test".
func TestCountingBloomStreamOrder(t *testing.T) {
	f, err := NewCounting(100, 0.01)
	require.NoError(t, err)

	for _, w := range []string{"test", "out", "the", "counting", "bloom", "filter"} {
		f.Add([]byte(w))
	}
	for _, w := range []string{"test", "Test", "out", "test"} {
		f.Add([]byte(w))
	}

	assert.EqualValues(t, 3, f.Count([]byte("test")))
	assert.EqualValues(t, 1, f.Count([]byte("Test")))
	assert.EqualValues(t, 2, f.Count([]byte("out")))
	assert.EqualValues(t, 1, f.Count([]byte("the")))
	assert.EqualValues(t, 1, f.Count([]byte("counting")))
	assert.EqualValues(t, 1, f.Count([]byte("bloom")))
	assert.EqualValues(t, 1, f.Count([]byte("filter")))
	assert.EqualValues(t, 10, f.ElementsAdded())
}

func TestCountingBloomSaturation(t *testing.T) {
	f, err := NewCounting(10, 0.05)
	require.NoError(t, err)

	hashes := f.Hashes([]byte("saturate"))
	for i := uint32(0); i < f.numHashes; i++ {
		f.counters[hashes[i]%f.numBits] = math.MaxUint32
	}
	f.AddAlt(hashes)
	assert.EqualValues(t, math.MaxUint32, f.Count([]byte("saturate")))
}

// TestCountingBloomExportCHeaderBigEndianFooter pins the emitted
// bloom[] array to the big-endian encoding ExportHex produces, not the
// native-endian Export body. Counters are set directly so the fixture
// doesn't depend on the hash function's output.
func TestCountingBloomExportCHeaderBigEndianFooter(t *testing.T) {
	f, err := NewCounting(1, 0.5)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.NumberBits())
	require.EqualValues(t, 1, f.NumberHashes())

	f.counters[0] = 1
	f.counters[1] = 0x02030405
	f.elementsAdded = 7

	want := "/* myFilter exported from a CountingBloomFilter */\n" +
		"static const uint64_t myFilter_number_bits = 2;\n" +
		"static const unsigned int myFilter_number_hashes = 1;\n" +
		"static const uint64_t myFilter_elements_added = 7;\n" +
		"static const float myFilter_fpr = 0.5;\n" +
		"static unsigned char myFilter_bloom[] = {" +
		"0x00, 0x00, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, " +
		"0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, " +
		"0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x07, " +
		"0x3f, 0x00, 0x00, 0x00};\n"

	assert.Equal(t, want, f.ExportCHeader("myFilter"))
}

func TestCountingBloomEstimateElements(t *testing.T) {
	f, err := NewCounting(1000, 0.01)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		f.Add([]byte{byte(i), byte(i >> 8)})
	}
	est := f.EstimateElements()
	assert.InDelta(t, 500, est, 500*0.1)
}

func TestCountingBloomClear(t *testing.T) {
	f, err := NewCounting(10, 0.05)
	require.NoError(t, err)
	f.Add([]byte("hello"))
	f.Clear()
	assert.False(t, f.Check([]byte("hello")))
	assert.EqualValues(t, 0, f.ElementsAdded())
}

func TestCountingBloomUnionIntersection(t *testing.T) {
	a, err := NewCounting(100, 0.01)
	require.NoError(t, err)
	b, err := NewCounting(100, 0.01)
	require.NoError(t, err)

	a.Add([]byte("shared"))
	a.Add([]byte("shared"))
	a.Add([]byte("only-a"))
	b.Add([]byte("shared"))
	b.Add([]byte("only-b"))

	u, err := a.Union(b)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.EqualValues(t, 3, u.Count([]byte("shared")))

	inter, err := a.Intersection(b)
	require.NoError(t, err)
	require.NotNil(t, inter)
	assert.EqualValues(t, 1, inter.Count([]byte("shared")))
	assert.EqualValues(t, 0, inter.Count([]byte("only-a")))
}

func TestCountingBloomRoundTrip(t *testing.T) {
	f, err := NewCounting(1000, 0.01)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		f.Add([]byte{byte(i)})
		f.Add([]byte{byte(i)})
	}

	data := f.Export()
	reloaded, err := CountingFrombytes(data, DefaultHash)
	require.NoError(t, err)
	assert.Equal(t, data, reloaded.Export())
	for i := 0; i < 50; i++ {
		assert.EqualValues(t, 2, reloaded.Count([]byte{byte(i)}))
	}

	hexStr := f.ExportHex()
	reloadedHex, err := CountingFromHex(hexStr, DefaultHash)
	require.NoError(t, err)
	assert.Equal(t, hexStr, reloadedHex.ExportHex())
}
