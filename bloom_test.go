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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBloomParams(t *testing.T) {
	f, err := New(10, 0.05)
	require.NoError(t, err)
	assert.EqualValues(t, 63, f.NumberBits())
	assert.EqualValues(t, 4, f.NumberHashes())
	assert.EqualValues(t, 8, f.BloomLength())
}

func TestBloomAddCheck(t *testing.T) {
	f, err := New(10, 0.05)
	require.NoError(t, err)

	f.Add([]byte("this is a test"))
	assert.True(t, f.Check([]byte("this is a test")))
	assert.False(t, f.Check([]byte("this is not a test")))
}

func TestBloomHexS1(t *testing.T) {
	f, err := New(10, 0.05)
	require.NoError(t, err)

	f.Add([]byte("this is a test"))
	assert.True(t, f.Check([]byte("this is a test")))
	assert.False(t, f.Check([]byte("this is not a test")))

	// The hex digest is checked against a separate filter instance: its
	// footer's elements_added must read exactly 10, matching only the
	// "this is a test N" insertions below.
	hexFilter, err := New(10, 0.05)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		hexFilter.Add([]byte(fmt.Sprintf("this is a test %d", i)))
	}
	assert.Equal(t, "6da491461a6bba4d000000000000000a000000000000000a3d4ccccd", hexFilter.ExportHex())
}

// TestBloomExportCHeaderBigEndianFooter pins the emitted bloom[] array to
// the same bytes ExportHex produces (big-endian footer), not the
// native-endian Export body: the C reference implementation builds its
// header from the hex export, and the two must agree on every host.
func TestBloomExportCHeaderBigEndianFooter(t *testing.T) {
	f, err := New(10, 0.05)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		f.Add([]byte(fmt.Sprintf("this is a test %d", i)))
	}

	want := "/* myFilter exported from a standard BloomFilter */\n" +
		"static const uint64_t myFilter_number_bits = 63;\n" +
		"static const unsigned int myFilter_number_hashes = 4;\n" +
		"static const uint64_t myFilter_elements_added = 10;\n" +
		"static const float myFilter_fpr = 0.05;\n" +
		"static unsigned char myFilter_bloom[] = {" +
		"0x6d, 0xa4, 0x91, 0x46, 0x1a, 0x6b, 0xba, 0x4d, " +
		"0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0a, " +
		"0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0a, " +
		"0x3d, 0x4c, 0xcc, 0xcd};\n"

	assert.Equal(t, want, f.ExportCHeader("myFilter"))
}

func TestBloomInvalidParams(t *testing.T) {
	_, err := New(0, 0.05)
	assert.Error(t, err)

	_, err = New(10, 0)
	assert.Error(t, err)

	_, err = New(10, 1)
	assert.Error(t, err)
}

func TestBloomEstimateElements(t *testing.T) {
	f, err := New(1000, 0.01)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		f.Add([]byte(fmt.Sprintf("key-%d", i)))
	}
	est := f.EstimateElements()
	assert.InDelta(t, 500, est, 500*0.05)
}

func TestBloomClear(t *testing.T) {
	f, err := New(10, 0.05)
	require.NoError(t, err)
	f.Add([]byte("hello"))
	require.True(t, f.Check([]byte("hello")))

	f.Clear()
	assert.False(t, f.Check([]byte("hello")))
	assert.EqualValues(t, 0, f.ElementsAdded())
}

func TestBloomUnionIntersectionJaccard(t *testing.T) {
	a, err := New(100, 0.01)
	require.NoError(t, err)
	b, err := New(100, 0.01)
	require.NoError(t, err)

	a.Add([]byte("shared"))
	a.Add([]byte("only-a"))
	b.Add([]byte("shared"))
	b.Add([]byte("only-b"))

	u, err := a.Union(b)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.Check([]byte("shared")))
	assert.True(t, u.Check([]byte("only-a")))
	assert.True(t, u.Check([]byte("only-b")))

	inter, err := a.Intersection(b)
	require.NoError(t, err)
	require.NotNil(t, inter)
	assert.True(t, inter.Check([]byte("shared")))

	j := a.JaccardIndex(a)
	require.NotNil(t, j)
	assert.Equal(t, 1.0, *j)

	empty1, _ := New(100, 0.01)
	empty2, _ := New(100, 0.01)
	j2 := empty1.JaccardIndex(empty2)
	require.NotNil(t, j2)
	assert.Equal(t, 1.0, *j2)
}

func TestBloomIncompatibleSetOps(t *testing.T) {
	a, err := New(100, 0.01)
	require.NoError(t, err)
	b, err := New(50, 0.01)
	require.NoError(t, err)

	u, err := a.Union(b)
	require.NoError(t, err)
	assert.Nil(t, u)

	j := a.JaccardIndex(b)
	assert.Nil(t, j)
}

func TestBloomRoundTrip(t *testing.T) {
	f, err := New(1000, 0.01)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		f.Add([]byte(fmt.Sprintf("key-%d", i)))
	}

	data := f.Export()
	reloaded, err := Frombytes(data, DefaultHash)
	require.NoError(t, err)

	assert.Equal(t, data, reloaded.Export())
	for i := 0; i < 100; i++ {
		assert.True(t, reloaded.Check([]byte(fmt.Sprintf("key-%d", i))))
	}

	hexStr := f.ExportHex()
	reloadedHex, err := FromHex(hexStr, DefaultHash)
	require.NoError(t, err)
	assert.Equal(t, hexStr, reloadedHex.ExportHex())
}
