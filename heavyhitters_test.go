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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeavyHittersTracksLargest(t *testing.T) {
	h, err := NewHeavyHitters(2, 1000, 5)
	require.NoError(t, err)

	h.Add([]byte("this is a test"), 3)
	h.Add([]byte("this is also a test"), 1)
	h.Add([]byte("this is not a test"), 2)

	assert.Equal(t, map[string]int64{
		"this is a test":     3,
		"this is not a test": 2,
	}, h.TrackedCounts())

	h.Add([]byte("this is also a test"))
	h.Add([]byte("this is also a test"))
	h.Add([]byte("this is also a test"))

	assert.Equal(t, map[string]int64{
		"this is a test":      3,
		"this is also a test": 4,
	}, h.TrackedCounts())
}

func TestHeavyHittersRemoveUnsupported(t *testing.T) {
	h, err := NewHeavyHitters(2, 1000, 5)
	require.NoError(t, err)

	err = h.Remove([]byte("anything"))
	var notSupported *NotSupportedError
	require.ErrorAs(t, err, &notSupported)
}

// TestHeavyHittersEvictionTiesBreakByInsertionOrder exercises a tie at
// the current smallest count: "a" and "b" are both tracked at count 1,
// and a new key with a strictly larger count must evict "a", the one
// tracked first, not whichever map iteration happens to visit first.
func TestHeavyHittersEvictionTiesBreakByInsertionOrder(t *testing.T) {
	h, err := NewHeavyHitters(2, 1000, 5)
	require.NoError(t, err)

	h.Add([]byte("a"))
	h.Add([]byte("b"))
	h.Add([]byte("c"), 2)

	assert.Equal(t, map[string]int64{
		"b": 1,
		"c": 2,
	}, h.TrackedCounts())
}

func TestHeavyHittersUnderCapacityTracksEverything(t *testing.T) {
	h, err := NewHeavyHitters(5, 1000, 5)
	require.NoError(t, err)

	h.Add([]byte("a"))
	h.Add([]byte("b"))
	assert.Len(t, h.TrackedCounts(), 2)
}
