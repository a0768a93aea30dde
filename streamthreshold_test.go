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

func TestStreamThresholdTracksOnceReached(t *testing.T) {
	s, err := NewStreamThreshold(3, 1000, 5)
	require.NoError(t, err)

	s.Add([]byte("key"))
	assert.Empty(t, s.TrackedCounts())

	s.Add([]byte("key"))
	s.Add([]byte("key"))
	assert.Equal(t, map[string]int64{"key": 3}, s.TrackedCounts())
}

func TestStreamThresholdUntracksOnFallBelow(t *testing.T) {
	s, err := NewStreamThreshold(3, 1000, 5)
	require.NoError(t, err)

	s.Add([]byte("key"), 5)
	assert.Contains(t, s.TrackedCounts(), "key")

	s.Remove([]byte("key"), 3)
	assert.NotContains(t, s.TrackedCounts(), "key")
}

func TestStreamThresholdUpdatesWhileTracked(t *testing.T) {
	s, err := NewStreamThreshold(3, 1000, 5)
	require.NoError(t, err)

	s.Add([]byte("key"), 5)
	s.Remove([]byte("key"), 1)
	assert.Equal(t, map[string]int64{"key": 4}, s.TrackedCounts())
}
