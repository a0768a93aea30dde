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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncFilterAddCheck(t *testing.T) {
	f, err := NewSync(1000, 0.01)
	require.NoError(t, err)

	f.Add([]byte("hello"))
	assert.True(t, f.Check([]byte("hello")))
	assert.False(t, f.Check([]byte("goodbye")))
	assert.EqualValues(t, 1, f.ElementsAdded())
}

// TestSyncFilterConcurrentAdds inserts from many goroutines at once and
// verifies every key is observable afterward and no Add is lost, the
// property the compare-and-swap bit-set retry loop exists to guarantee.
func TestSyncFilterConcurrentAdds(t *testing.T) {
	f, err := NewSync(10000, 0.01)
	require.NoError(t, err)

	const n = 2000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Add([]byte(fmt.Sprintf("key-%d", i)))
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, n, f.ElementsAdded())
	for i := 0; i < n; i++ {
		assert.True(t, f.Check([]byte(fmt.Sprintf("key-%d", i))))
	}
}

func TestSyncFilterConcurrentChecksDuringAdds(t *testing.T) {
	f, err := NewSync(1000, 0.01)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Add([]byte(fmt.Sprintf("key-%d", i)))
			f.Check([]byte(fmt.Sprintf("key-%d", i)))
		}(i)
	}
	wg.Wait()
}
