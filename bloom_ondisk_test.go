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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnDiskAddCheckPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.blm")

	f, err := NewOnDisk(path, 1000, 0.01)
	require.NoError(t, err)
	f.Add([]byte("hello"))
	f.Add([]byte("world"))
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	reopened, err := OpenOnDisk(path, DefaultHash)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.Check([]byte("hello")))
	assert.True(t, reopened.Check([]byte("world")))
	assert.False(t, reopened.Check([]byte("missing")))
	assert.EqualValues(t, 2, reopened.ElementsAdded())
	assert.Equal(t, f.NumberBits(), reopened.NumberBits())
	assert.Equal(t, f.NumberHashes(), reopened.NumberHashes())
}

func TestOnDiskExportToNewPathCopies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.blm")
	dst := filepath.Join(dir, "dst.blm")

	f, err := NewOnDisk(src, 100, 0.01)
	require.NoError(t, err)
	f.Add([]byte("key"))
	require.NoError(t, f.Export(dst))
	require.NoError(t, f.Close())

	copied, err := OpenOnDisk(dst, DefaultHash)
	require.NoError(t, err)
	defer copied.Close()
	assert.True(t, copied.Check([]byte("key")))
}

func TestOnDiskFrombytesUnsupported(t *testing.T) {
	_, err := OnDiskFrombytes(nil, DefaultHash)
	var notSupported *NotSupportedError
	require.ErrorAs(t, err, &notSupported)
}
