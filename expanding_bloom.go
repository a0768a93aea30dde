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

// ExpandingFilter is a Bloom filter that grows without bound: once its
// newest block's elements_added reaches its estimated capacity, a fresh
// block of the same (n, fpr, hash) is appended. Check tests every
// block, so a key added to any block is always found; like any Bloom
// filter it may also report a key that was never added.
type ExpandingFilter struct {
	estimatedElements uint64
	fpr               float64
	hashFunc          HashFunc
	blocks            []*Filter
}

// NewExpanding constructs an ExpandingFilter whose blocks are each
// sized for estimatedElements keys at falsePositiveRate.
func NewExpanding(estimatedElements uint64, falsePositiveRate float64) (*ExpandingFilter, error) {
	return NewExpandingWithHash(estimatedElements, falsePositiveRate, DefaultHash)
}

// NewExpandingWithHash is NewExpanding with an explicit HashFunc.
func NewExpandingWithHash(estimatedElements uint64, falsePositiveRate float64, hash HashFunc) (*ExpandingFilter, error) {
	first, err := NewWithHash(estimatedElements, falsePositiveRate, hash)
	if err != nil {
		return nil, err
	}
	return &ExpandingFilter{
		estimatedElements: estimatedElements,
		fpr:               falsePositiveRate,
		hashFunc:          hash,
		blocks:            []*Filter{first},
	}, nil
}

// Blocks returns the number of component filters currently allocated.
func (e *ExpandingFilter) Blocks() int { return len(e.blocks) }

// ElementsAdded returns the total number of insertions across all
// blocks. An Add skipped because the key is already present is not
// counted.
func (e *ExpandingFilter) ElementsAdded() uint64 {
	var total uint64
	for _, b := range e.blocks {
		total += b.ElementsAdded()
	}
	return total
}

func (e *ExpandingFilter) tail() *Filter { return e.blocks[len(e.blocks)-1] }

// Check reports whether key was likely added to any block.
func (e *ExpandingFilter) Check(key []byte) bool {
	for _, b := range e.blocks {
		if b.Check(key) {
			return true
		}
	}
	return false
}

// Add inserts key into the tail block unless force is false and some
// existing block already answers true for key, in which case the call
// is a no-op. After insertion, a fresh empty block is appended if the
// tail block's ElementsAdded has reached the filter's capacity.
func (e *ExpandingFilter) Add(key []byte, force bool) error {
	if !force && e.Check(key) {
		return nil
	}
	e.tail().Add(key)
	if e.tail().ElementsAdded() >= e.estimatedElements {
		return e.grow()
	}
	return nil
}

func (e *ExpandingFilter) grow() error {
	next, err := NewWithHash(e.estimatedElements, e.fpr, e.hashFunc)
	if err != nil {
		return err
	}
	e.blocks = append(e.blocks, next)
	return nil
}

// Clear discards every block beyond the first and resets it to empty,
// returning the filter to its just-constructed state.
func (e *ExpandingFilter) Clear() {
	e.blocks = e.blocks[:1]
	e.blocks[0].Clear()
}

// Join is not supported on an expanding or rotating filter: unlike a
// count-min sketch there is no single compatible geometry to merge
// into, since the two filters' block counts may differ.
func (e *ExpandingFilter) Join(*ExpandingFilter) error {
	return newNotSupportedError("expanding bloom filters do not support join")
}

// RotatingFilter is an ExpandingFilter with a bound on the number of
// blocks: once growth would exceed MaxBlocks, the oldest block is
// evicted first (FIFO), so Check reflects only a trailing window of
// insertions.
type RotatingFilter struct {
	ExpandingFilter
	maxBlocks int
}

// NewRotating constructs a RotatingFilter that retains at most
// maxBlocks blocks, each sized for estimatedElements keys at
// falsePositiveRate.
func NewRotating(estimatedElements uint64, falsePositiveRate float64, maxBlocks int) (*RotatingFilter, error) {
	return NewRotatingWithHash(estimatedElements, falsePositiveRate, maxBlocks, DefaultHash)
}

// NewRotatingWithHash is NewRotating with an explicit HashFunc.
func NewRotatingWithHash(estimatedElements uint64, falsePositiveRate float64, maxBlocks int, hash HashFunc) (*RotatingFilter, error) {
	if maxBlocks < 1 {
		return nil, newInitializationError("maxBlocks must be at least 1")
	}
	base, err := NewExpandingWithHash(estimatedElements, falsePositiveRate, hash)
	if err != nil {
		return nil, err
	}
	return &RotatingFilter{ExpandingFilter: *base, maxBlocks: maxBlocks}, nil
}

// MaxBlocks returns the configured retention window Q.
func (r *RotatingFilter) MaxBlocks() int { return r.maxBlocks }

// rotateIfFull drops the oldest block once the filter already holds
// MaxBlocks blocks, making room for a new tail.
func (r *RotatingFilter) rotateIfFull() {
	if len(r.blocks) >= r.maxBlocks {
		r.blocks = r.blocks[1:]
	}
}

// Add is ExpandingFilter.Add, but growth rotates the oldest block out
// once the filter is already at MaxBlocks.
func (r *RotatingFilter) Add(key []byte, force bool) error {
	if !force && r.Check(key) {
		return nil
	}
	r.tail().Add(key)
	if r.tail().ElementsAdded() >= r.estimatedElements {
		r.rotateIfFull()
		return r.grow()
	}
	return nil
}

// Pop removes and returns the oldest block. It returns an error instead
// of emptying the queue: a RotatingFilter always retains at least one
// block.
func (r *RotatingFilter) Pop() (*Filter, error) {
	if len(r.blocks) <= 1 {
		return nil, newNotSupportedError("cannot pop the only remaining block")
	}
	oldest := r.blocks[0]
	r.blocks = r.blocks[1:]
	return oldest, nil
}

// Push forcibly appends a fresh, empty block, rotating the oldest block
// out first if the filter is already at MaxBlocks.
func (r *RotatingFilter) Push() error {
	r.rotateIfFull()
	return r.grow()
}
