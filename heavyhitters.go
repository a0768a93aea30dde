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

// HeavyHitters tracks the num_hitters keys with the largest observed
// count-min estimate seen so far, composing a CountMinSketch rather
// than subclassing it: the sketch supplies the frequency estimate,
// HeavyHitters only decides which keys are worth remembering by name.
type HeavyHitters struct {
	sketch     *CountMinSketch
	numHitters int
	counts     map[string]int64
	order      []string
	smallest   int64
}

// NewHeavyHitters constructs a HeavyHitters tracker over a fresh
// CountMinSketch(width, depth), remembering at most numHitters keys.
func NewHeavyHitters(numHitters int, width, depth uint64) (*HeavyHitters, error) {
	if numHitters <= 0 {
		return nil, newInitializationError("numHitters must be greater than 0")
	}
	sketch, err := NewCountMinSketch(width, depth)
	if err != nil {
		return nil, err
	}
	return &HeavyHitters{
		sketch:     sketch,
		numHitters: numHitters,
		counts:     make(map[string]int64),
	}, nil
}

// NumHitters returns the configured tracked-set capacity.
func (h *HeavyHitters) NumHitters() int { return h.numHitters }

// Sketch exposes the underlying count-min sketch, e.g. to query keys
// that are not currently tracked.
func (h *HeavyHitters) Sketch() *CountMinSketch { return h.sketch }

// TrackedCounts returns a snapshot copy of the tracked key → count map.
func (h *HeavyHitters) TrackedCounts() map[string]int64 {
	out := make(map[string]int64, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}

// Add records n occurrences of key (n defaults to 1 when omitted) and
// updates the tracked set: if the tracked set has room, or key is
// already tracked, its count is recorded directly; otherwise key
// displaces the smallest tracked entry only if its new estimate
// exceeds it.
func (h *HeavyHitters) Add(key []byte, n ...int64) int64 {
	count := int64(1)
	if len(n) > 0 {
		count = n[0]
	}
	r := h.sketch.Add(key, count)
	h.observe(string(key), r)
	return r
}

func (h *HeavyHitters) observe(key string, r int64) {
	if _, tracked := h.counts[key]; tracked {
		h.counts[key] = r
		h.recomputeSmallest()
		return
	}
	if len(h.counts) < h.numHitters {
		h.track(key, r)
		h.recomputeSmallest()
		return
	}
	if r > h.smallest {
		h.evictSmallest()
		h.track(key, r)
		h.recomputeSmallest()
	}
}

// track records a newly tracked key, appending it to the insertion
// order so a later tie among evict candidates favors whichever of them
// was tracked first.
func (h *HeavyHitters) track(key string, r int64) {
	h.counts[key] = r
	h.order = append(h.order, key)
}

// evictSmallest removes the tracked key with the smallest count,
// breaking ties by insertion order: among keys sharing the minimum
// count, the one tracked earliest is evicted.
func (h *HeavyHitters) evictSmallest() {
	var min int64
	first := true
	for _, v := range h.counts {
		if first || v < min {
			min, first = v, false
		}
	}
	for i, k := range h.order {
		if h.counts[k] == min {
			delete(h.counts, k)
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			return
		}
	}
}

func (h *HeavyHitters) recomputeSmallest() {
	first := true
	for _, v := range h.counts {
		if first || v < h.smallest {
			h.smallest = v
			first = false
		}
	}
	if first {
		h.smallest = 0
	}
}

// Remove is not supported: the reference tracker this is modeled on
// has no principled way to un-track a key once evicted, since the
// underlying count-min sketch cannot be queried for "the key that would
// become the new smallest".
func (h *HeavyHitters) Remove([]byte) error {
	return newNotSupportedError("heavy-hitters does not support remove")
}
