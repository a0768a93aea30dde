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

// StreamThreshold tracks every key whose count-min estimate has ever
// reached a configured threshold, removing it again only once a Remove
// pushes its estimate back below that threshold.
type StreamThreshold struct {
	sketch    *CountMinSketch
	threshold int64
	tracked   map[string]int64
}

// NewStreamThreshold constructs a StreamThreshold tracker over a fresh
// CountMinSketch(width, depth).
func NewStreamThreshold(threshold int64, width, depth uint64) (*StreamThreshold, error) {
	sketch, err := NewCountMinSketch(width, depth)
	if err != nil {
		return nil, err
	}
	return &StreamThreshold{
		sketch:    sketch,
		threshold: threshold,
		tracked:   make(map[string]int64),
	}, nil
}

// Threshold returns the configured tracking threshold.
func (s *StreamThreshold) Threshold() int64 { return s.threshold }

// Sketch exposes the underlying count-min sketch.
func (s *StreamThreshold) Sketch() *CountMinSketch { return s.sketch }

// TrackedCounts returns a snapshot copy of the tracked key → count map.
func (s *StreamThreshold) TrackedCounts() map[string]int64 {
	out := make(map[string]int64, len(s.tracked))
	for k, v := range s.tracked {
		out[k] = v
	}
	return out
}

// Add records n occurrences of key (n defaults to 1 when omitted),
// adding it to the tracked set once its estimate reaches Threshold.
func (s *StreamThreshold) Add(key []byte, n ...int64) int64 {
	count := int64(1)
	if len(n) > 0 {
		count = n[0]
	}
	r := s.sketch.Add(key, count)
	if r >= s.threshold {
		s.tracked[string(key)] = r
	}
	return r
}

// Remove records n removals of key (n defaults to 1 when omitted),
// dropping it from the tracked set if its estimate falls back below
// Threshold, or updating its tracked count otherwise.
func (s *StreamThreshold) Remove(key []byte, n ...int64) int64 {
	count := int64(1)
	if len(n) > 0 {
		count = n[0]
	}
	r := s.sketch.Remove(key, count)
	k := string(key)
	if r < s.threshold {
		delete(s.tracked, k)
	} else if _, tracked := s.tracked[k]; tracked {
		s.tracked[k] = r
	}
	return r
}
