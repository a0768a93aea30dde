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

import "math"

// ln2Squared is ln(2)^2, used by the C reference implementation's
// closed-form bit-count formula. Using the literal constant (rather than
// math.Ln2*math.Ln2) keeps the computed number of bits bit-exact with
// that reference across platforms.
const ln2Squared = 0.4804530139182

// bloomParams is the outcome of the parameter solver of spec.md §4
// (component C) for a standard/counting Bloom filter: the rounded
// false-positive rate, the number of hash functions and the number of
// bits, derived purely from (n, fpr).
type bloomParams struct {
	fpr       float64
	numHashes uint32
	numBits   uint64
}

// optimizeBloomParams derives (bits, hashes) from (estimated elements,
// false positive rate), per spec.md §3/§4:
//
//	m = ceil(-n * ln(fpr) / ln(2)^2)
//	k = round(ln(2) * m / n)
func optimizeBloomParams(estimatedElements uint64, falsePositiveRate float64) (bloomParams, error) {
	if estimatedElements == 0 {
		return bloomParams{}, newInitializationError("estimated elements must be greater than 0")
	}
	if !(falsePositiveRate > 0 && falsePositiveRate < 1) {
		return bloomParams{}, newInitializationError("false positive rate must be between 0.0 and 1.0, exclusive")
	}

	// Round-trip fpr through float32 to match the C reference's use of
	// a 32-bit float for the stored/compared false positive rate.
	fpr := float64(float32(falsePositiveRate))

	n := float64(estimatedElements)
	m := math.Ceil((-n * math.Log(fpr)) / ln2Squared)
	k := math.Round(math.Ln2 * m / n)

	if k == 0 {
		return bloomParams{}, newInitializationError("number of hashes is zero; unusable parameters provided")
	}

	return bloomParams{fpr: fpr, numHashes: uint32(k), numBits: uint64(m)}, nil
}

// countMinParamsFromWidthDepth derives (confidence, error rate) from
// (width, depth), per spec.md §3:
//
//	error_rate = 2 / width
//	confidence = 1 - 2^(-depth)
func countMinParamsFromWidthDepth(width, depth uint64) (confidence, errorRate float64, err error) {
	if width == 0 || depth == 0 {
		return 0, 0, newInitializationError("width and depth must both be greater than 0")
	}
	confidence = 1 - 1/math.Pow(2, float64(depth))
	errorRate = 2 / float64(width)
	return confidence, errorRate, nil
}

// countMinParamsFromConfidence derives (width, depth) from (confidence,
// error rate), the inverse of countMinParamsFromWidthDepth:
//
//	width = ceil(2 / error_rate)
//	depth = ceil(ln(1 / (1 - confidence)) / ln(2))
func countMinParamsFromConfidence(confidence, errorRate float64) (width, depth uint64, err error) {
	if !(errorRate > 0) || !(confidence > 0 && confidence < 1) {
		return 0, 0, newInitializationError("confidence must be in (0,1) and error rate must be > 0")
	}
	width = uint64(math.Ceil(2 / errorRate))
	numerator := -math.Log(1 - confidence)
	depth = uint64(math.Ceil(numerator / math.Ln2))
	if width == 0 || depth == 0 {
		return 0, 0, newInitializationError("derived width or depth is zero; unusable parameters provided")
	}
	return width, depth, nil
}
