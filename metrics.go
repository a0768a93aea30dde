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

import "github.com/prometheus/client_golang/prometheus"

// FilterCollector adapts a Filter to prometheus.Collector, exposing its
// element count, bit occupancy and current false positive rate as
// gauges. It is opt-in: nothing in this package registers a collector
// automatically, since a library has no business mutating a caller's
// default registry.
type FilterCollector struct {
	filter *Filter
	name   string

	elementsAdded    *prometheus.Desc
	bitsSet          *prometheus.Desc
	falsePositive    *prometheus.Desc
}

// NewFilterCollector wraps f for Prometheus scraping under name.
func NewFilterCollector(name string, f *Filter) *FilterCollector {
	return &FilterCollector{
		filter: f,
		name:   name,
		elementsAdded: prometheus.NewDesc(
			"probables_bloom_elements_added",
			"Number of elements added to the Bloom filter.",
			nil, prometheus.Labels{"filter": name}),
		bitsSet: prometheus.NewDesc(
			"probables_bloom_bits_set",
			"Number of bits currently set in the Bloom filter.",
			nil, prometheus.Labels{"filter": name}),
		falsePositive: prometheus.NewDesc(
			"probables_bloom_current_false_positive_rate",
			"Estimated current false positive rate of the Bloom filter.",
			nil, prometheus.Labels{"filter": name}),
	}
}

func (c *FilterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.elementsAdded
	ch <- c.bitsSet
	ch <- c.falsePositive
}

func (c *FilterCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.elementsAdded, prometheus.GaugeValue, float64(c.filter.ElementsAdded()))
	ch <- prometheus.MustNewConstMetric(c.bitsSet, prometheus.GaugeValue, float64(c.filter.bits.popcount()))
	ch <- prometheus.MustNewConstMetric(c.falsePositive, prometheus.GaugeValue, c.filter.CurrentFalsePositiveRate())
}
