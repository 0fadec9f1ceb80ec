// Package engine computes aggregated views and derived demographic
// indicators over decoded observation records.
package engine

import (
	"math"

	"censusapi/internal/models"
	"censusapi/internal/sdmx"
)

// Filters maps a dimension code to the category code a record must carry
// to be included. A record missing a filtered dimension is excluded.
type Filters map[string]string

// Match reports whether the record satisfies every filter.
func (f Filters) Match(rec sdmx.FlatRecord) bool {
	for dim, want := range f {
		got, ok := rec.Field(dim)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Apply returns the records satisfying every filter, in input order.
func (f Filters) Apply(records []sdmx.FlatRecord) []sdmx.FlatRecord {
	if len(f) == 0 {
		return records
	}
	var out []sdmx.FlatRecord
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// AggregateByDimension groups the filtered records by their category code
// along the target dimension and sums OBS_VALUE per group. Buckets come
// back in first-seen order. Shares are 0 when the grand total is 0, so the
// result never carries NaN or Inf.
func AggregateByDimension(records []sdmx.FlatRecord, dimension string, filters Filters) []models.AggregateBucket {
	var order []string
	index := make(map[string]int)
	labels := make(map[string]string)
	sums := make(map[string]float64)

	for _, rec := range records {
		if !filters.Match(rec) {
			continue
		}
		code, ok := rec.Field(dimension)
		if !ok {
			continue
		}
		if _, seen := index[code]; !seen {
			index[code] = len(order)
			order = append(order, code)
			labels[code] = rec.Fields[dimension+"_label"]
		}
		sums[code] += rec.ObsValue
	}

	var total float64
	for _, code := range order {
		total += sums[code]
	}

	buckets := make([]models.AggregateBucket, len(order))
	for i, code := range order {
		buckets[i] = models.AggregateBucket{
			CategoryCode:  code,
			CategoryLabel: labels[code],
			Value:         sums[code],
			Share:         share(sums[code], total),
		}
	}
	return buckets
}

// share returns value/total as a percentage rounded to two decimals,
// defined as 0 when total is 0.
func share(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return round2(value / total * 100)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
