package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"censusapi/internal/sdmx"
)

func rec(fields map[string]string, value float64) sdmx.FlatRecord {
	return sdmx.FlatRecord{Fields: fields, ObsValue: value}
}

func TestAggregateByDimension(t *testing.T) {
	records := []sdmx.FlatRecord{
		rec(map[string]string{"AGE": "Y_LT15", "AGE_label": "Under 15", "SEX": "F"}, 100),
		rec(map[string]string{"AGE": "Y15T29", "AGE_label": "15 to 29", "SEX": "F"}, 200),
		rec(map[string]string{"AGE": "Y_LT15", "AGE_label": "Under 15", "SEX": "M"}, 50),
		rec(map[string]string{"AGE": "Y_LT15", "AGE_label": "Under 15", "SEX": "F"}, 25),
	}

	buckets := AggregateByDimension(records, "AGE", nil)
	require.Len(t, buckets, 2)

	// First-seen order, summed values.
	assert.Equal(t, "Y_LT15", buckets[0].CategoryCode)
	assert.Equal(t, "Under 15", buckets[0].CategoryLabel)
	assert.Equal(t, 175.0, buckets[0].Value)
	assert.Equal(t, 200.0, buckets[1].Value)

	// Shares against the grand total of 375.
	assert.InDelta(t, 46.67, buckets[0].Share, 0.01)
	assert.InDelta(t, 53.33, buckets[1].Share, 0.01)
	assert.InDelta(t, 100, buckets[0].Share+buckets[1].Share, 0.05)
}

func TestAggregateFilterExclusion(t *testing.T) {
	records := []sdmx.FlatRecord{
		rec(map[string]string{"AGE": "Y_LT15", "SEX": "F"}, 100),
		rec(map[string]string{"AGE": "Y_LT15", "SEX": "M"}, 40),
		rec(map[string]string{"AGE": "Y15T29", "SEX": "F"}, 60),
		// No SEX dimension at all: excluded by the SEX filter.
		rec(map[string]string{"AGE": "Y15T29"}, 999),
	}

	buckets := AggregateByDimension(records, "AGE", Filters{"SEX": "F"})
	require.Len(t, buckets, 2)
	assert.Equal(t, 100.0, buckets[0].Value)
	assert.Equal(t, 60.0, buckets[1].Value)
}

func TestAggregateMissingTargetDimensionExcluded(t *testing.T) {
	records := []sdmx.FlatRecord{
		rec(map[string]string{"SEX": "F"}, 10),
		rec(map[string]string{"AGE": "Y_LT15", "SEX": "F"}, 20),
	}

	buckets := AggregateByDimension(records, "AGE", nil)
	require.Len(t, buckets, 1)
	assert.Equal(t, 20.0, buckets[0].Value)
}

func TestAggregateZeroTotalShares(t *testing.T) {
	records := []sdmx.FlatRecord{
		rec(map[string]string{"AGE": "Y_LT15"}, 0),
		rec(map[string]string{"AGE": "Y15T29"}, 0),
	}

	buckets := AggregateByDimension(records, "AGE", nil)
	require.Len(t, buckets, 2)
	for _, b := range buckets {
		assert.Equal(t, 0.0, b.Share)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	assert.Empty(t, AggregateByDimension(nil, "AGE", nil))
	assert.Empty(t, AggregateByDimension(nil, "AGE", Filters{"SEX": "F"}))
}

func TestAggregateEmptyCodeIsALegitimateCategory(t *testing.T) {
	// Records decoded from bad indices carry "" codes; they bucket
	// together rather than disappearing.
	records := []sdmx.FlatRecord{
		rec(map[string]string{"AGE": ""}, 5),
		rec(map[string]string{"AGE": ""}, 7),
	}

	buckets := AggregateByDimension(records, "AGE", nil)
	require.Len(t, buckets, 1)
	assert.Equal(t, "", buckets[0].CategoryCode)
	assert.Equal(t, 12.0, buckets[0].Value)
	assert.Equal(t, 100.0, buckets[0].Share)
}

func TestFiltersApply(t *testing.T) {
	records := []sdmx.FlatRecord{
		rec(map[string]string{"SEX": "_T", "TIME_PERIOD": "2021"}, 100),
		rec(map[string]string{"SEX": "M", "TIME_PERIOD": "2021"}, 55),
		rec(map[string]string{"SEX": "_T", "TIME_PERIOD": "2011"}, 90),
		rec(map[string]string{"TIME_PERIOD": "2021"}, 7),
	}

	filtered := Filters{"SEX": "_T", "TIME_PERIOD": "2021"}.Apply(records)
	require.Len(t, filtered, 1)
	assert.Equal(t, 100.0, filtered[0].ObsValue)

	// A record missing a filtered dimension never matches.
	assert.False(t, Filters{"SEX": "_T"}.Match(records[3]))

	// Empty filters pass everything through in input order.
	assert.Len(t, Filters{}.Apply(records), 4)
	var nilFilters Filters
	assert.Len(t, nilFilters.Apply(records), 4)
}
