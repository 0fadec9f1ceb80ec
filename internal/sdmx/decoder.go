package sdmx

import (
	"sort"
	"strconv"
	"strings"
)

// Decode flattens the first dataset of an SDMX-JSON message into one record
// per observation. It is a pure function: malformed keys, missing dimension
// values, and absent structures degrade to defaults instead of failing, so
// the caller always gets back as much data as could be recovered.
func Decode(doc *Document) []FlatRecord {
	if doc == nil || doc.Data == nil || len(doc.Data.DataSets) == 0 {
		return nil
	}

	dataset := doc.Data.DataSets[0]
	structIdx := 0
	if dataset.Structure != nil {
		structIdx = *dataset.Structure
	}
	if structIdx < 0 || structIdx >= len(doc.Data.Structures) {
		return nil
	}
	structure := doc.Data.Structures[structIdx]

	seriesDims := structure.Dimensions.Series
	obsDims := structure.Dimensions.Observation
	obsAttrs := structure.Attributes.Observation

	records := make([]FlatRecord, 0, len(dataset.Series))
	for _, seriesKey := range sortedKeys(dataset.Series) {
		series := dataset.Series[seriesKey]
		seriesIdx := parseKey(seriesKey)

		seriesFields := make(map[string]string, 2*len(seriesDims))
		for i, dim := range seriesDims {
			code, label := resolveValue(dim, indexAt(seriesIdx, i))
			seriesFields[dim.ID] = code
			seriesFields[dim.ID+"_label"] = label
		}

		for _, obsKey := range sortedKeys(series.Observations) {
			values := series.Observations[obsKey]
			obsIdx := parseKey(obsKey)

			fields := make(map[string]string, len(seriesFields)+2*len(obsDims))
			for k, v := range seriesFields {
				fields[k] = v
			}
			for i, dim := range obsDims {
				code, label := resolveValue(dim, indexAt(obsIdx, i))
				fields[dim.ID] = code
				fields[dim.ID+"_label"] = label
			}

			var obsValue float64
			if len(values) > 0 {
				obsValue = coerceFloat(values[0])
			}
			for i, attr := range obsAttrs {
				if i+1 >= len(values) {
					break
				}
				attrIdx, ok := coerceIndex(values[i+1])
				if !ok {
					continue
				}
				code, label := resolveValue(attr, attrIdx)
				fields[attr.ID] = code
				fields[attr.ID+"_label"] = label
			}

			records = append(records, FlatRecord{Fields: fields, ObsValue: obsValue})
		}
	}
	return records
}

// parseKey splits a colon-delimited key into typed indices once, at the
// boundary. Unparseable segments become -1 and resolve to empty values.
func parseKey(key string) []int {
	parts := strings.Split(key, ":")
	indices := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			n = -1
		}
		indices[i] = n
	}
	return indices
}

func indexAt(indices []int, pos int) int {
	if pos < 0 || pos >= len(indices) {
		return -1
	}
	return indices[pos]
}

// resolveValue looks up the category at idx in the dimension's value list,
// returning empty code and label when the index is missing or out of range.
func resolveValue(dim Dimension, idx int) (code, label string) {
	if idx < 0 || idx >= len(dim.Values) {
		return "", ""
	}
	v := dim.Values[idx]
	return v.ID, v.Name
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceIndex(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// sortedKeys orders map keys by their numeric index tuples so that decode
// output is stable across runs. encoding/json does not expose JSON object
// order, so key order is the closest deterministic equivalent.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		return lessKey(keys[a], keys[b])
	})
	return keys
}

func lessKey(a, b string) bool {
	ai, bi := parseKey(a), parseKey(b)
	for i := 0; i < len(ai) && i < len(bi); i++ {
		if ai[i] != bi[i] {
			return ai[i] < bi[i]
		}
	}
	if len(ai) != len(bi) {
		return len(ai) < len(bi)
	}
	return a < b
}
