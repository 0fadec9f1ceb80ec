// Package store holds decoded datasets in memory for the query surface
// and mirrors them into a SQLite archive for warm restarts.
package store

import (
	"sort"
	"sync"

	"censusapi/internal/sdmx"
)

// Category is one category of a dimension.
type Category struct {
	Code  string
	Label string
}

// DimensionInfo is one dimension of a dataset with its full category list,
// in descriptor order.
type DimensionInfo struct {
	ID         string
	Label      string
	Position   int
	Categories []Category
}

// Dataset is one ingested dataset: its metadata, ordered dimensions, and
// the flat records decoded from the upstream payload.
type Dataset struct {
	Code        string
	Name        string
	Description string
	Dimensions  []DimensionInfo
	Records     []sdmx.FlatRecord
}

// Dimension returns the dimension with the given id, or nil.
func (d *Dataset) Dimension(id string) *DimensionInfo {
	for i := range d.Dimensions {
		if d.Dimensions[i].ID == id {
			return &d.Dimensions[i]
		}
	}
	return nil
}

// BuildDataset assembles a Dataset from a decoded document: dimension
// metadata comes from the referenced structure (series dimensions first,
// observation dimensions after), records from the decoder.
func BuildDataset(code string, doc *sdmx.Document, records []sdmx.FlatRecord) *Dataset {
	ds := &Dataset{Code: code, Name: code, Records: records}
	structure := referencedStructure(doc)
	if structure == nil {
		return ds
	}
	if structure.Name != "" {
		ds.Name = structure.Name
	}
	for _, dim := range structure.Dimensions.Series {
		ds.Dimensions = append(ds.Dimensions, toDimensionInfo(dim, len(ds.Dimensions)))
	}
	for _, dim := range structure.Dimensions.Observation {
		ds.Dimensions = append(ds.Dimensions, toDimensionInfo(dim, len(ds.Dimensions)))
	}
	return ds
}

func referencedStructure(doc *sdmx.Document) *sdmx.Structure {
	if doc == nil || doc.Data == nil || len(doc.Data.DataSets) == 0 {
		return nil
	}
	idx := 0
	if doc.Data.DataSets[0].Structure != nil {
		idx = *doc.Data.DataSets[0].Structure
	}
	if idx < 0 || idx >= len(doc.Data.Structures) {
		return nil
	}
	return &doc.Data.Structures[idx]
}

func toDimensionInfo(dim sdmx.Dimension, position int) DimensionInfo {
	info := DimensionInfo{
		ID:         dim.ID,
		Label:      dim.Name,
		Position:   position,
		Categories: make([]Category, len(dim.Values)),
	}
	if info.Label == "" {
		info.Label = dim.ID
	}
	for i, v := range dim.Values {
		info.Categories[i] = Category{Code: v.ID, Label: v.Name}
	}
	return info
}

// Store is the in-memory dataset registry serving the HTTP handlers.
// Put replaces a dataset atomically; readers always see a complete one.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{datasets: make(map[string]*Dataset)}
}

// Put inserts or replaces the dataset under its code.
func (s *Store) Put(ds *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.Code] = ds
}

// Get returns the dataset with the given code, or nil.
func (s *Store) Get(code string) *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets[code]
}

// List returns all datasets sorted by code.
func (s *Store) List() []*Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len reports how many datasets are loaded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
