// Package sdmx decodes SDMX-JSON data messages into flat, filterable records.
package sdmx

// Document is the top-level SDMX-JSON data message.
type Document struct {
	Data *Data `json:"data"`
}

// Data holds the datasets together with the structures they reference.
type Data struct {
	DataSets   []DataSet   `json:"dataSets"`
	Structures []Structure `json:"structures"`
}

// DataSet maps colon-delimited series keys to their observations.
// Structure is an index into Data.Structures; absent means the first one.
type DataSet struct {
	Structure *int              `json:"structure"`
	Series    map[string]Series `json:"series"`
}

// Series holds observations keyed by colon-delimited observation-dimension
// indices. Each observation value array starts with the measurement,
// followed by positional attribute-value indices.
type Series struct {
	Observations map[string][]any `json:"observations"`
}

// Structure describes the dimensions and attributes of a dataset.
type Structure struct {
	Name       string     `json:"name"`
	Dimensions Dimensions `json:"dimensions"`
	Attributes Attributes `json:"attributes"`
}

// Dimensions splits dimension descriptors by where they vary:
// Series entries vary once per series, Observation entries per observation.
type Dimensions struct {
	Series      []Dimension `json:"series"`
	Observation []Dimension `json:"observation"`
}

// Attributes lists the observation-level attribute descriptors.
type Attributes struct {
	Observation []Dimension `json:"observation"`
}

// Dimension is one axis of categorization with its ordered category values.
type Dimension struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	KeyPosition *int    `json:"keyPosition"`
	Values      []Value `json:"values"`
}

// Value is a single category code with its human-readable label.
type Value struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FlatRecord is one decoded observation. Fields holds every dimension's
// category code keyed by dimension id, a "<dim>_label" entry per dimension,
// and any resolved observation attributes. ObsValue is the measurement.
type FlatRecord struct {
	Fields   map[string]string
	ObsValue float64
}

// Field returns the record's value for the given field name and whether
// the field is present.
func (r FlatRecord) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}
