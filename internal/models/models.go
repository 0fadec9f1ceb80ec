// Package models defines the JSON shapes returned by the query surface.
package models

// AggregateBucket is one category's summed value along a dimension, with
// its share of the grand total in percent.
type AggregateBucket struct {
	CategoryCode  string  `json:"category_code"`
	CategoryLabel string  `json:"category_label"`
	Value         float64 `json:"value"`
	Share         float64 `json:"share"`
}

// AgeingSummary is the derived demographic snapshot for one record set.
// All shares are percentages of TotalPopulation; the dependency ratio is
// seniors over working-age. Every ratio is 0 when its denominator is 0.
type AgeingSummary struct {
	Sex                   string  `json:"sex,omitempty"`
	TotalPopulation       float64 `json:"population_total"`
	ChildrenPopulation    float64 `json:"children_population"`
	WorkingAgePopulation  float64 `json:"working_age_population"`
	SeniorsPopulation     float64 `json:"seniors_population"`
	ShareChildren         float64 `json:"share_children"`
	ShareWorkingAge       float64 `json:"share_working_age"`
	ShareSeniors          float64 `json:"share_seniors"`
	Share80Plus           float64 `json:"share_80_plus"`
	OldAgeDependencyRatio float64 `json:"old_age_dependency_ratio"`
}

// DatasetSummary lists one ingested dataset.
type DatasetSummary struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	DimensionCount   int    `json:"dimension_count"`
	ObservationCount int    `json:"observation_count"`
}

// DimensionSummary describes one dimension of a dataset.
type DimensionSummary struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	Position      int    `json:"position"`
	CategoryCount int    `json:"category_count"`
}

// DatasetDetail extends the summary with the ordered dimension list.
type DatasetDetail struct {
	DatasetSummary
	Dimensions []DimensionSummary `json:"dimensions"`
}

// CategoryRead is one category of a dimension.
type CategoryRead struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// DimensionDetail extends the dimension summary with its categories.
type DimensionDetail struct {
	DimensionSummary
	Categories []CategoryRead `json:"categories"`
}

// ObservationPoint is one raw decoded observation.
type ObservationPoint struct {
	Value  float64           `json:"value"`
	Fields map[string]string `json:"fields"`
}

// AggregateResponse wraps an aggregation result with its request echo.
type AggregateResponse struct {
	DatasetCode   string            `json:"dataset_code"`
	DimensionCode string            `json:"dimension_code"`
	Filters       map[string]string `json:"filters"`
	Results       []AggregateBucket `json:"results"`
}

// AgeingInsights is the ageing endpoint response: the all-sexes summary
// for the latest time period plus one peer summary per sex category.
type AgeingInsights struct {
	DatasetCode string          `json:"dataset_code"`
	TimePeriod  string          `json:"time_period"`
	AgeingSummary
	BySex []AgeingSummary `json:"by_sex"`
}
