package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"censusapi/internal/sdmx"
)

func testDoc() *sdmx.Document {
	return &sdmx.Document{Data: &sdmx.Data{
		DataSets: []sdmx.DataSet{{
			Series: map[string]sdmx.Series{
				"0": {Observations: map[string][]any{"0": {100.0}}},
			},
		}},
		Structures: []sdmx.Structure{{
			Name: "Population by age",
			Dimensions: sdmx.Dimensions{
				Series: []sdmx.Dimension{
					{ID: "AGE", Name: "Age", Values: []sdmx.Value{
						{ID: "Y_LT15", Name: "Under 15"},
						{ID: "Y15T64", Name: "15 to 64"},
					}},
				},
				Observation: []sdmx.Dimension{
					{ID: "TIME_PERIOD", Name: "Time period", Values: []sdmx.Value{
						{ID: "2021", Name: "2021"},
					}},
				},
			},
		}},
	}}
}

func TestBuildDataset(t *testing.T) {
	doc := testDoc()
	records := sdmx.Decode(doc)
	ds := BuildDataset("DF_B1600", doc, records)

	assert.Equal(t, "DF_B1600", ds.Code)
	assert.Equal(t, "Population by age", ds.Name)
	require.Len(t, ds.Dimensions, 2)
	assert.Equal(t, "AGE", ds.Dimensions[0].ID)
	assert.Equal(t, 0, ds.Dimensions[0].Position)
	assert.Len(t, ds.Dimensions[0].Categories, 2)
	assert.Equal(t, "TIME_PERIOD", ds.Dimensions[1].ID)
	assert.Len(t, ds.Records, 1)

	assert.Nil(t, ds.Dimension("SEX"))
	require.NotNil(t, ds.Dimension("AGE"))
	assert.Equal(t, "Age", ds.Dimension("AGE").Label)
}

func TestBuildDatasetWithoutStructure(t *testing.T) {
	ds := BuildDataset("EMPTY", &sdmx.Document{}, nil)
	assert.Equal(t, "EMPTY", ds.Code)
	assert.Equal(t, "EMPTY", ds.Name)
	assert.Empty(t, ds.Dimensions)
}

func TestStorePutGetList(t *testing.T) {
	st := NewStore()
	assert.Equal(t, 0, st.Len())
	assert.Nil(t, st.Get("DF_B"))

	st.Put(&Dataset{Code: "DF_B", Name: "second"})
	st.Put(&Dataset{Code: "DF_A", Name: "first"})
	assert.Equal(t, 2, st.Len())

	list := st.List()
	require.Len(t, list, 2)
	assert.Equal(t, "DF_A", list[0].Code)
	assert.Equal(t, "DF_B", list[1].Code)

	// Put replaces under the same code.
	st.Put(&Dataset{Code: "DF_A", Name: "replaced"})
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, "replaced", st.Get("DF_A").Name)
}
