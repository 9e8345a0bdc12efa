package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRequest_UnmarshalKeepsLimitAsNumber(t *testing.T) {
	var req FilterRequest
	err := json.Unmarshal([]byte(`{"queryLimit":12,"linkTypes":["report"],"generalRating":[1,4]}`), &req)
	require.NoError(t, err)

	assert.Equal(t, json.Number("12"), req.QueryLimit)
	assert.Equal(t, []string{"report"}, req.LinkTypes)
	assert.Equal(t, []float64{1, 4}, req.GeneralRating)
}

func TestFilterRequest_UnmarshalLooseLimit(t *testing.T) {
	var req FilterRequest
	require.NoError(t, json.Unmarshal([]byte(`{"queryLimit":"ten"}`), &req))
	assert.Equal(t, "ten", req.QueryLimit)

	req = FilterRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"categoryFilters":{"co2_score":[10,80]}}`), &req))
	assert.Nil(t, req.QueryLimit)
	assert.Equal(t, []float64{10, 80}, req.CategoryFilters["co2_score"])
}

func TestRangeFromPair(t *testing.T) {
	r, ok := RangeFromPair([]float64{1, 3})
	assert.True(t, ok)
	assert.Equal(t, Range{Low: 1, High: 3}, r)

	_, ok = RangeFromPair([]float64{1})
	assert.False(t, ok)
}

func TestPredicate_Matches(t *testing.T) {
	doc := sampleDocument()

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"empty matches", Predicate{}, true},
		{"link type member", Predicate{LinkTypes: []string{"news", "report"}}, true},
		{"link type not member", Predicate{LinkTypes: []string{"news"}}, false},
		{"range inclusive bound", Predicate{Ranges: []FieldRange{{CategoryCO2, Range{40, 50}}}}, true},
		{"range excludes", Predicate{Ranges: []FieldRange{{CategoryRegulation, Range{0, 69}}}}, false},
		{"owner matches", Predicate{OwnerID: "user-1"}, true},
		{"owner differs", Predicate{OwnerID: "user-2"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred.Matches(&doc))
		})
	}
}

func TestCompiledFilter_Restrictive(t *testing.T) {
	assert.False(t, CompiledFilter{Rating: DefaultRatingRange}.Restrictive())
	assert.True(t, CompiledFilter{Rating: Range{4, 5}}.Restrictive())
	assert.True(t, CompiledFilter{
		Rating:    DefaultRatingRange,
		Predicate: Predicate{LinkTypes: []string{"report"}},
	}.Restrictive())
}

func TestChunkGroup_Best(t *testing.T) {
	_, ok := ChunkGroup{LinkID: "a"}.Best()
	assert.False(t, ok)

	hit, ok := ChunkGroup{LinkID: "a", Hits: []ChunkHit{{Score: 0.9}, {Score: 0.1}}}.Best()
	assert.True(t, ok)
	assert.Equal(t, 0.9, hit.Score)
}

func TestGroupedSearchRequest_Restricted(t *testing.T) {
	assert.False(t, GroupedSearchRequest{}.Restricted())
	assert.True(t, GroupedSearchRequest{LinkIDs: []string{}}.Restricted())
}
