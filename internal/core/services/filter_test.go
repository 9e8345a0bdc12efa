package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

func TestCompileFilter_DefaultsAreUnrestricted(t *testing.T) {
	compiled := CompileFilter(domain.FilterRequest{
		LinkTypes:     []string{},
		GeneralRating: []float64{0, 5},
		CategoryFilters: map[string][]float64{
			"co2_score":     {0, 100},
			"reduk_score":   {0, 100},
			"regul_score":   {0, 100},
			"report_score":  {0, 100},
			"sustfin_score": {0, 100},
		},
	})

	assert.True(t, compiled.Predicate.IsEmpty())
	assert.False(t, compiled.RestrictsRating())
	assert.False(t, compiled.Restrictive())
	assert.Equal(t, domain.DefaultQueryLimit, compiled.Limit)
}

func TestCompileFilter_ZeroValue(t *testing.T) {
	compiled := CompileFilter(domain.FilterRequest{})
	assert.False(t, compiled.Restrictive())
	assert.Equal(t, 10, compiled.Limit)
	assert.Equal(t, domain.DefaultRatingRange, compiled.Rating)
}

func TestCompileFilter_QueryLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit any
		want  int
	}{
		{"zero falls back", 0, 10},
		{"above max falls back", 26, 10},
		{"negative falls back", -3, 10},
		{"float falls back", 10.5, 10},
		{"integral float falls back", float64(5), 10},
		{"string falls back", "12", 10},
		{"bool falls back", true, 10},
		{"min", 1, 1},
		{"max", 25, 25},
		{"int64", int64(7), 7},
		{"json integer", json.Number("12"), 12},
		{"json decimal falls back", json.Number("12.0"), 10},
		{"json out of range", json.Number("30"), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled := CompileFilter(domain.FilterRequest{QueryLimit: tt.limit})
			assert.Equal(t, tt.want, compiled.Limit)
		})
	}
}

func TestCompileFilter_FromJSON(t *testing.T) {
	var req domain.FilterRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"queryLimit": 3,
		"generalRating": [4, 5],
		"linkTypes": ["report", "report", "news"],
		"categoryFilters": {"co2_score": [10, 80], "regul_score": [0, 100], "price_score": [1, 2]}
	}`), &req))

	compiled := CompileFilter(req)

	assert.Equal(t, 3, compiled.Limit)
	assert.Equal(t, domain.Range{Low: 4, High: 5}, compiled.Rating)
	assert.True(t, compiled.RestrictsRating())
	assert.Equal(t, []string{"report", "news"}, compiled.Predicate.LinkTypes)
	require.Len(t, compiled.Predicate.Ranges, 1)
	assert.Equal(t, domain.CategoryCO2, compiled.Predicate.Ranges[0].Category)
	assert.Equal(t, domain.Range{Low: 10, High: 80}, compiled.Predicate.Ranges[0].Range)
}

func TestCompileFilter_MalformedPairsIgnored(t *testing.T) {
	compiled := CompileFilter(domain.FilterRequest{
		GeneralRating:   []float64{4},
		CategoryFilters: map[string][]float64{"co2_score": {1, 2, 3}},
	})
	assert.False(t, compiled.Restrictive())
}

func TestCompileFilter_CategoryOrderIsStable(t *testing.T) {
	compiled := CompileFilter(domain.FilterRequest{
		CategoryFilters: map[string][]float64{
			"sustfin_score": {5, 50},
			"co2_score":     {10, 20},
			"report_score":  {0, 99},
		},
	})
	require.Len(t, compiled.Predicate.Ranges, 3)
	assert.Equal(t, domain.CategoryCO2, compiled.Predicate.Ranges[0].Category)
	assert.Equal(t, domain.CategoryReporting, compiled.Predicate.Ranges[1].Category)
	assert.Equal(t, domain.CategorySustainableFinance, compiled.Predicate.Ranges[2].Category)
}
