package domain

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Query limit bounds.
const (
	DefaultQueryLimit = 10
	MinQueryLimit     = 1
	MaxQueryLimit     = 25
)

// Range is an inclusive [Low, High] interval.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Default ranges. A filter equal to its default does not restrict anything.
var (
	DefaultRatingRange   = Range{Low: MinRating, High: MaxRating}
	DefaultCategoryRange = Range{Low: MinCategoryScore, High: MaxCategoryScore}
)

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Low && v <= r.High
}

// RangeFromPair converts a [low, high] pair. ok is false for any other length.
func RangeFromPair(pair []float64) (Range, bool) {
	if len(pair) != 2 {
		return Range{}, false
	}
	return Range{Low: pair[0], High: pair[1]}, true
}

// FilterRequest is the loosely-typed filter accepted by the query entry point.
// Every field is optional.
type FilterRequest struct {
	// QueryLimit is expected to be an integer in [1,25]. Anything else,
	// including floats and strings, falls back to the default.
	QueryLimit any `json:"queryLimit,omitempty"`

	// GeneralRating is a [low, high] pair on the aggregate rating.
	GeneralRating []float64 `json:"generalRating,omitempty"`

	// LinkTypes restricts results to these link types when non-empty.
	LinkTypes []string `json:"linkTypes,omitempty"`

	// CategoryFilters maps category names to [low, high] pairs.
	CategoryFilters map[string][]float64 `json:"categoryFilters,omitempty"`
}

// UnmarshalJSON keeps queryLimit as a json.Number so that 10 and 10.0
// can be told apart.
func (f *FilterRequest) UnmarshalJSON(data []byte) error {
	type plain FilterRequest
	var aux struct {
		plain
		QueryLimit json.RawMessage `json:"queryLimit,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = FilterRequest(aux.plain)
	f.QueryLimit = nil
	if len(aux.QueryLimit) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(aux.QueryLimit))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	f.QueryLimit = v
	return nil
}

// FieldRange restricts one category score to an inclusive range.
type FieldRange struct {
	Category Category
	Range    Range
}

// Predicate is a conjunction over Document fields.
// The zero value matches every document.
type Predicate struct {
	// LinkTypes requires membership when non-empty.
	LinkTypes []string

	// Ranges requires every listed category to fall inside its range.
	Ranges []FieldRange

	// OwnerID requires the submitting user to match when non-empty.
	OwnerID string
}

// IsEmpty reports whether the predicate places no restriction.
func (p Predicate) IsEmpty() bool {
	return len(p.LinkTypes) == 0 && len(p.Ranges) == 0 && p.OwnerID == ""
}

// Matches evaluates the predicate against d.
func (p Predicate) Matches(d *Document) bool {
	if len(p.LinkTypes) > 0 && !slices.Contains(p.LinkTypes, d.LinkType) {
		return false
	}
	for _, fr := range p.Ranges {
		v, ok := d.Score(fr.Category)
		if !ok || !fr.Range.Contains(v) {
			return false
		}
	}
	if p.OwnerID != "" && d.User.ID != p.OwnerID {
		return false
	}
	return true
}

// CompiledFilter is the normalized form of a FilterRequest.
type CompiledFilter struct {
	// Limit is the effective number of groups to return.
	Limit int

	// Predicate applies to stored Document fields.
	Predicate Predicate

	// Rating applies to the derived aggregate rating.
	Rating Range
}

// RestrictsRating reports whether the rating range excludes anything.
func (c CompiledFilter) RestrictsRating() bool {
	return c.Rating != DefaultRatingRange
}

// Restrictive reports whether candidate resolution is needed at all.
func (c CompiledFilter) Restrictive() bool {
	return !c.Predicate.IsEmpty() || c.RestrictsRating()
}
