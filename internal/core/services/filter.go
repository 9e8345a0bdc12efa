package services

import (
	"encoding/json"
	"slices"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// CompileFilter normalizes a loosely-typed filter request into a predicate
// over stored fields plus a separate rating range. It never fails:
// malformed values fall back to their defaults.
func CompileFilter(req domain.FilterRequest) domain.CompiledFilter {
	compiled := domain.CompiledFilter{
		Limit:  compileLimit(req.QueryLimit),
		Rating: domain.DefaultRatingRange,
	}

	if r, ok := domain.RangeFromPair(req.GeneralRating); ok {
		compiled.Rating = r
	} else if req.GeneralRating != nil {
		logger.Debug("Ignoring malformed generalRating %v", req.GeneralRating)
	}

	for _, lt := range req.LinkTypes {
		if lt != "" && !slices.Contains(compiled.Predicate.LinkTypes, lt) {
			compiled.Predicate.LinkTypes = append(compiled.Predicate.LinkTypes, lt)
		}
	}

	for name := range req.CategoryFilters {
		if !domain.Category(name).Valid() {
			logger.Debug("Ignoring unknown category filter %q", name)
		}
	}
	for _, c := range domain.Categories() {
		r, ok := domain.RangeFromPair(req.CategoryFilters[string(c)])
		if !ok || r == domain.DefaultCategoryRange {
			continue
		}
		compiled.Predicate.Ranges = append(compiled.Predicate.Ranges, domain.FieldRange{Category: c, Range: r})
	}

	return compiled
}

// compileLimit accepts only integers within [MinQueryLimit, MaxQueryLimit].
func compileLimit(v any) int {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return domain.DefaultQueryLimit
		}
		n = i
	default:
		return domain.DefaultQueryLimit
	}

	if n < domain.MinQueryLimit || n > domain.MaxQueryLimit {
		return domain.DefaultQueryLimit
	}
	return int(n)
}
