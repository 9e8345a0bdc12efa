package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// snippetLength bounds the chunk text printed per result.
const snippetLength = 200

var (
	queryLimit      int
	queryRating     string
	queryTypes      []string
	queryCategories []string
	queryFilterJSON string
	queryJSON       bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search links by meaning",
	Long: `Encodes the query text and returns the best matching chunk of each link,
highest similarity first.

Filters narrow the candidate links before the vector search:
  --type report --type article      only these link types
  --category co2_score=10:60        category score within [10, 60]
  --rating 3,5                      aggregate user rating within [3, 5]

The same filter can be passed as JSON with --filter-json, e.g.
  {"queryLimit": 5, "generalRating": [3, 5], "linkTypes": ["report"],
   "categoryFilters": {"co2_score": [10, 60]}}
Flags given alongside --filter-json override the matching JSON fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", domain.DefaultQueryLimit, "maximum number of results (1-25)")
	queryCmd.Flags().StringVar(&queryRating, "rating", "", "aggregate rating range as low,high")
	queryCmd.Flags().StringSliceVarP(&queryTypes, "type", "t", nil, "link types to include")
	queryCmd.Flags().StringArrayVarP(&queryCategories, "category", "c", nil, "category range as name=low:high")
	queryCmd.Flags().StringVar(&queryFilterJSON, "filter-json", "", "filter as a JSON object")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	filter, err := buildFilter(cmd)
	if err != nil {
		return err
	}

	results, err := queryService.Query(cmd.Context(), args[0], filter)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, results)
	}
	return outputQueryTable(cmd, results)
}

// buildFilter merges --filter-json with the individual filter flags.
func buildFilter(cmd *cobra.Command) (domain.FilterRequest, error) {
	var filter domain.FilterRequest
	if queryFilterJSON != "" {
		if err := json.Unmarshal([]byte(queryFilterJSON), &filter); err != nil {
			return filter, fmt.Errorf("invalid --filter-json: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("limit") || filter.QueryLimit == nil {
		filter.QueryLimit = queryLimit
	}
	if flags.Changed("rating") {
		pair, err := parsePair(queryRating, ",")
		if err != nil {
			return filter, fmt.Errorf("invalid --rating: %w", err)
		}
		filter.GeneralRating = pair
	}
	if flags.Changed("type") {
		filter.LinkTypes = queryTypes
	}
	if flags.Changed("category") {
		if filter.CategoryFilters == nil {
			filter.CategoryFilters = make(map[string][]float64)
		}
		for _, c := range queryCategories {
			name, bounds, ok := strings.Cut(c, "=")
			if !ok || name == "" {
				return filter, fmt.Errorf("invalid --category %q: want name=low:high", c)
			}
			if !domain.Category(name).Valid() {
				return filter, fmt.Errorf("unknown category %q", name)
			}
			pair, err := parsePair(bounds, ":")
			if err != nil {
				return filter, fmt.Errorf("invalid --category %q: %w", c, err)
			}
			filter.CategoryFilters[name] = pair
		}
	}
	return filter, nil
}

// parsePair parses "low<sep>high" into a two-element slice.
func parsePair(s, sep string) ([]float64, error) {
	lowStr, highStr, ok := strings.Cut(s, sep)
	if !ok {
		return nil, fmt.Errorf("want low%shigh, got %q", sep, s)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(lowStr), 64)
	if err != nil {
		return nil, fmt.Errorf("bad lower bound: %w", err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(highStr), 64)
	if err != nil {
		return nil, fmt.Errorf("bad upper bound: %w", err)
	}
	return []float64{low, high}, nil
}

func outputQueryTable(cmd *cobra.Command, results []domain.QueryResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(render(cmd, titleStyle, "Results:"))
	cmd.Println()
	for i := range results {
		r := &results[i]
		title := r.Metadata.Title
		if title == "" {
			title = r.Metadata.URL
		}

		cmd.Printf("  [%d] %s %s\n", i+1, title, render(cmd, mutedStyle, fmt.Sprintf("(%.3f)", r.Score)))
		cmd.Printf("      %s\n", render(cmd, labelStyle, r.Metadata.URL))
		cmd.Printf("      type: %s  rating: %s\n", r.Metadata.LinkType, formatRating(r.UserRating))
		if snippet := truncate(r.Chunk, snippetLength); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
