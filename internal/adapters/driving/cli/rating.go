package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Rate links and read ratings",
}

var ratingSetCmd = &cobra.Command{
	Use:   "set [user-id] [link-id] [value]",
	Short: "Create or update a rating (0-5)",
	Long: `Records a user's rating for a link. The first rating a user gives a
link earns reward points; changing it later does not.`,
	Args: cobra.ExactArgs(3),
	RunE: runRatingSet,
}

var ratingListCmd = &cobra.Command{
	Use:   "list [user-id]",
	Short: "List the ratings a user has given",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatingList,
}

var ratingShowCmd = &cobra.Command{
	Use:   "show [link-id]",
	Short: "Show the aggregate rating of a link",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatingShow,
}

var ratingJSON bool

func init() {
	for _, c := range []*cobra.Command{ratingSetCmd, ratingListCmd, ratingShowCmd} {
		c.Flags().BoolVar(&ratingJSON, "json", false, "output as JSON")
	}
	ratingCmd.AddCommand(ratingSetCmd)
	ratingCmd.AddCommand(ratingListCmd)
	ratingCmd.AddCommand(ratingShowCmd)
	rootCmd.AddCommand(ratingCmd)
}

func runRatingSet(cmd *cobra.Command, args []string) error {
	if ratingService == nil {
		return errors.New("rating service not configured")
	}

	value, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid rating %q: %w", args[2], err)
	}

	outcome, err := ratingService.Rate(cmd.Context(), args[0], args[1], value)
	if err != nil {
		return fmt.Errorf("failed to rate link: %w", err)
	}

	if ratingJSON {
		return printJSON(cmd, outcome)
	}
	verb := "Updated"
	if outcome.Created {
		verb = "Created"
	}
	cmd.Printf("%s rating %.1f for %s\n", render(cmd, successStyle, verb), outcome.Rating.Value, outcome.Rating.LinkID)
	if outcome.PointsAwarded > 0 {
		cmd.Printf("%s +%d points\n", render(cmd, warningStyle, "Reward:"), outcome.PointsAwarded)
	}
	return nil
}

func runRatingList(cmd *cobra.Command, args []string) error {
	if ratingService == nil {
		return errors.New("rating service not configured")
	}

	ratings, err := ratingService.ListByUser(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list ratings: %w", err)
	}

	if ratingJSON {
		return printJSON(cmd, ratings)
	}
	if len(ratings) == 0 {
		cmd.Printf("No ratings by %s.\n", args[0])
		return nil
	}
	for _, r := range ratings {
		cmd.Printf("  %s  %.1f\n", r.LinkID, r.Value)
	}
	return nil
}

func runRatingShow(cmd *cobra.Command, args []string) error {
	if ratingService == nil {
		return errors.New("rating service not configured")
	}

	avg, err := ratingService.RatingOf(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get rating: %w", err)
	}

	if ratingJSON {
		return printJSON(cmd, map[string]any{"link_id": args[0], "rating": avg})
	}
	cmd.Printf("%s %s\n", render(cmd, labelStyle, args[0]+":"), formatRating(avg))
	return nil
}
