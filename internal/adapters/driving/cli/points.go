package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Show and grant reward points",
}

var pointsShowCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show a user's points and tier",
	Args:  cobra.ExactArgs(1),
	RunE:  runPointsShow,
}

var pointsGrantCmd = &cobra.Command{
	Use:   "grant [user-id] [amount]",
	Short: "Add points to a user's balance",
	Args:  cobra.ExactArgs(2),
	RunE:  runPointsGrant,
}

var pointsJSON bool

func init() {
	for _, c := range []*cobra.Command{pointsShowCmd, pointsGrantCmd} {
		c.Flags().BoolVar(&pointsJSON, "json", false, "output as JSON")
	}
	pointsCmd.AddCommand(pointsShowCmd)
	pointsCmd.AddCommand(pointsGrantCmd)
	rootCmd.AddCommand(pointsCmd)
}

func runPointsShow(cmd *cobra.Command, args []string) error {
	if pointsService == nil {
		return errors.New("points service not configured")
	}

	status, err := pointsService.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get points: %w", err)
	}
	return outputPoints(cmd, status)
}

func runPointsGrant(cmd *cobra.Command, args []string) error {
	if pointsService == nil {
		return errors.New("points service not configured")
	}

	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}

	status, err := pointsService.Grant(cmd.Context(), args[0], amount)
	if err != nil {
		return fmt.Errorf("failed to grant points: %w", err)
	}
	return outputPoints(cmd, status)
}

func outputPoints(cmd *cobra.Command, status *domain.PointsStatus) error {
	if pointsJSON {
		return printJSON(cmd, status)
	}
	cmd.Printf("%s %d points, tier %s\n",
		render(cmd, labelStyle, status.UserID+":"), status.Points, render(cmd, titleStyle, status.Tier))
	return nil
}
