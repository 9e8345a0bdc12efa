// Package cli implements the linkrank command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/linkrank/internal/adapters/driven/config/file"
	"github.com/custodia-labs/linkrank/internal/app"
	"github.com/custodia-labs/linkrank/internal/config"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/core/ports/driving"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// noServices marks commands that run without opening storage.
const noServices = "linkrank.io/no-services"

var (
	version = "dev"

	configPath string
	verbose    bool
)

// Services used by the commands. They are either injected with
// SetServices or built from the config file on first use.
var (
	queryService  driving.QueryService
	linkService   driving.LinkService
	ratingService driving.RatingService
	pointsService driving.PointsService
	configStore   driven.ConfigStore

	// closeServices releases services built from the config file.
	closeServices func() error
)

// Services bundles the driving ports the CLI needs.
type Services struct {
	Query  driving.QueryService
	Link   driving.LinkService
	Rating driving.RatingService
	Points driving.PointsService
}

var rootCmd = &cobra.Command{
	Use:   "linkrank",
	Short: "Filtered semantic search over rated links",
	Long: `linkrank indexes links as embedded text chunks and answers natural
language queries, narrowed by link type, category scores and the
aggregate rating users have given each link.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initServices,
	PersistentPostRunE: releaseServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.linkrank/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the services, bypassing the config file.
func SetServices(s Services) {
	queryService = s.Query
	linkService = s.Link
	ratingService = s.Rating
	pointsService = s.Points
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

func servicesReady() bool {
	return queryService != nil && linkService != nil && ratingService != nil && pointsService != nil
}

func initServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if _, skip := cmd.Annotations[noServices]; skip || servicesReady() {
		return nil
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if !verbose {
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			logger.Warn("Ignoring log.level: %v", err)
		}
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	SetServices(Services{Query: a.Query, Link: a.Links, Rating: a.Ratings, Points: a.Points})
	closeServices = a.Close
	return nil
}

func releaseServices(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	SetServices(Services{})
	return err
}

// openConfigStore returns the injected config store or opens the file.
func openConfigStore() (driven.ConfigStore, error) {
	if configStore != nil {
		return configStore, nil
	}
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening config %s: %w", path, err)
	}
	return store, nil
}
