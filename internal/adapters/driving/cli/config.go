package cli

import (
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/linkrank/internal/config"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage the configuration file",
	Long:        `Create, inspect, and edit ~/.linkrank/config.toml (or the file given with --config).`,
	Annotations: map[string]string{noServices: "true"},
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with default values",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{noServices: "true"},
	RunE:        runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Long:        `Prints the configuration after defaults and LINKRANK_* environment overrides. API keys are masked.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{noServices: "true"},
	RunE:        runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:         "get [key]",
	Short:       "Print a value stored in the config file",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{noServices: "true"},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a value in the config file",
	Long: `Stores a dotted key such as embedding.model. Values that parse as
booleans, integers or floats are stored with that type.`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{noServices: "true"},
	RunE:        runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:         "unset [key]",
	Short:       "Remove a value from the config file",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{noServices: "true"},
	RunE:        runConfigUnset,
}

var configForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg := config.Default()
	if err := config.Write(path, &cfg, configForce); err != nil {
		return err
	}
	cmd.Printf("%s %s\n", render(cmd, successStyle, "Wrote"), path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.Embedding.APIKey = maskAPIKey(cfg.Embedding.APIKey)
	cfg.Qdrant.APIKey = maskAPIKey(cfg.Qdrant.APIKey)
	cfg.Postgres.DSN = maskAPIKey(cfg.Postgres.DSN)

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	cmd.Println(render(cmd, mutedStyle, "# "+path))
	cmd.Print(string(data))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	val, ok := store.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set in %s", args[0], store.Path())
	}
	cmd.Println(val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	if err := store.Set(args[0], parseConfigValue(args[1])); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s %s\n", render(cmd, successStyle, "Set"), args[0])
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	if err := store.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}
	cmd.Printf("%s %s\n", render(cmd, successStyle, "Unset"), args[0])
	return nil
}

// parseConfigValue keeps TOML types for booleans and numbers.
func parseConfigValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// maskAPIKey masks a secret for display, showing only the last 4 characters.
func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
