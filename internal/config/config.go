// Package config loads linkrank settings from ~/.linkrank/config.toml,
// with LINKRANK_* environment variables taking precedence over the file.
// A key such as embedding.api_key is overridden by LINKRANK_EMBEDDING_API_KEY.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "LINKRANK"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendQdrant   = "qdrant"
)

// Config is the full application configuration.
type Config struct {
	Storage   Storage                  `mapstructure:"storage" toml:"storage"`
	Qdrant    Qdrant                   `mapstructure:"qdrant" toml:"qdrant"`
	Postgres  Postgres                 `mapstructure:"postgres" toml:"postgres"`
	Embedding domain.EmbeddingSettings `mapstructure:"embedding" toml:"embedding"`
	Rewards   Rewards                  `mapstructure:"rewards" toml:"rewards"`
	Tiers     []domain.Tier            `mapstructure:"tiers" toml:"tiers"`
	Log       Log                      `mapstructure:"log" toml:"log"`
}

// Storage selects where links, chunks, ratings and points live.
type Storage struct {
	// Backend is one of memory, sqlite, postgres or qdrant. The qdrant
	// backend keeps ratings and points in SQLite under DataDir.
	Backend string `mapstructure:"backend" toml:"backend"`

	// DataDir holds the SQLite database. Empty means ~/.linkrank/data.
	DataDir string `mapstructure:"data_dir" toml:"data_dir"`
}

// Qdrant configures the Qdrant collections.
type Qdrant struct {
	URL                string `mapstructure:"url" toml:"url"`
	APIKey             string `mapstructure:"api_key" toml:"api_key"`
	MetadataCollection string `mapstructure:"metadata_collection" toml:"metadata_collection"`
	ChunkCollection    string `mapstructure:"chunk_collection" toml:"chunk_collection"`
	MetadataDimensions int    `mapstructure:"metadata_dimensions" toml:"metadata_dimensions"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

// Postgres configures the PostgreSQL connection pool.
type Postgres struct {
	DSN          string `mapstructure:"dsn" toml:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" toml:"max_idle_conns"`
}

// Rewards configures points granted for contributions.
type Rewards struct {
	LinkPoints   int `mapstructure:"link_points" toml:"link_points"`
	RatingPoints int `mapstructure:"rating_points" toml:"rating_points"`
}

// Log configures logging.
type Log struct {
	Level string `mapstructure:"level" toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage: Storage{Backend: BackendSQLite},
		Qdrant: Qdrant{
			URL:                "http://localhost:6333",
			MetadataCollection: "links_metadata",
			ChunkCollection:    "links_chunks",
			MetadataDimensions: 768,
			TimeoutSeconds:     15,
		},
		Postgres: Postgres{MaxOpenConns: 10, MaxIdleConns: 2},
		Embedding: domain.EmbeddingSettings{
			Provider:       domain.AIProviderOllama,
			Model:          domain.DefaultEmbeddingModels()[domain.AIProviderOllama],
			BaseURL:        "http://localhost:11434",
			TimeoutSeconds: 30,
			Burst:          1,
		},
		Rewards: Rewards{LinkPoints: 100, RatingPoints: 10},
		Tiers: []domain.Tier{
			{Name: "Starter", Threshold: 0},
			{Name: "Contributor", Threshold: 250},
			{Name: "Expert", Threshold: 1000},
		},
		Log: Log{Level: "warn"},
	}
}

// Dir returns the linkrank home directory, ~/.linkrank.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".linkrank"), nil
}

// DefaultPath returns ~/.linkrank/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every scalar key so that environment overrides
// are seen by Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)

	v.SetDefault("qdrant.url", d.Qdrant.URL)
	v.SetDefault("qdrant.api_key", d.Qdrant.APIKey)
	v.SetDefault("qdrant.metadata_collection", d.Qdrant.MetadataCollection)
	v.SetDefault("qdrant.chunk_collection", d.Qdrant.ChunkCollection)
	v.SetDefault("qdrant.metadata_dimensions", d.Qdrant.MetadataDimensions)
	v.SetDefault("qdrant.timeout_seconds", d.Qdrant.TimeoutSeconds)

	v.SetDefault("postgres.dsn", d.Postgres.DSN)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)

	v.SetDefault("embedding.provider", string(d.Embedding.Provider))
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.timeout_seconds", d.Embedding.TimeoutSeconds)
	v.SetDefault("embedding.requests_per_second", d.Embedding.RequestsPerSecond)
	v.SetDefault("embedding.burst", d.Embedding.Burst)

	v.SetDefault("rewards.link_points", d.Rewards.LinkPoints)
	v.SetDefault("rewards.rating_points", d.Rewards.RatingPoints)

	v.SetDefault("tiers", d.Tiers)

	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite, BackendQdrant:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Embedding.Provider != "" && !c.Embedding.Provider.IsValid() {
		return fmt.Errorf("config: unknown embedding.provider %q", c.Embedding.Provider)
	}
	if c.Rewards.LinkPoints < 0 || c.Rewards.RatingPoints < 0 {
		return errors.New("config: rewards must not be negative")
	}
	for _, t := range c.Tiers {
		if t.Name == "" {
			return errors.New("config: every tier needs a name")
		}
	}
	return nil
}

// Write stores cfg as TOML at path. An existing file is only replaced
// when force is set.
func Write(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
