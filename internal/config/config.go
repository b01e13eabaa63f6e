package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "CARDGRAPH"

// ServerConfig holds configuration for the save server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig selects the logger's level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// Neo4jConfig holds connection settings for the graph export.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Config holds all runtime configuration.
// Values are populated from .cardgraph.yaml, CARDGRAPH_* env vars, .env, and CLI flags.
type Config struct {
	DataDir           string       `mapstructure:"data_dir"`
	CardsFile         string       `mapstructure:"cards_file"`
	RelationshipsFile string       `mapstructure:"relationships_file"`
	TrailsFile        string       `mapstructure:"trails_file"`
	RulesFile         string       `mapstructure:"rules_file"`
	LinkThreshold     float64      `mapstructure:"link_threshold"` // 0 keeps the rules' threshold
	OrphanReport      string       `mapstructure:"orphan_report"`
	TreeReport        string       `mapstructure:"tree_report"`
	DebugHTML         string       `mapstructure:"debug_html"`
	MappingFile       string       `mapstructure:"mapping_file"`
	DB                string       `mapstructure:"db"`
	Server            ServerConfig `mapstructure:"server"`
	Log               LogConfig    `mapstructure:"log"`
	Neo4j             Neo4jConfig  `mapstructure:"neo4j"`
}

// SetDefaults registers built-in defaults for every key.
func SetDefaults() {
	viper.SetDefault("data_dir", ".")
	viper.SetDefault("cards_file", "cards.json")
	viper.SetDefault("relationships_file", "relationships.json")
	viper.SetDefault("trails_file", "pathfinder_config.json")
	viper.SetDefault("rules_file", "")
	viper.SetDefault("link_threshold", 0.0)
	viper.SetDefault("orphan_report", "orphan_insight_report.txt")
	viper.SetDefault("tree_report", "tree_view_report.txt")
	viper.SetDefault("debug_html", "raw_data.html")
	viper.SetDefault("mapping_file", "pdf_mapping.json")
	viper.SetDefault("db", "")
	viper.SetDefault("server.addr", ":8002")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.user", "neo4j")
	viper.SetDefault("neo4j.password", "")
	viper.SetDefault("neo4j.database", "")
}

// BindEnv makes CARDGRAPH_* variables override keys; nested keys use
// underscores, so server.addr reads CARDGRAPH_SERVER_ADDR. A .env file in the
// working directory is loaded first when present and never overrides
// variables already set.
func BindEnv() {
	_ = godotenv.Load()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later and far from their
// source.
func (c Config) Validate() error {
	if c.LinkThreshold < 0 || c.LinkThreshold >= 1 {
		return fmt.Errorf("link_threshold must be in [0, 1), got %v", c.LinkThreshold)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.CardsFile == "" || c.RelationshipsFile == "" {
		return fmt.Errorf("cards_file and relationships_file must be set")
	}
	return nil
}

// Path resolves a configured file name against the data directory. Absolute
// names and the empty string are returned unchanged.
func (c Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// CardsPath is the resolved cards snapshot path.
func (c Config) CardsPath() string { return c.Path(c.CardsFile) }

// RelationshipsPath is the resolved relationships snapshot path.
func (c Config) RelationshipsPath() string { return c.Path(c.RelationshipsFile) }

// TrailsPath is the resolved trail configuration path.
func (c Config) TrailsPath() string { return c.Path(c.TrailsFile) }

// DiscoverDataDir returns dir unchanged when explicit is true. Otherwise it
// walks up from the working directory looking for cardsFile and returns the
// first directory holding one, falling back to dir.
func DiscoverDataDir(dir, cardsFile string, explicit bool) string {
	if explicit {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return dir
	}
	for {
		if _, err := os.Stat(filepath.Join(wd, cardsFile)); err == nil {
			return wd
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return dir
		}
		wd = parent
	}
}
