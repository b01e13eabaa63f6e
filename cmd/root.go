package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skillsweb/cardgraph/internal/config"
	"skillsweb/cardgraph/internal/db"
	"skillsweb/cardgraph/internal/logging"
	"skillsweb/cardgraph/internal/rules"
	"skillsweb/cardgraph/internal/store"
)

// dbFileName is the index file looked for when walking up from the cwd.
const dbFileName = ".cardgraph.db"

var (
	dbPath string
	cfg    config.Config
)

// errDefectsFound makes a command exit non-zero after printing its findings.
var errDefectsFound = errors.New("integrity defects found")

var rootCmd = &cobra.Command{
	Use:               "cardgraph",
	Short:             "Skills web card graph maintenance",
	Long:              "cardgraph validates, classifies, repairs and renders the card/relationship graph behind the skills web.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .cardgraph.yaml)")
	flags.String("data-dir", "", "directory holding cards.json and relationships.json")
	flags.String("rules", "", "rules file (.toml, .yaml) overriding the built-in rules")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	flags.StringVar(&dbPath, "db", "", "Path to .cardgraph.db index")

	_ = viper.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("rules_file", flags.Lookup("rules"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".cardgraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	config.BindEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// setup loads the configuration and starts the logger before any subcommand.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	c.DataDir = config.DiscoverDataDir(c.DataDir, c.CardsFile, c.DataDir != ".")
	cfg = c

	if err := logging.Init(c.Log.Level, c.Log.Format); err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logging.Get().Debug("config file loaded: " + used)
	}
	return nil
}

// loadRules returns the built-in rules, overlaid by the configured rules file.
// A configured link threshold replaces the rules' one.
func loadRules() (*rules.Rules, error) {
	r := rules.Default()
	if cfg.RulesFile != "" {
		var err error
		if r, err = rules.Load(cfg.Path(cfg.RulesFile)); err != nil {
			return nil, err
		}
	}
	if cfg.LinkThreshold > 0 {
		r.LinkThreshold = cfg.LinkThreshold
	}
	return r, nil
}

// loadSnapshots reads the configured cards and relationships files.
func loadSnapshots() (*store.CardSet, *store.RelationshipSet, error) {
	cards, err := store.LoadCards(cfg.CardsPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading cards: %w", err)
	}
	rels, err := store.LoadRelationships(cfg.RelationshipsPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading relationships: %w", err)
	}
	return cards, rels, nil
}

// DiscoverDB finds the index path using priority: env > flag > config > walk-up.
// With create set, a path is returned even when no index exists yet, falling
// back to the data directory.
func DiscoverDB(create bool) (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("CARDGRAPH_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil || create {
			return envPath, nil
		}
	}

	// 2. CLI flag, then config file
	for _, p := range []string{dbPath, cfg.DB} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil || create {
			return p, nil
		}
		return "", fmt.Errorf("index not found at %s (run `cardgraph index` first)", p)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 4. Data directory
	fallback := cfg.Path(dbFileName)
	if _, err := os.Stat(fallback); err == nil || create {
		return fallback, nil
	}

	return "", fmt.Errorf("no %s found (set CARDGRAPH_DB, use --db, or run `cardgraph index`)", dbFileName)
}

// OpenDatabase discovers and opens the index.
func OpenDatabase() (*db.DB, error) {
	path, err := DiscoverDB(false)
	if err != nil {
		return nil, err
	}
	return db.OpenDB(path)
}

// ResolveCard finds a card by full id, id prefix, or title search.
func ResolveCard(d *db.DB, reference string) (*db.CardRow, error) {
	// 1. Exact ID match
	card, err := d.GetCard(reference)
	if err == nil && card != nil {
		return card, nil
	}

	// 2. ID prefix match (>=3 id chars)
	if len(reference) >= 3 && isIDChars(reference) {
		matches, err := d.SearchByIDPrefix(reference, 10)
		if err == nil {
			switch len(matches) {
			case 1:
				return &matches[0], nil
			case 0:
				// fall through to FTS
			default:
				return nil, ambiguous(reference, matches, "Use a full card ID instead.")
			}
		}
	}

	// 3. FTS search
	results, err := d.SearchCards(reference, 10)
	if err == nil {
		switch len(results) {
		case 1:
			return &results[0], nil
		case 0:
			// fall through to not found
		default:
			return nil, ambiguous(reference, results, "Use a card ID instead.")
		}
	}

	return nil, fmt.Errorf("card not found: %s", reference)
}

func ambiguous(reference string, matches []db.CardRow, hint string) error {
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("  %-35s %s", m.ID, m.Title)
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\n%s",
		reference, len(matches), strings.Join(lines, "\n"), hint)
}

func isIDChars(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// bindFlag binds a command-local flag to a config key.
func bindFlag(c *cobra.Command, key, flag string) {
	_ = viper.BindPFlag(key, c.Flags().Lookup(flag))
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
