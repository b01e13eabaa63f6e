package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillsweb/cardgraph/internal/db"
	"skillsweb/cardgraph/internal/logging"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the SQLite index from the snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, rels, err := loadSnapshots()
		if err != nil {
			return err
		}

		path, err := DiscoverDB(true)
		if err != nil {
			return err
		}
		d, err := db.OpenDB(path)
		if err != nil {
			return fmt.Errorf("opening index: %w", err)
		}
		defer d.Close()

		stats, err := d.Replace(cmd.Context(), cards, rels)
		if err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
		logging.Get().Info("index rebuilt", zap.String("path", path),
			zap.Int("cards", stats.Cards), zap.Int("relationships", stats.Relationships))

		if indexJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		fmt.Printf("Indexed %d cards and %d relationships into %s\n", stats.Cards, stats.Relationships, path)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(indexCmd)
}
