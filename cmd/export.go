package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/export"
	"skillsweb/cardgraph/internal/logging"
)

var exportJSON bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the card graph to an external store",
}

var exportNeo4jCmd = &cobra.Command{
	Use:   "neo4j",
	Short: "Merge cards and relationships into Neo4j",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, rels, err := loadSnapshots()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		driver, err := export.Connect(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
		if err != nil {
			return err
		}
		defer driver.Close(ctx)

		exp := export.NewNeo4jExporter(driver, cfg.Neo4j.Database, logging.Get())
		stats, err := exp.Export(ctx, cards, rels)
		if err != nil {
			return err
		}

		if exportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		fmt.Printf("Exported %d cards and %d links to %s", stats.Cards, stats.Links, cfg.Neo4j.URI)
		if stats.Skipped > 0 {
			fmt.Printf(" (%d relationships with unknown endpoints skipped)", stats.Skipped)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	exportNeo4jCmd.Flags().BoolVar(&exportJSON, "json", false, "Output as JSON")
	exportNeo4jCmd.Flags().String("uri", "", "Neo4j URI (default bolt://localhost:7687)")
	exportNeo4jCmd.Flags().String("user", "", "Neo4j user")
	exportNeo4jCmd.Flags().String("database", "", "Neo4j database (default: server default)")
	bindFlag(exportNeo4jCmd, "neo4j.uri", "uri")
	bindFlag(exportNeo4jCmd, "neo4j.user", "user")
	bindFlag(exportNeo4jCmd, "neo4j.database", "database")
	exportCmd.AddCommand(exportNeo4jCmd)
	rootCmd.AddCommand(exportCmd)
}
