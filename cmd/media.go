package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/store"
)

var (
	mediaDryRun bool
	mediaJSON   bool
)

var cleanMediaCmd = &cobra.Command{
	Use:   "clean-media",
	Short: "Normalize media, web and video paths on cards",
	Long: `clean-media strips pdf/ and images/ folders from media references and tidies
comma lists. It also drops a leading \web\ from web paths and turns \videos\
paths into relative forward-slash paths.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, _, err := loadSnapshots()
		if err != nil {
			return err
		}

		changes := graph.CleanMediaPaths(cards)
		assets := graph.CleanAssetPaths(cards)
		total := len(changes) + len(assets)
		if total > 0 && !mediaDryRun {
			if err := store.SaveCards(cards, ""); err != nil {
				return fmt.Errorf("saving cards: %w", err)
			}
		}

		if mediaJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Media  []graph.MediaChange `json:"media"`
				Assets []graph.AssetChange `json:"assets"`
			}{changes, assets})
		}
		for _, c := range changes {
			fmt.Printf("%s: %s -> %s\n", c.ID, strings.Join(c.Before, " | "), strings.Join(c.After, " | "))
		}
		for _, c := range assets {
			fmt.Printf("%s %s: %s -> %s\n", c.ID, c.Field, strings.Join(c.Before, " | "), strings.Join(c.After, " | "))
		}
		switch {
		case total == 0:
			fmt.Println("No changes needed.")
		case mediaDryRun:
			fmt.Printf("[dry-run] %d paths would change.\n", total)
		default:
			fmt.Printf("Successfully cleaned %d media and %d web/video paths.\n", len(changes), len(assets))
		}
		return nil
	},
}

func init() {
	cleanMediaCmd.Flags().BoolVar(&mediaDryRun, "dry-run", false, "Report what would change without writing")
	cleanMediaCmd.Flags().BoolVar(&mediaJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(cleanMediaCmd)
}
