package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/report"
)

var debugOutput string

var debugViewCmd = &cobra.Command{
	Use:   "debug-view",
	Short: "Write an HTML page showing the raw snapshot files",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := debugOutput
		if out == "" {
			out = cfg.Path(cfg.DebugHTML)
		}
		if err := report.GenerateDebugHTML(cfg.CardsPath(), cfg.RelationshipsPath(), out); err != nil {
			return err
		}
		fmt.Printf("Successfully generated %s\n", out)
		return nil
	},
}

func init() {
	debugViewCmd.Flags().StringVarP(&debugOutput, "output", "o", "", "Page path (default debug_html in the data dir)")
	rootCmd.AddCommand(debugViewCmd)
}
