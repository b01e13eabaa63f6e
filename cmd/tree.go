package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/report"
)

var (
	treeJSON   bool
	treeOutput string
	treeStdout bool
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Render the contains hierarchy as a tree view report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, rels, err := loadSnapshots()
		if err != nil {
			return err
		}
		r, err := loadRules()
		if err != nil {
			return err
		}

		view := graph.BuildTreeView(cards, rels, r.ContainerType)

		if treeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		if treeStdout {
			return report.WriteTreeReport(os.Stdout, view)
		}

		out := treeOutput
		if out == "" {
			out = cfg.Path(cfg.TreeReport)
		}
		if err := report.WriteFile(out, func(w io.Writer) error { return report.WriteTreeReport(w, view) }); err != nil {
			return err
		}
		fmt.Printf("Report generated: %s\n", out)
		for _, d := range view.Defects() {
			fmt.Fprintf(os.Stderr, "warning: %s\n", d.Error())
		}
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Output the tree as JSON")
	treeCmd.Flags().StringVarP(&treeOutput, "output", "o", "", "Report path (default tree_report in the data dir)")
	treeCmd.Flags().BoolVar(&treeStdout, "stdout", false, "Print the report instead of writing it")
	rootCmd.AddCommand(treeCmd)
}
