package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/logging"
	"skillsweb/cardgraph/internal/report"
)

var (
	orphansJSON   bool
	orphansOutput string
	orphansStdout bool
)

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Classify cards without a parent and write the orphan insight report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, rels, err := loadSnapshots()
		if err != nil {
			return err
		}
		r, err := loadRules()
		if err != nil {
			return err
		}

		cls := graph.ClassifyOrphans(cards, graph.BuildHierarchy(rels.Items), r)

		if orphansJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cls)
		}

		render := func(w io.Writer) error { return report.WriteOrphanReport(w, cls, r) }
		if orphansStdout {
			return render(os.Stdout)
		}

		out := orphansOutput
		if out == "" {
			out = cfg.Path(cfg.OrphanReport)
		}
		if err := report.WriteFile(out, render); err != nil {
			return err
		}
		logging.Get().Info("orphan report written", zap.String("path", out), zap.Int("orphans", cls.TotalOrphans))
		fmt.Printf("Found %d orphans.\n", cls.TotalOrphans)
		fmt.Printf("Report written to %s\n", out)
		return nil
	},
}

func init() {
	orphansCmd.Flags().BoolVar(&orphansJSON, "json", false, "Output clusters as JSON instead of writing the report")
	orphansCmd.Flags().StringVarP(&orphansOutput, "output", "o", "", "Report path (default orphan_report in the data dir)")
	orphansCmd.Flags().BoolVar(&orphansStdout, "stdout", false, "Print the report instead of writing it")
	rootCmd.AddCommand(orphansCmd)
}
