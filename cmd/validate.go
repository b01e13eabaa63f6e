package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/graph"
)

var (
	validateJSON    bool
	validateStrict  bool
	validateRequire string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check id uniqueness, required fields, relationship endpoints and hierarchy cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, rels, err := loadSnapshots()
		if err != nil {
			return err
		}
		r, err := loadRules()
		if err != nil {
			return err
		}

		report := graph.Validate(cards, rels, graph.ValidateOptions{RequiredFields: splitList(validateRequire)})
		view := graph.BuildTreeView(cards, rels, r.ContainerType)
		defects := append(report.Defects(), view.Defects()...)

		if validateJSON {
			output := struct {
				Report  *graph.IntegrityReport `json:"report"`
				Cycles  []*graph.CycleFinding  `json:"cycles"`
				Defects []string               `json:"defects"`
			}{report, view.Cycles, make([]string, len(defects))}
			for i, d := range defects {
				output.Defects[i] = d.Error()
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(output); err != nil {
				return err
			}
		} else {
			fmt.Printf("Validating %s against %s...\n", cfg.CardsPath(), cfg.RelationshipsPath())
			fmt.Printf("Loaded %d cards (%d unique ids) and %d relationships.\n",
				report.TotalCards, report.UniqueIDs, report.TotalRelationships)
			if len(defects) == 0 {
				fmt.Println("Integrity Check: OK. All relationship endpoints exist.")
			} else {
				fmt.Printf("ERROR: %d integrity defects:\n", len(defects))
				for _, d := range defects {
					fmt.Printf(" - %s\n", d.Error())
				}
			}
		}

		if validateStrict && len(defects) > 0 {
			return fmt.Errorf("%w: %d", errDefectsFound, len(defects))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output as JSON")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", true, "Exit non-zero when defects are found")
	validateCmd.Flags().StringVar(&validateRequire, "require", "", "Comma-separated required card fields (default id,title,type)")
	rootCmd.AddCommand(validateCmd)
}
