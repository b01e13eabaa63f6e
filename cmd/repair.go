package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/logging"
	"skillsweb/cardgraph/internal/store"
)

var (
	repairDryRun bool
	repairJSON   bool
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Create missing hub cards, attach children and seed trails from the rules",
	Long: "Applies the rules' hubs, attachments and trail seed updates. Only what is absent is added, " +
		"so running repair twice changes nothing the second time. Each file is written only if it changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRules()
		if err != nil {
			return err
		}
		result, err := applyRepair(graph.PlanFromRules(r), repairDryRun)
		if err != nil {
			return err
		}

		if repairJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printRepair(result)
		return nil
	},
}

func init() {
	repairCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "Report what would change without writing")
	repairCmd.Flags().BoolVar(&repairJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(repairCmd)
}

// applyRepair loads the configured snapshots, repairs them with plan and,
// unless dryRun is set, writes back only the files that changed.
func applyRepair(plan graph.RepairPlan, dryRun bool) (*graph.RepairResult, error) {
	cards, rels, err := loadSnapshots()
	if err != nil {
		return nil, err
	}
	trails, err := store.LoadTrails(cfg.TrailsPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading trails: %w", err)
		}
		logging.Get().Warn("trail configuration not found; seed updates skipped", zap.String("path", cfg.TrailsPath()))
		trails = nil
	}

	result := graph.Repair(cards, rels, trails, plan)
	if dryRun {
		return result, nil
	}
	if result.CardsChanged {
		if err := store.SaveCards(cards, ""); err != nil {
			return nil, fmt.Errorf("saving cards: %w", err)
		}
	}
	if result.RelationshipsChanged {
		if err := store.SaveRelationships(rels, ""); err != nil {
			return nil, fmt.Errorf("saving relationships: %w", err)
		}
	}
	if result.TrailsChanged {
		if err := store.SaveTrails(trails, ""); err != nil {
			return nil, fmt.Errorf("saving trails: %w", err)
		}
	}
	return result, nil
}

func printRepair(result *graph.RepairResult) {
	prefix := ""
	if repairDryRun {
		prefix = "[dry-run] "
	}
	for _, id := range result.CreatedHubs {
		fmt.Printf("%sCreated hub card: %s\n", prefix, id)
	}
	for _, p := range result.AddedEdges {
		fmt.Printf("%sLinked %s -> %s\n", prefix, p.Parent, p.Child)
	}
	for _, s := range result.AddedSeeds {
		fmt.Printf("%sAdded %s to trail %s\n", prefix, s.Seed, s.Trail)
	}
	for _, d := range result.Skipped {
		fmt.Printf("Skipped: %s\n", d.Error())
	}
	for _, t := range result.MissingTrails {
		fmt.Printf("Trail not found: %s\n", t)
	}
	if !result.Changed() {
		fmt.Println("No changes needed.")
		return
	}
	fmt.Printf("%s%d hubs, %d edges, %d seeds added.\n",
		prefix, len(result.CreatedHubs), len(result.AddedEdges), len(result.AddedSeeds))
}
