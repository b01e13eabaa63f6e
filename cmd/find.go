package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/db"
)

var (
	findJSON         bool
	findPrefix       bool
	findLimit        int
	findRelated      bool
	findBudget       int
	findMaxHops      int
	findMaxCost      float64
	findEdgeTypes    string
	findExcludeTypes string
)

var findCmd = &cobra.Command{
	Use:   "find <ref>",
	Short: "Look a card up in the index by id, id prefix or title words",
	Long: "Resolves <ref> as an exact id, then an id prefix, then a title/description search. " +
		"--prefix lists every card whose id starts with <ref>. --related walks the relationships " +
		"outward from the card and ranks what it reaches by weighted distance.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		if findPrefix {
			matches, err := d.SearchByIDPrefix(args[0], findLimit)
			if err != nil {
				return fmt.Errorf("prefix search: %w", err)
			}
			if findJSON {
				return encodeJSON(matches)
			}
			fmt.Printf("%-35s | %s\n", "ID", "Title")
			fmt.Println(strings.Repeat("-", 80))
			for _, m := range matches {
				fmt.Printf("%-35s | %s\n", m.ID, m.Title)
			}
			fmt.Printf("\nTotal %s* Cards: %d\n", args[0], len(matches))
			return nil
		}

		card, err := ResolveCard(d, args[0])
		if err != nil {
			return err
		}

		if !findRelated {
			if findJSON {
				return encodeJSON(json.RawMessage(card.Raw))
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, []byte(card.Raw), "", "  "); err != nil {
				return err
			}
			fmt.Printf("Found card %s:\n%s\n", card.ID, pretty.String())
			return nil
		}

		config := &db.NeighborhoodConfig{
			Budget:       findBudget,
			MaxHops:      findMaxHops,
			MaxCost:      findMaxCost,
			Types:        splitList(findEdgeTypes),
			ExcludeTypes: splitList(findExcludeTypes),
		}
		results, err := d.Neighborhood(card.ID, config)
		if err != nil {
			return fmt.Errorf("neighborhood expansion: %w", err)
		}

		if findJSON {
			output := struct {
				Source  interface{}     `json:"source"`
				Budget  int             `json:"budget"`
				Results []db.NearbyCard `json:"results"`
				Count   int             `json:"count"`
			}{
				Source: struct {
					ID    string `json:"id"`
					Title string `json:"title"`
				}{card.ID, card.Title},
				Budget:  findBudget,
				Results: results,
				Count:   len(results),
			}
			return encodeJSON(output)
		}

		printNeighborhood(card, results)
		return nil
	},
}

func init() {
	findCmd.Flags().BoolVar(&findJSON, "json", false, "JSON output")
	findCmd.Flags().BoolVar(&findPrefix, "prefix", false, "List every card whose id starts with <ref>")
	findCmd.Flags().IntVar(&findLimit, "limit", 200, "Max cards listed with --prefix")
	findCmd.Flags().BoolVar(&findRelated, "related", false, "Rank the cards reachable from the match")
	findCmd.Flags().IntVar(&findBudget, "budget", 20, "Max cards to return with --related")
	findCmd.Flags().IntVar(&findMaxHops, "max-hops", 6, "Max graph depth")
	findCmd.Flags().Float64Var(&findMaxCost, "max-cost", 3.0, "Cost ceiling")
	findCmd.Flags().StringVar(&findEdgeTypes, "edge-types", "", "Comma-separated relationship type allowlist")
	findCmd.Flags().StringVar(&findExcludeTypes, "exclude-types", "", "Comma-separated relationship type blocklist")
	rootCmd.AddCommand(findCmd)
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printNeighborhood(source *db.CardRow, results []db.NearbyCard) {
	if len(results) == 0 {
		fmt.Printf("No related cards found for: %s\n", source.Title)
		return
	}

	fmt.Printf("Related to: %s (%s)  budget=%d\n\n", source.Title, source.ID, findBudget)

	for _, r := range results {
		fmt.Printf("  %2d. %s (%s)  dist=%.3f rel=%.0f%% hops=%d\n",
			r.Rank, r.Title, r.CardID, r.Distance, r.Relevance*100, r.Hops)

		if len(r.Path) > 0 {
			hops := make([]string, len(r.Path))
			for i, hop := range r.Path {
				hops[i] = fmt.Sprintf("->[%s]-> %s", hop.Type, truncTitle(hop.Title, 40))
			}
			fmt.Printf("      %s\n", strings.Join(hops, " "))
		}
	}

	fmt.Printf("\n%d card(s) within budget\n", len(results))
}
