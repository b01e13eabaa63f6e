package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/store"
)

var (
	linkDir     string
	linkExt     string
	linkApply   bool
	linkPrefix  string
	linkJSON    bool
	linkMapping string
)

var linkCmd = &cobra.Command{
	Use:   "link-artifacts [name...]",
	Short: "Fuzzy-match artifact file names onto card titles",
	Long: "Matches each artifact name against the titles of non-container cards and writes the accepted " +
		"matches as a name -> card id mapping. With --apply the matches are also attached to the cards' media.",
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts := append([]string(nil), args...)
		if linkDir != "" {
			found, err := listArtifacts(linkDir, linkExt)
			if err != nil {
				return err
			}
			artifacts = append(artifacts, found...)
		}
		if len(artifacts) == 0 {
			return fmt.Errorf("no artifacts given (pass names or --dir)")
		}

		cards, _, err := loadSnapshots()
		if err != nil {
			return err
		}
		r, err := loadRules()
		if err != nil {
			return err
		}

		results, mapping := graph.LinkArtifacts(cards, artifacts, r)

		mappingPath := linkMappingPath()
		if err := writeMapping(mappingPath, mapping); err != nil {
			return err
		}

		var applied []graph.LinkApplied
		if linkApply {
			applied = graph.ApplyLinks(cards, mapping, linkPrefix)
			if len(applied) > 0 {
				if err := store.SaveCards(cards, ""); err != nil {
					return fmt.Errorf("saving cards: %w", err)
				}
			}
		}

		if linkJSON {
			output := struct {
				Results []graph.LinkResult  `json:"results"`
				Mapping map[string]string   `json:"mapping"`
				Applied []graph.LinkApplied `json:"applied,omitempty"`
			}{results, mapping, applied}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(output)
		}

		fmt.Printf("%-35s | %-5s | %s\n", "Artifact", "Match Score", "Card Title")
		fmt.Println(strings.Repeat("-", 80))
		for _, res := range results {
			title := "** NO GOOD MATCH **"
			if res.Accepted() {
				title = res.Title
			}
			fmt.Printf("%-35s | %.2f  | %s\n", res.Artifact, res.Score, title)
		}
		fmt.Printf("\n%d of %d artifacts matched; mapping written to %s\n", len(mapping), len(results), mappingPath)
		if linkApply {
			printApplied(applied)
		}
		return nil
	},
}

var applyLinksCmd = &cobra.Command{
	Use:   "apply-links",
	Short: "Attach the artifacts of a saved mapping to the cards' media",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := linkMappingPath()
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading mapping: %w", err)
		}
		var mapping map[string]string
		if err := json.Unmarshal(data, &mapping); err != nil {
			return fmt.Errorf("parsing mapping %s: %w", path, err)
		}

		cards, _, err := loadSnapshots()
		if err != nil {
			return err
		}
		applied := graph.ApplyLinks(cards, mapping, linkPrefix)
		if len(applied) > 0 {
			if err := store.SaveCards(cards, ""); err != nil {
				return fmt.Errorf("saving cards: %w", err)
			}
		}
		printApplied(applied)
		return nil
	},
}

func init() {
	linkCmd.Flags().StringVar(&linkDir, "dir", "", "Directory to scan for artifacts")
	linkCmd.Flags().StringVar(&linkExt, "ext", ".pdf", "Artifact extension to pick up with --dir")
	linkCmd.Flags().BoolVar(&linkApply, "apply", false, "Attach accepted matches to card media")
	linkCmd.Flags().BoolVar(&linkJSON, "json", false, "Output as JSON")
	for _, c := range []*cobra.Command{linkCmd, applyLinksCmd} {
		c.Flags().StringVar(&linkPrefix, "prefix", graph.DefaultLinkPrefix, "Prefix for attached media references")
		c.Flags().StringVar(&linkMapping, "mapping", "", "Mapping file (default mapping_file in the data dir)")
		rootCmd.AddCommand(c)
	}
}

func linkMappingPath() string {
	if linkMapping != "" {
		return linkMapping
	}
	return cfg.Path(cfg.MappingFile)
}

// listArtifacts returns the sorted names of regular files in dir with ext
// (case-insensitive).
func listArtifacts(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading artifact dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func writeMapping(path string, mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(path, data)
}

func printApplied(applied []graph.LinkApplied) {
	for _, a := range applied {
		fmt.Printf("Linked %s -> %s\n", a.Artifact, a.CardID)
	}
	if len(applied) == 0 {
		fmt.Println("No updates needed.")
		return
	}
	fmt.Printf("Successfully updated %d cards with artifacts.\n", len(applied))
}
