package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"skillsweb/cardgraph/internal/graph"
)

var (
	analyzeJSON         bool
	analyzeRegion       string
	analyzeTopN         int
	analyzeHubThreshold int
	analyzeFromIndex    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze graph structure: topology, bridges, hierarchy coverage, health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := analysisSnapshot()
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		if analyzeRegion != "" {
			snap = snap.FilterToRegion(analyzeRegion)
		}

		config := &graph.AnalyzerConfig{
			HubThreshold: analyzeHubThreshold,
			TopN:         analyzeTopN,
		}

		report := graph.Analyze(snap, config)

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printHumanReadable(report, snap)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().StringVar(&analyzeRegion, "region", "", "Scope analysis to descendants of this card ID")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	analyzeCmd.Flags().IntVar(&analyzeHubThreshold, "hub-threshold", 10, "Minimum degree to consider a card a hub")
	analyzeCmd.Flags().BoolVar(&analyzeFromIndex, "from-index", false, "Read the graph from the SQLite index instead of the snapshots")
	rootCmd.AddCommand(analyzeCmd)
}

func analysisSnapshot() (*graph.GraphSnapshot, error) {
	if analyzeFromIndex {
		d, err := OpenDatabase()
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return graph.SnapshotFromDB(d)
	}
	cards, rels, err := loadSnapshots()
	if err != nil {
		return nil, err
	}
	return graph.SnapshotFromStore(cards, rels), nil
}

func printHumanReadable(report *graph.AnalysisReport, snap *graph.GraphSnapshot) {
	// Health bar
	barLen := int(report.HealthScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Printf("\n  Graph Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	fmt.Printf("  breakdown: connectivity=%.2f components=%.2f coverage=%.2f fragility=%.2f\n\n",
		report.HealthBreakdown.Connectivity,
		report.HealthBreakdown.Components,
		report.HealthBreakdown.Coverage,
		report.HealthBreakdown.Fragility)

	// Topology
	t := report.Topology
	fmt.Println("  TOPOLOGY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Nodes: %d  Edges: %d  Components: %d\n", t.TotalNodes, t.TotalEdges, t.NumComponents)
	fmt.Printf("  Largest component: %d  Smallest: %d  Max depth: %d\n", t.LargestComponent, t.SmallestComponent, t.MaxDepth)
	fmt.Printf("  Unplaced (no parent, no children): %d\n", report.Unplaced)

	if len(t.EdgeTypes) > 0 {
		parts := make([]string, len(t.EdgeTypes))
		for i, et := range t.EdgeTypes {
			parts[i] = fmt.Sprintf("%s=%d", et.Type, et.Count)
		}
		fmt.Printf("  Edge types: %s\n", strings.Join(parts, " "))
	}

	if t.IsolatedCount > 0 {
		fmt.Printf("  Isolated: %d cards without any edge\n", t.IsolatedCount)
		limit := 5
		if len(t.IsolatedIDs) < limit {
			limit = len(t.IsolatedIDs)
		}
		for _, id := range t.IsolatedIDs[:limit] {
			node := snap.Nodes[id]
			title := "?"
			if node != nil && node.Title != "" {
				title = truncTitle(node.Title, 50)
			}
			fmt.Printf("    - %s (%s)\n", truncID(id), title)
		}
		if t.IsolatedCount > 5 {
			fmt.Printf("    ... and %d more\n", t.IsolatedCount-5)
		}
	}

	// Degree distribution
	fmt.Println("\n  Degree distribution:")
	for _, b := range t.DegreeHistogram {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			if barWidth < 1 {
				barWidth = 1
			}
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	// Hubs
	if len(t.Hubs) > 0 {
		fmt.Println("\n  Top hubs (degree > threshold):")
		for _, hub := range t.Hubs {
			fmt.Printf("    %s degree=%d (in=%d, out=%d)  %s\n",
				truncID(hub.ID), hub.Degree, hub.InDegree, hub.OutDegree, truncTitle(hub.Title, 40))
		}
	}

	// Bridges
	br := report.Bridges
	if br.APCount > 0 || br.BridgeCount > 0 || len(br.FragileConnections) > 0 {
		fmt.Println("\n  STRUCTURAL FRAGILITY")
		fmt.Println("  ────────────────────────────────────────")
		if br.APCount > 0 {
			fmt.Printf("  %d articulation points (removal disconnects graph):\n", br.APCount)
			limit := 10
			if len(br.ArticulationPoints) < limit {
				limit = len(br.ArticulationPoints)
			}
			for _, ap := range br.ArticulationPoints[:limit] {
				fmt.Printf("    %s (%d neighbors)  %s\n",
					truncID(ap.ID), ap.Neighbors, truncTitle(ap.Title, 40))
			}
		}
		if br.BridgeCount > 0 {
			fmt.Printf("  %d bridge edges (removal disconnects graph):\n", br.BridgeCount)
			limit := 10
			if len(br.BridgeEdges) < limit {
				limit = len(br.BridgeEdges)
			}
			for _, be := range br.BridgeEdges[:limit] {
				fmt.Printf("    %s -> %s\n", truncTitle(be.SourceTitle, 30), truncTitle(be.TargetTitle, 30))
			}
		}
		if len(br.FragileConnections) > 0 {
			fmt.Printf("  %d fragile inter-region connections (<=2 edges):\n", len(br.FragileConnections))
			limit := 10
			if len(br.FragileConnections) < limit {
				limit = len(br.FragileConnections)
			}
			for _, fc := range br.FragileConnections[:limit] {
				raTitle := fc.RegionA
				rbTitle := fc.RegionB
				if n := snap.Nodes[fc.RegionA]; n != nil {
					raTitle = n.Title
				}
				if n := snap.Nodes[fc.RegionB]; n != nil {
					rbTitle = n.Title
				}
				s := ""
				if fc.CrossEdges != 1 {
					s = "s"
				}
				fmt.Printf("    %s <-> %s (%d edge%s)\n",
					truncTitle(raTitle, 25), truncTitle(rbTitle, 25), fc.CrossEdges, s)
			}
		}
	}

	fmt.Println()
}

func truncID(id string) string {
	return truncTitle(id, 32)
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
