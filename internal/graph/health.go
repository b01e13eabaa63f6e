package graph

import "math"

// HealthBreakdown shows the sub-scores of the health formula
type HealthBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Coverage     float64 `json:"coverage"`
	Fragility    float64 `json:"fragility"`
}

// AnalysisReport is the full analysis result
type AnalysisReport struct {
	HealthScore     float64         `json:"health_score"`
	HealthBreakdown HealthBreakdown `json:"health_breakdown"`
	Topology        *TopologyReport `json:"topology"`
	Bridges         *BridgeReport   `json:"bridges"`
	Unplaced        int             `json:"unplaced"` // cards with neither parent nor children
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	HubThreshold int
	TopN         int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		HubThreshold: 10,
		TopN:         50,
	}
}

// Analyze runs all analyses and computes a composite health score in [0, 1].
// Coverage is the share of cards placed in the contains hierarchy.
func Analyze(snap *GraphSnapshot, config *AnalyzerConfig) *AnalysisReport {
	topology := ComputeTopology(snap, config.HubThreshold, config.TopN)
	bridges := ComputeBridges(snap)

	unplaced := 0
	for id, n := range snap.Nodes {
		if n.ParentID == nil && len(snap.Children[id]) == 0 {
			unplaced++
		}
	}

	total := float64(topology.TotalNodes)

	var connectivity, components, coverage, fragility float64

	if total > 0 {
		connectivity = clamp(1.0-math.Min(float64(topology.IsolatedCount)/total, 0.2)*5.0, 0, 1)
		coverage = clamp(1.0-float64(unplaced)/total, 0, 1)
		fragility = clamp(1.0-math.Min(float64(bridges.APCount)/total, 0.05)*20.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}

	healthScore := 0.30*connectivity + 0.25*components + 0.25*coverage + 0.20*fragility

	return &AnalysisReport{
		HealthScore: healthScore,
		HealthBreakdown: HealthBreakdown{
			Connectivity: connectivity,
			Components:   components,
			Coverage:     coverage,
			Fragility:    fragility,
		},
		Topology: topology,
		Bridges:  bridges,
		Unplaced: unplaced,
	}
}

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
