package graph

import "sort"

// HubNode is a card with high connectivity.
type HubNode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Degree    int    `json:"degree"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// EdgeTypeCount is the number of edges of one relationship type.
type EdgeTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TopologyReport contains topology analysis results
type TopologyReport struct {
	TotalNodes        int             `json:"total_nodes"`
	TotalEdges        int             `json:"total_edges"`
	NumComponents     int             `json:"num_components"`
	LargestComponent  int             `json:"largest_component"`
	SmallestComponent int             `json:"smallest_component"`
	IsolatedCount     int             `json:"isolated_count"`
	IsolatedIDs       []string        `json:"isolated_ids"`
	MaxDepth          int             `json:"max_depth"`
	EdgeTypes         []EdgeTypeCount `json:"edge_types"`
	DegreeHistogram   []DegreeBucket  `json:"degree_histogram"`
	Hubs              []HubNode       `json:"hubs"`
}

// ComputeTopology treats every edge as undirected and reports connected
// components, zero-degree cards, the degree distribution, and cards whose
// degree exceeds hubThreshold. Id lists are capped at topN.
func ComputeTopology(snap *GraphSnapshot, hubThreshold, topN int) *TopologyReport {
	totalNodes := len(snap.Nodes)
	totalEdges := len(snap.Edges)

	if totalNodes == 0 {
		return &TopologyReport{
			DegreeHistogram: defaultHistogram(),
		}
	}

	nodeIDs := snap.NodeIDs()
	uf := NewUnionFind(nodeIDs)
	typeCounts := make(map[string]int)
	for _, e := range snap.Edges {
		uf.Union(e.Source, e.Target)
		typeCounts[e.Type]++
	}

	components := uf.Components()
	largest, smallest := 0, totalNodes
	for _, c := range components {
		if len(c) > largest {
			largest = len(c)
		}
		if len(c) < smallest {
			smallest = len(c)
		}
	}

	var isolated []string
	maxDepth := 0
	buckets := [7]int{}
	for _, id := range nodeIDs {
		degree := len(snap.Adj[id])
		if degree == 0 {
			isolated = append(isolated, id)
		}
		buckets[degreeBucket(degree)]++
		if d := snap.Nodes[id].Depth; d > maxDepth {
			maxDepth = d
		}
	}
	isolatedCount := len(isolated)
	if len(isolated) > topN {
		isolated = isolated[:topN]
	}

	histogram := defaultHistogram()
	for i := range histogram {
		histogram[i].Count = buckets[i]
	}

	edgeTypes := make([]EdgeTypeCount, 0, len(typeCounts))
	for typ, n := range typeCounts {
		edgeTypes = append(edgeTypes, EdgeTypeCount{Type: typ, Count: n})
	}
	sort.Slice(edgeTypes, func(i, j int) bool {
		if edgeTypes[i].Count != edgeTypes[j].Count {
			return edgeTypes[i].Count > edgeTypes[j].Count
		}
		return edgeTypes[i].Type < edgeTypes[j].Type
	})

	var hubs []HubNode
	for _, id := range nodeIDs {
		degree := len(snap.Adj[id])
		if degree > hubThreshold {
			hubs = append(hubs, HubNode{
				ID:        id,
				Title:     snap.Nodes[id].Title,
				Degree:    degree,
				InDegree:  len(snap.InAdj[id]),
				OutDegree: len(snap.OutAdj[id]),
			})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].Degree > hubs[j].Degree })
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}

	return &TopologyReport{
		TotalNodes:        totalNodes,
		TotalEdges:        totalEdges,
		NumComponents:     len(components),
		LargestComponent:  largest,
		SmallestComponent: smallest,
		IsolatedCount:     isolatedCount,
		IsolatedIDs:       isolated,
		MaxDepth:          maxDepth,
		EdgeTypes:         edgeTypes,
		DegreeHistogram:   histogram,
		Hubs:              hubs,
	}
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
