package graph

import (
	"sort"

	"skillsweb/cardgraph/internal/store"
)

// Unassigned is the region of a node whose ancestry loops.
const Unassigned = "unassigned"

// NodeInfo is a card reduced to what structural analysis needs.
type NodeInfo struct {
	ID       string
	Title    string
	Type     string
	ParentID *string // lowest-sorting contains parent, nil for roots
	Depth    int     // 0 for roots
}

// EdgeInfo is a relationship between two known cards.
type EdgeInfo struct {
	Source string
	Target string
	Type   string
}

// GraphSnapshot holds a graph with precomputed adjacency lists and region map.
type GraphSnapshot struct {
	Nodes    map[string]*NodeInfo
	Edges    []EdgeInfo
	Adj      map[string][]string // undirected
	OutAdj   map[string][]string // directed: source -> targets
	InAdj    map[string][]string // directed: target -> sources
	Children map[string][]string // contains edges only
	Regions  map[string]string   // node id -> top-level ancestor
}

// NewSnapshot builds a GraphSnapshot from nodes and edges. Edges naming an
// unknown node are dropped.
func NewSnapshot(nodes []*NodeInfo, edges []EdgeInfo) *GraphSnapshot {
	nodeMap := make(map[string]*NodeInfo, len(nodes))
	adj := make(map[string][]string)
	outAdj := make(map[string][]string)
	inAdj := make(map[string][]string)
	children := make(map[string][]string)

	for _, n := range nodes {
		nodeMap[n.ID] = n
		adj[n.ID] = nil
		outAdj[n.ID] = nil
		inAdj[n.ID] = nil
	}

	var kept []EdgeInfo
	for _, e := range edges {
		if _, ok := nodeMap[e.Source]; !ok {
			continue
		}
		if _, ok := nodeMap[e.Target]; !ok {
			continue
		}
		kept = append(kept, e)
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
		outAdj[e.Source] = append(outAdj[e.Source], e.Target)
		inAdj[e.Target] = append(inAdj[e.Target], e.Source)
		if e.Type == store.ContainsType {
			children[e.Source] = append(children[e.Source], e.Target)
		}
	}

	return &GraphSnapshot{
		Nodes:    nodeMap,
		Edges:    kept,
		Adj:      adj,
		OutAdj:   outAdj,
		InAdj:    inAdj,
		Children: children,
		Regions:  computeRegions(nodeMap),
	}
}

// SnapshotFromStore builds a snapshot from loaded cards and relationships.
// Each card's parent is its lowest-sorting contains source, and its depth is
// the length of that parent chain.
func SnapshotFromStore(cards *store.CardSet, rels *store.RelationshipSet) *GraphSnapshot {
	parents := make(map[string]string)
	for _, r := range rels.Items {
		if r.Type != store.ContainsType || !cards.Has(r.Source) || !cards.Has(r.Target) {
			continue
		}
		if p, ok := parents[r.Target]; !ok || r.Source < p {
			parents[r.Target] = r.Source
		}
	}

	nodes := make([]*NodeInfo, 0, cards.Len())
	for _, id := range cards.IDs() {
		c, _ := cards.Get(id)
		n := &NodeInfo{ID: id, Title: c.Title, Type: c.Type}
		if p, ok := parents[id]; ok {
			n.ParentID = &p
		}
		n.Depth = depthOf(id, parents)
		nodes = append(nodes, n)
	}

	edges := make([]EdgeInfo, 0, len(rels.Items))
	for _, r := range rels.Items {
		edges = append(edges, EdgeInfo{Source: r.Source, Target: r.Target, Type: r.Type})
	}
	return NewSnapshot(nodes, edges)
}

// depthOf counts parent hops up to a root. A looping chain stops at the
// repeat.
func depthOf(id string, parents map[string]string) int {
	seen := map[string]bool{id: true}
	depth := 0
	for {
		p, ok := parents[id]
		if !ok || seen[p] {
			return depth
		}
		seen[p] = true
		depth++
		id = p
	}
}

// FilterToRegion returns a new snapshot containing regionNodeID and everything
// it contains, directly or transitively.
func (s *GraphSnapshot) FilterToRegion(regionNodeID string) *GraphSnapshot {
	included := make(map[string]bool)
	if _, ok := s.Nodes[regionNodeID]; ok {
		queue := []string{regionNodeID}
		included[regionNodeID] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, child := range s.Children[id] {
				if !included[child] {
					included[child] = true
					queue = append(queue, child)
				}
			}
		}
	}

	var filteredNodes []*NodeInfo
	for _, id := range s.NodeIDs() {
		if included[id] {
			filteredNodes = append(filteredNodes, s.Nodes[id])
		}
	}

	var filteredEdges []EdgeInfo
	for _, e := range s.Edges {
		if included[e.Source] && included[e.Target] {
			filteredEdges = append(filteredEdges, e)
		}
	}

	return NewSnapshot(filteredNodes, filteredEdges)
}

// NodeIDs returns a sorted list of all node IDs (for deterministic output)
func (s *GraphSnapshot) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func computeRegions(nodes map[string]*NodeInfo) map[string]string {
	regions := make(map[string]string, len(nodes))
	for id := range nodes {
		regions[id] = findTopAncestor(id, nodes)
	}
	return regions
}

func findTopAncestor(nodeID string, nodes map[string]*NodeInfo) string {
	current := nodeID
	visited := make(map[string]bool)
	for {
		if visited[current] {
			return Unassigned
		}
		visited[current] = true
		node, ok := nodes[current]
		if !ok {
			return Unassigned
		}
		if node.ParentID == nil {
			return current
		}
		if _, ok := nodes[*node.ParentID]; !ok {
			// Parent filtered out of this snapshot.
			return current
		}
		current = *node.ParentID
	}
}
