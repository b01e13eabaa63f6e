package db

import (
	"container/heap"
	"math"
)

// NearbyCard is a card reached by weighted traversal from a source card.
type NearbyCard struct {
	Rank      int       `json:"rank"`
	CardID    string    `json:"card_id"`
	Title     string    `json:"title"`
	Distance  float64   `json:"distance"`
	Relevance float64   `json:"relevance"`
	Hops      int       `json:"hops"`
	Path      []PathHop `json:"path"`
}

// PathHop represents one hop in a path from source to destination.
type PathHop struct {
	Type   string `json:"type"`
	CardID string `json:"card_id"`
	Title  string `json:"title"`
}

// NeighborhoodConfig holds parameters for the traversal.
type NeighborhoodConfig struct {
	Budget       int
	MaxHops      int
	MaxCost      float64
	Types        []string // allowlist; nil means all
	ExcludeTypes []string // blocklist
}

// DefaultNeighborhoodConfig returns the defaults used by the CLI.
func DefaultNeighborhoodConfig() *NeighborhoodConfig {
	return &NeighborhoodConfig{
		Budget:  20,
		MaxHops: 6,
		MaxCost: 3.0,
	}
}

// prevEntry tracks how we reached a card (for path reconstruction).
type prevEntry struct {
	prevID  string
	relType string
}

// walkEntry is a min-heap entry.
type walkEntry struct {
	distance float64
	cardID   string
	hops     int
}

// walkHeap implements container/heap.Interface as a min-heap.
// Ties broken by card id for deterministic output.
type walkHeap []walkEntry

func (h walkHeap) Len() int { return len(h) }
func (h walkHeap) Less(i, j int) bool {
	if h[i].distance != h[j].distance {
		return h[i].distance < h[j].distance
	}
	return h[i].cardID < h[j].cardID
}
func (h walkHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *walkHeap) Push(x interface{}) { *h = append(*h, x.(walkEntry)) }
func (h *walkHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// edgeCost prices one traversal step. A relationship's strength, or else its
// value, stands in for confidence when it lies in [0, 1]; contains edges cost
// at least 0.4 so hierarchy does not crowd out content links.
func edgeCost(r RelationshipRow) float64 {
	confidence := 0.5
	for _, w := range []*float64{r.Strength, r.Value} {
		if w != nil && *w >= 0 && *w <= 1 {
			confidence = *w
			break
		}
	}
	cost := math.Max((1.0-confidence)*(1.0-0.5*RelationshipTypePriority(r.Type)), 0.001)
	if IsStructural(r.Type) {
		cost = math.Max(cost, 0.4)
	}
	return cost
}

// Neighborhood runs a Dijkstra expansion from sourceID over relationships in
// both directions. It returns up to config.Budget indexed cards sorted by
// distance. Ids missing from the index are traversed but not returned.
func (d *DB) Neighborhood(sourceID string, config *NeighborhoodConfig) ([]NearbyCard, error) {
	if config == nil {
		config = DefaultNeighborhoodConfig()
	}
	budget := config.Budget
	if budget <= 0 {
		budget = 20
	}
	maxHops := config.MaxHops
	if maxHops <= 0 {
		maxHops = 6
	}
	maxCost := config.MaxCost
	if maxCost <= 0 {
		maxCost = 3.0
	}

	var allowSet map[string]bool
	if config.Types != nil {
		allowSet = make(map[string]bool, len(config.Types))
		for _, t := range config.Types {
			allowSet[t] = true
		}
	}
	excludeSet := make(map[string]bool, len(config.ExcludeTypes))
	for _, t := range config.ExcludeTypes {
		excludeSet[t] = true
	}

	dist := map[string]float64{sourceID: 0.0}
	prev := map[string]prevEntry{}
	visited := map[string]bool{}
	titles := map[string]string{}

	h := &walkHeap{{distance: 0.0, cardID: sourceID, hops: 0}}
	heap.Init(h)

	var results []NearbyCard

	for h.Len() > 0 {
		entry := heap.Pop(h).(walkEntry)
		current := entry.cardID

		if visited[current] {
			continue
		}
		visited[current] = true

		if current != sourceID {
			card, err := d.GetCard(current)
			if err != nil {
				return nil, err
			}
			if card != nil {
				titles[current] = card.Title
				results = append(results, NearbyCard{
					CardID:    current,
					Title:     card.Title,
					Distance:  entry.distance,
					Relevance: 1.0 / (1.0 + entry.distance),
					Hops:      entry.hops,
					Path:      d.reconstructPath(prev, titles, sourceID, current),
				})
				if len(results) >= budget {
					break
				}
			}
		}

		if entry.hops >= maxHops {
			continue
		}

		rels, err := d.RelationshipsFor(current)
		if err != nil {
			return nil, err
		}

		for _, r := range rels {
			if allowSet != nil && !allowSet[r.Type] {
				continue
			}
			if excludeSet[r.Type] {
				continue
			}

			neighbor := r.Target
			if r.Source != current {
				neighbor = r.Source
			}
			if visited[neighbor] {
				continue
			}

			newDist := entry.distance + edgeCost(r)
			if newDist > maxCost {
				continue
			}

			prevDist, exists := dist[neighbor]
			if !exists || newDist < prevDist {
				dist[neighbor] = newDist
				prev[neighbor] = prevEntry{prevID: current, relType: r.Type}
				heap.Push(h, walkEntry{
					distance: newDist,
					cardID:   neighbor,
					hops:     entry.hops + 1,
				})
			}
		}
	}

	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// reconstructPath walks the prev map backwards from target to source.
func (d *DB) reconstructPath(prev map[string]prevEntry, titles map[string]string, source, target string) []PathHop {
	var path []PathHop
	current := target
	for current != source {
		entry, ok := prev[current]
		if !ok {
			break
		}
		title, ok := titles[current]
		if !ok {
			if card, err := d.GetCard(current); err == nil && card != nil {
				title = card.Title
				titles[current] = title
			}
		}
		path = append(path, PathHop{Type: entry.relType, CardID: current, Title: title})
		current = entry.prevID
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
