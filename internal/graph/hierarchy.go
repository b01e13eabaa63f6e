package graph

import (
	"sort"

	"skillsweb/cardgraph/internal/store"
)

// Hierarchy is the parent/child structure formed by "contains" edges.
type Hierarchy struct {
	HasParent  map[string]bool     // ids that are the target of some contains edge
	ChildrenOf map[string][]string // parent -> children, sorted, deduplicated
}

// BuildHierarchy derives the hierarchy from relationships. Edges of other types
// and edges missing an endpoint are ignored.
func BuildHierarchy(rels []*store.Relationship) *Hierarchy {
	h := &Hierarchy{
		HasParent:  make(map[string]bool),
		ChildrenOf: make(map[string][]string),
	}
	seen := make(map[store.Pair]bool)
	for _, r := range rels {
		if r.Type != store.ContainsType || r.Source == "" || r.Target == "" {
			continue
		}
		h.HasParent[r.Target] = true
		p := store.Pair{Parent: r.Source, Child: r.Target}
		if seen[p] {
			continue
		}
		seen[p] = true
		h.ChildrenOf[r.Source] = append(h.ChildrenOf[r.Source], r.Target)
	}
	for _, children := range h.ChildrenOf {
		sort.Strings(children)
	}
	return h
}

// Children returns the sorted children of id.
func (h *Hierarchy) Children(id string) []string {
	return h.ChildrenOf[id]
}

// Partition splits card ids into those with a parent and orphans, both in
// the cards' first-appearance order. Every card id lands in exactly one.
func (h *Hierarchy) Partition(cards *store.CardSet) (parented, orphans []string) {
	for _, id := range cards.IDs() {
		if h.HasParent[id] {
			parented = append(parented, id)
		} else {
			orphans = append(orphans, id)
		}
	}
	return parented, orphans
}

// KnownIDs returns every card id plus every endpoint named by any edge,
// sorted.
func KnownIDs(cards *store.CardSet, rels []*store.Relationship) []string {
	set := make(map[string]bool, cards.Len())
	for _, id := range cards.IDs() {
		set[id] = true
	}
	for _, r := range rels {
		if r.Source != "" {
			set[r.Source] = true
		}
		if r.Target != "" {
			set[r.Target] = true
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
