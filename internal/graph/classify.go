package graph

import (
	"strings"

	"skillsweb/cardgraph/internal/rules"
	"skillsweb/cardgraph/internal/store"
)

// Cluster is a group of orphan cards under one category label.
type Cluster struct {
	Category string        `json:"category"`
	Cards    []*store.Card `json:"-"`
	IDs      []string      `json:"ids"`
}

// Classification is the result of classifying orphan cards.
type Classification struct {
	TotalOrphans  int        `json:"total_orphans"`
	Clusters      []*Cluster `json:"clusters"` // first-encounter order
	CategoryOrder []string   `json:"category_order"`
}

// Cluster returns the cluster for a category, or nil.
func (c *Classification) Cluster(category string) *Cluster {
	for _, cl := range c.Clusters {
		if cl.Category == category {
			return cl
		}
	}
	return nil
}

// Categorize assigns a single category to a card: media type first, then the
// first keyword category matching its title, description, and id, otherwise
// uncategorized.
func Categorize(c *store.Card, r *rules.Rules) string {
	if r.MediaType != "" && c.Type == r.MediaType {
		return r.MediaCategory
	}
	text := strings.ToLower(c.Title + " " + c.Description + " " + c.ID)
	for _, cat := range r.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return cat.Name
			}
		}
	}
	return r.Uncategorized
}

// ClassifyOrphans groups every card without a parent into clusters. Orphans
// are visited in the cards' first-appearance order.
func ClassifyOrphans(cards *store.CardSet, h *Hierarchy, r *rules.Rules) *Classification {
	_, orphans := h.Partition(cards)
	result := &Classification{
		TotalOrphans:  len(orphans),
		CategoryOrder: r.CategoryOrder(),
	}
	byName := make(map[string]*Cluster)
	for _, id := range orphans {
		c, _ := cards.Get(id)
		name := Categorize(c, r)
		cl, ok := byName[name]
		if !ok {
			cl = &Cluster{Category: name}
			byName[name] = cl
			result.Clusters = append(result.Clusters, cl)
		}
		cl.Cards = append(cl.Cards, c)
		cl.IDs = append(cl.IDs, c.ID)
	}
	return result
}
