package graph

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"skillsweb/cardgraph/internal/store"
)

// TreeNode is one rendered position in the hierarchy. The same id may appear
// under several parents.
type TreeNode struct {
	ID       string      `json:"id"`
	Type     string      `json:"type,omitempty"`
	Title    string      `json:"title,omitempty"`
	Missing  bool        `json:"missing,omitempty"`
	Cycle    bool        `json:"cycle,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`

	card *store.Card
}

// Label is the node's text without connector.
func (n *TreeNode) Label() string {
	switch {
	case n.Cycle:
		return "[CYCLE] " + n.ID
	case n.card == nil:
		return "[MISSING] " + n.ID
	}
	typ, title := "?", "Unknown"
	if n.card.Has("type") {
		typ = n.card.Type
	}
	if n.card.Has("title") {
		title = n.card.Title
	}
	return fmt.Sprintf("[%s] %s (%s)", typ, title, n.ID)
}

// CycleFinding is a contains loop met while walking down from a root, or a
// group of ids no root reaches.
type CycleFinding struct {
	ID   string   `json:"id"`
	Path []string `json:"path"`
}

// TreeView is the hierarchy arranged for rendering.
type TreeView struct {
	TotalIDs     int             `json:"total_ids"`
	CardsFound   int             `json:"cards_found"`
	MissingCards int             `json:"missing_cards"`
	Hierarchy    []*TreeNode     `json:"hierarchy"`
	Orphans      []*TreeNode     `json:"orphans"`
	Cycles       []*CycleFinding `json:"cycles,omitempty"`
	Unreached    []string        `json:"unreached,omitempty"`
}

// BuildTreeView classifies roots and expands every hierarchy root depth first.
// A root is a known id without a parent. It is a hierarchy root when its card
// type equals containerType, its id contains containerType (both compared
// case-insensitively), or it has at least one child.
func BuildTreeView(cards *store.CardSet, rels *store.RelationshipSet, containerType string) *TreeView {
	h := BuildHierarchy(rels.Items)
	known := KnownIDs(cards, rels.Items)
	tag := strings.ToLower(containerType)

	v := &TreeView{
		TotalIDs:   len(known),
		CardsFound: cards.Len(),
	}
	v.MissingCards = v.TotalIDs - v.CardsFound

	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var path []string
	var expand func(id string) *TreeNode
	expand = func(id string) *TreeNode {
		n := newTreeNode(cards, id)
		if onPath[id] {
			n.Cycle = true
			loop := append(append([]string(nil), path...), id)
			v.Cycles = append(v.Cycles, &CycleFinding{ID: id, Path: loop})
			return n
		}
		visited[id] = true
		onPath[id] = true
		path = append(path, id)
		for _, child := range h.Children(id) {
			n.Children = append(n.Children, expand(child))
		}
		path = path[:len(path)-1]
		delete(onPath, id)
		return n
	}

	for _, id := range known {
		if h.HasParent[id] {
			continue
		}
		if isContainerRoot(cards, h, id, tag) {
			v.Hierarchy = append(v.Hierarchy, expand(id))
		} else {
			visited[id] = true
			v.Orphans = append(v.Orphans, newTreeNode(cards, id))
		}
	}

	// Every id with a parent is reachable from a root unless it sits in or
	// below a loop with no entry point.
	for _, id := range known {
		if !visited[id] {
			v.Unreached = append(v.Unreached, id)
		}
	}
	sort.Strings(v.Unreached)
	return v
}

func newTreeNode(cards *store.CardSet, id string) *TreeNode {
	n := &TreeNode{ID: id}
	if c, ok := cards.Get(id); ok {
		n.card = c
		n.Type, n.Title = c.Type, c.Title
	} else {
		n.Missing = true
	}
	return n
}

func isContainerRoot(cards *store.CardSet, h *Hierarchy, id, tag string) bool {
	if tag != "" {
		if c, ok := cards.Get(id); ok && strings.ToLower(c.Type) == tag {
			return true
		}
		if strings.Contains(strings.ToLower(id), tag) {
			return true
		}
	}
	return len(h.Children(id)) > 0
}

// Defects reports every cycle finding as a cycle defect.
func (v *TreeView) Defects() []*Defect {
	var out []*Defect
	for _, c := range v.Cycles {
		out = append(out, &Defect{
			Category: DefectCycle, Subject: c.ID, Record: -1,
			Detail: strings.Join(c.Path, " -> "), Err: ErrCycle,
		})
	}
	if len(v.Unreached) > 0 {
		out = append(out, &Defect{
			Category: DefectCycle, Subject: strings.Join(v.Unreached, ", "), Record: -1,
			Detail: "not reachable from any root", Err: ErrCycle,
		})
	}
	return out
}

// Render writes the tree view report. Output depends only on the snapshots,
// so two renders of the same data are byte-identical.
func (v *TreeView) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("AI SKILLS WEB - TREE VIEW REPORT\n")
	bw.WriteString("================================\n\n")
	fmt.Fprintf(bw, "Total Unique IDs: %d\n", v.TotalIDs)
	fmt.Fprintf(bw, "Cards found in JSON: %d\n", v.CardsFound)
	fmt.Fprintf(bw, "Missing Cards (in rels only): %d\n", v.MissingCards)
	fmt.Fprintf(bw, "Hierarchy Roots: %d\n", len(v.Hierarchy))
	fmt.Fprintf(bw, "Orphan Roots (Cards with no parent and no children): %d\n\n", len(v.Orphans))

	bw.WriteString("HIERARCHY TREES (Roots with Children or declared Stacks)\n")
	bw.WriteString("------------------------------------------------------\n")
	if len(v.Hierarchy) == 0 {
		bw.WriteString("(None)\n")
	}
	for _, root := range v.Hierarchy {
		writeNode(bw, root, "", true)
		bw.WriteString("\n")
	}

	bw.WriteString("\nORPHANS (Isolated Cards)\n")
	bw.WriteString("------------------------\n")
	if len(v.Orphans) == 0 {
		bw.WriteString("(None)\n")
	}
	for _, root := range v.Orphans {
		writeNode(bw, root, "", true)
	}
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n *TreeNode, prefix string, last bool) {
	connector, extend := "├── ", "│   "
	if last {
		connector, extend = "└── ", "    "
	}
	w.WriteString(prefix + connector + n.Label() + "\n")
	for i, child := range n.Children {
		writeNode(w, child, prefix+extend, i == len(n.Children)-1)
	}
}
