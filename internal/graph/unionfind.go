package graph

import "sort"

// UnionFind tracks connected components over a fixed set of ids, with path
// compression and union by size.
type UnionFind struct {
	index  map[string]int
	ids    []string
	parent []int
	size   []int
}

// NewUnionFind creates a new UnionFind where each element is its own component
func NewUnionFind(ids []string) *UnionFind {
	uf := &UnionFind{
		index:  make(map[string]int, len(ids)),
		parent: make([]int, 0, len(ids)),
		size:   make([]int, 0, len(ids)),
	}
	for _, id := range ids {
		if _, dup := uf.index[id]; dup {
			continue
		}
		uf.index[id] = len(uf.ids)
		uf.parent = append(uf.parent, len(uf.ids))
		uf.size = append(uf.size, 1)
		uf.ids = append(uf.ids, id)
	}
	return uf
}

// Find returns the representative id of the component containing id. Unknown
// ids are their own representative.
func (uf *UnionFind) Find(id string) string {
	i, ok := uf.index[id]
	if !ok {
		return id
	}
	return uf.ids[uf.root(i)]
}

func (uf *UnionFind) root(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

// Union merges the components containing a and b. Returns true if they were
// separate. Unknown ids are ignored.
func (uf *UnionFind) Union(a, b string) bool {
	ia, okA := uf.index[a]
	ib, okB := uf.index[b]
	if !okA || !okB {
		return false
	}
	ra, rb := uf.root(ia), uf.root(ib)
	if ra == rb {
		return false
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	return true
}

// Components returns all connected components, each sorted, ordered by their
// first member.
func (uf *UnionFind) Components() [][]string {
	groups := make(map[int][]string)
	var order []int
	for i, id := range uf.ids {
		r := uf.root(i)
		if _, ok := groups[r]; !ok {
			order = append(order, r)
		}
		groups[r] = append(groups[r], id)
	}
	result := make([][]string, 0, len(groups))
	for _, r := range order {
		members := groups[r]
		sort.Strings(members)
		result = append(result, members)
	}
	sort.Slice(result, func(i, j int) bool { return result[i][0] < result[j][0] })
	return result
}
