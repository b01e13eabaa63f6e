package graph

import "skillsweb/cardgraph/internal/db"

// SnapshotFromDB loads a GraphSnapshot from the card index.
func SnapshotFromDB(d *db.DB) (*GraphSnapshot, error) {
	cards, rels, err := d.LoadSets()
	if err != nil {
		return nil, err
	}
	return SnapshotFromStore(cards, rels), nil
}
