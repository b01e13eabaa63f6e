package db

import "skillsweb/cardgraph/internal/store"

const relationshipColumns = `seq, source, target, type, value, strength, raw`

// scanRelationship scans a row into a RelationshipRow. The row must have
// relationshipColumns in order.
func scanRelationship(scanner interface{ Scan(dest ...any) error }) (RelationshipRow, error) {
	var r RelationshipRow
	err := scanner.Scan(&r.Seq, &r.Source, &r.Target, &r.Type, &r.Value, &r.Strength, &r.Raw)
	return r, err
}

func (d *DB) queryRelationships(query string, args ...any) ([]RelationshipRow, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []RelationshipRow
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// AllRelationships returns all relationships in snapshot order
func (d *DB) AllRelationships() ([]RelationshipRow, error) {
	return d.queryRelationships(`SELECT ` + relationshipColumns + ` FROM relationships ORDER BY seq`)
}

// RelationshipsFor returns all relationships where the card is source OR target.
func (d *DB) RelationshipsFor(cardID string) ([]RelationshipRow, error) {
	return d.queryRelationships(`SELECT `+relationshipColumns+` FROM relationships
		WHERE source = ? OR target = ? ORDER BY seq`, cardID, cardID)
}

// RelationshipTypePriority returns the traversal priority for a relationship
// type. Higher priority means lower traversal cost.
func RelationshipTypePriority(relType string) float64 {
	switch relType {
	case "prerequisite", "depends_on":
		return 0.7
	case "related", "supports":
		return 0.5
	default:
		return 0.3
	}
}

// IsStructural reports whether a relationship type only places a card in the
// hierarchy rather than relating its content.
func IsStructural(relType string) bool {
	return relType == store.ContainsType
}
