package db

import (
	"context"
	"encoding/json"
	"fmt"

	"skillsweb/cardgraph/internal/store"
)

// IndexStats counts what a rebuild wrote.
type IndexStats struct {
	Cards         int `json:"cards"`
	Relationships int `json:"relationships"`
}

// Replace rebuilds the index from snapshots in one transaction. Cards with an
// empty id are skipped; a repeated id keeps its last definition at its first
// position, as in the loaded set.
func (d *DB) Replace(ctx context.Context, cards *store.CardSet, rels *store.RelationshipSet) (IndexStats, error) {
	var stats IndexStats
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cards", "relationships", "cards_fts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return stats, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	insertCard, err := tx.PrepareContext(ctx,
		`INSERT INTO cards (id, seq, title, type, description, raw) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, err
	}
	defer insertCard.Close()
	insertFTS, err := tx.PrepareContext(ctx,
		`INSERT INTO cards_fts (id, title, description) VALUES (?, ?, ?)`)
	if err != nil {
		return stats, err
	}
	defer insertFTS.Close()

	for i, id := range cards.IDs() {
		c, _ := cards.Get(id)
		raw, err := json.Marshal(c)
		if err != nil {
			return stats, fmt.Errorf("encoding card %s: %w", id, err)
		}
		if _, err := insertCard.ExecContext(ctx, id, i, c.Title, c.Type, c.Description, string(raw)); err != nil {
			return stats, fmt.Errorf("inserting card %s: %w", id, err)
		}
		if _, err := insertFTS.ExecContext(ctx, id, c.Title, c.Description); err != nil {
			return stats, fmt.Errorf("indexing card %s: %w", id, err)
		}
		stats.Cards++
	}

	insertRel, err := tx.PrepareContext(ctx,
		`INSERT INTO relationships (seq, source, target, type, value, strength, raw) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, err
	}
	defer insertRel.Close()

	for i, r := range rels.Items {
		raw, err := json.Marshal(r)
		if err != nil {
			return stats, fmt.Errorf("encoding relationship %d: %w", i, err)
		}
		if _, err := insertRel.ExecContext(ctx, i, r.Source, r.Target, r.Type, r.Value, r.Strength, string(raw)); err != nil {
			return stats, fmt.Errorf("inserting relationship %d: %w", i, err)
		}
		stats.Relationships++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing index: %w", err)
	}
	return stats, nil
}

// LoadSets rebuilds card and relationship sets from the index.
func (d *DB) LoadSets() (*store.CardSet, *store.RelationshipSet, error) {
	cardRows, err := d.AllCards()
	if err != nil {
		return nil, nil, fmt.Errorf("reading cards: %w", err)
	}
	relRows, err := d.AllRelationships()
	if err != nil {
		return nil, nil, fmt.Errorf("reading relationships: %w", err)
	}

	cards := store.NewCardSet(store.Shape{})
	for _, row := range cardRows {
		c, err := row.Card()
		if err != nil {
			return nil, nil, err
		}
		cards.Add(c)
	}
	rels := store.NewRelationshipSet(store.Shape{})
	for _, row := range relRows {
		r, err := row.Relationship()
		if err != nil {
			return nil, nil, err
		}
		rels.Add(r)
	}
	return cards, rels, nil
}
