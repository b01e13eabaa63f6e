package db

import (
	"encoding/json"
	"fmt"

	"skillsweb/cardgraph/internal/store"
)

// CardRow represents a row in the cards table
type CardRow struct {
	ID          string `json:"id"`
	Seq         int    `json:"seq"` // position in the snapshot
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Raw         string `json:"-"` // the card's JSON record
}

// RelationshipRow represents a row in the relationships table
type RelationshipRow struct {
	Seq      int      `json:"seq"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Type     string   `json:"type"`
	Value    *float64 `json:"value"`
	Strength *float64 `json:"strength"`
	Raw      string   `json:"-"`
}

// Card decodes the stored record back into a card with all its fields.
func (r CardRow) Card() (*store.Card, error) {
	var c store.Card
	if err := json.Unmarshal([]byte(r.Raw), &c); err != nil {
		return nil, fmt.Errorf("decoding card %s: %w", r.ID, err)
	}
	return &c, nil
}

// Relationship decodes the stored record back into a relationship.
func (r RelationshipRow) Relationship() (*store.Relationship, error) {
	var rel store.Relationship
	if err := json.Unmarshal([]byte(r.Raw), &rel); err != nil {
		return nil, fmt.Errorf("decoding relationship %d: %w", r.Seq, err)
	}
	return &rel, nil
}
