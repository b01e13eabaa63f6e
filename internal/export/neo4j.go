// Package export writes the card graph into a Neo4j database.
package export

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"skillsweb/cardgraph/internal/store"
)

const defaultBatchSize = 500

// Stats counts what an export wrote.
type Stats struct {
	Cards    int    `json:"cards"`
	Links    int    `json:"links"`
	Skipped  int    `json:"skipped"` // relationships with an endpoint that is not a card
	Batches  int    `json:"batches"`
	Database string `json:"database,omitempty"`
}

// Neo4jExporter merges cards and relationships into Neo4j. Export is
// idempotent: nodes are keyed by card id and links by (source, target, type).
type Neo4jExporter struct {
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
	logger    *zap.Logger
}

// NewNeo4jExporter wraps an open driver.
func NewNeo4jExporter(driver neo4j.DriverWithContext, database string, logger *zap.Logger) *Neo4jExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Neo4jExporter{driver: driver, database: database, batchSize: defaultBatchSize, logger: logger}
}

// Connect opens a driver with basic auth and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}
	return driver, nil
}

const mergeCards = `
	UNWIND $rows AS row
	MERGE (c:Card {id: row.id})
	SET c.title = row.title, c.type = row.type, c.description = row.description`

const mergeLinks = `
	UNWIND $rows AS row
	MATCH (s:Card {id: row.source})
	MATCH (t:Card {id: row.target})
	MERGE (s)-[l:LINK {type: row.type}]->(t)
	SET l.value = row.value, l.strength = row.strength`

// Export writes every card and every relationship whose endpoints are both
// cards, in batches.
func (e *Neo4jExporter) Export(ctx context.Context, cards *store.CardSet, rels *store.RelationshipSet) (Stats, error) {
	stats := Stats{Database: e.database}
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: e.database})
	defer session.Close(ctx)

	cardRows := CardRows(cards)
	for _, batch := range chunk(cardRows, e.batchSize) {
		if err := e.run(ctx, session, mergeCards, batch); err != nil {
			return stats, fmt.Errorf("merging cards: %w", err)
		}
		stats.Cards += len(batch)
		stats.Batches++
	}

	linkRows, skipped := LinkRows(cards, rels)
	stats.Skipped = skipped
	for _, batch := range chunk(linkRows, e.batchSize) {
		if err := e.run(ctx, session, mergeLinks, batch); err != nil {
			return stats, fmt.Errorf("merging links: %w", err)
		}
		stats.Links += len(batch)
		stats.Batches++
	}

	e.logger.Info("Exported graph to Neo4j",
		zap.Int("cards", stats.Cards),
		zap.Int("links", stats.Links),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (e *Neo4jExporter) run(ctx context.Context, session neo4j.SessionWithContext, query string, rows []map[string]any) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

// CardRows converts unique cards into UNWIND parameter rows.
func CardRows(cards *store.CardSet) []map[string]any {
	rows := make([]map[string]any, 0, cards.Len())
	for _, c := range cards.Unique() {
		rows = append(rows, map[string]any{
			"id":          c.ID,
			"title":       c.Title,
			"type":        c.Type,
			"description": c.Description,
		})
	}
	return rows
}

// LinkRows converts relationships into UNWIND parameter rows, skipping those
// with a missing or dangling endpoint.
func LinkRows(cards *store.CardSet, rels *store.RelationshipSet) ([]map[string]any, int) {
	var rows []map[string]any
	skipped := 0
	for _, r := range rels.Items {
		if !cards.Has(r.Source) || !cards.Has(r.Target) {
			skipped++
			continue
		}
		rows = append(rows, map[string]any{
			"source":   r.Source,
			"target":   r.Target,
			"type":     r.Type,
			"value":    floatOrNil(r.Value),
			"strength": floatOrNil(r.Strength),
		})
	}
	return rows, skipped
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func chunk(rows []map[string]any, size int) [][]map[string]any {
	if size <= 0 {
		size = defaultBatchSize
	}
	var out [][]map[string]any
	for len(rows) > 0 {
		n := min(size, len(rows))
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	return out
}
