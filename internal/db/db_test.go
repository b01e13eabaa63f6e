package db

import (
	"context"
	"math"
	"testing"

	"skillsweb/cardgraph/internal/store"
)

// setupTestDB opens an in-memory index and fills it from the given snapshots.
func setupTestDB(t *testing.T, cardsDoc, relsDoc string) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })

	cards, err := store.ParseCards([]byte(cardsDoc))
	if err != nil {
		t.Fatal(err)
	}
	rels, err := store.ParseRelationships([]byte(relsDoc))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Replace(context.Background(), cards, rels); err != nil {
		t.Fatal(err)
	}
	return d
}

const testCards = `{"cards": [
  {"id": "1000_aws", "title": "AWS Services", "type": "stack"},
  {"id": "1002_monitoring_scaling", "title": "Monitoring and Scaling", "type": "topic"},
  {"id": "1269", "title": "Dashboard Architecture", "type": "topic"},
  {"id": "x1000", "title": "Unrelated", "type": "topic"},
  {"id": "1269", "title": "Dashboard Architecture v2", "type": "topic", "description": "Designing KPI dashboards"}
]}`

const testRels = `{"relationships": [
  {"source": "1000_aws", "target": "1002_monitoring_scaling", "type": "related", "strength": 0.9},
  {"from": "1002_monitoring_scaling", "to": "1269", "type": "contains", "value": 1},
  {"source": "1269", "target": "ghost", "type": "related"}
]}`

func TestReplace_Counts(t *testing.T) {
	d := setupTestDB(t, testCards, testRels)
	n, err := d.CountCards()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected 4 unique cards, got %d", n)
	}
	rels, err := d.AllRelationships()
	if err != nil {
		t.Fatal(err)
	}
	if len(rels) != 3 {
		t.Fatalf("expected 3 relationships, got %d", len(rels))
	}
	if rels[1].Source != "1002_monitoring_scaling" || rels[1].Target != "1269" {
		t.Errorf("legacy endpoints not normalized: %+v", rels[1])
	}
	if rels[0].Strength == nil || *rels[0].Strength != 0.9 || rels[0].Value != nil {
		t.Errorf("weights not stored: %+v", rels[0])
	}
}

func TestReplace_Rebuilds(t *testing.T) {
	d := setupTestDB(t, testCards, testRels)
	cards, _ := store.ParseCards([]byte(`[{"id": "only", "title": "Only"}]`))
	rels, _ := store.ParseRelationships([]byte(`[]`))
	stats, err := d.Replace(context.Background(), cards, rels)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Cards != 1 || stats.Relationships != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	all, err := d.AllCards()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != "only" {
		t.Errorf("old rows survived the rebuild: %+v", all)
	}
}

func TestGetCard(t *testing.T) {
	d := setupTestDB(t, testCards, testRels)

	c, err := d.GetCard("1269")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Title != "Dashboard Architecture v2" || c.Seq != 2 {
		t.Fatalf("last definition at first position expected, got %+v", c)
	}

	missing, err := d.GetCard("nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for a missing card, got %+v, %v", missing, err)
	}
}

func TestLoadSets_KeepsFields(t *testing.T) {
	d := setupTestDB(t, `[{"id": "a", "title": "A", "type": "topic", "frontBackgroundColor": "red", "media": ["pdf/x.pdf"]}]`,
		`[{"from": "a", "to": "b", "type": "contains", "value": 1}]`)
	cards, rels, err := d.LoadSets()
	if err != nil {
		t.Fatal(err)
	}
	a, ok := cards.Get("a")
	if !ok {
		t.Fatal("card a missing")
	}
	if raw, ok := a.Field("frontBackgroundColor"); !ok || string(raw) != `"red"` {
		t.Errorf("extra field lost: %s", raw)
	}
	if !a.Media.List || a.Media.Items[0] != "pdf/x.pdf" {
		t.Errorf("media lost: %+v", a.Media)
	}
	if len(rels.Items) != 1 || !rels.Items[0].Legacy() {
		t.Errorf("relationship spelling lost: %+v", rels.Items)
	}
}

func TestSearchByIDPrefix(t *testing.T) {
	d := setupTestDB(t, testCards, testRels)

	got, err := d.SearchByIDPrefix("100", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "1000_aws" || got[1].ID != "1002_monitoring_scaling" {
		t.Errorf("unexpected matches %+v", got)
	}

	// "_" is literal, not a single-character wildcard.
	got, err = d.SearchByIDPrefix("1000_", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected only 1000_aws, got %+v", got)
	}
	got, err = d.SearchByIDPrefix("100_", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("underscore matched as a wildcard: %+v", got)
	}
}

func TestSearchCards(t *testing.T) {
	d := setupTestDB(t, testCards, testRels)

	got, err := d.SearchCards("the dashboard", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "1269" {
		t.Errorf("expected 1269, got %+v", got)
	}

	got, err = d.SearchCards("kpi", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("description should be searchable, got %+v", got)
	}

	got, err = d.SearchCards("a of", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("stopword-only query should match nothing, got %+v", got)
	}
}

func TestNeighborhood(t *testing.T) {
	d := setupTestDB(t, testCards, testRels)

	got, err := d.Neighborhood("1000_aws", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 nearby cards, got %+v", got)
	}

	first := got[0]
	if first.CardID != "1002_monitoring_scaling" || first.Rank != 1 || first.Hops != 1 {
		t.Errorf("unexpected first hop %+v", first)
	}
	if math.Abs(first.Distance-0.075) > 1e-9 {
		t.Errorf("related edge with strength 0.9 should cost 0.075, got %f", first.Distance)
	}

	second := got[1]
	if second.CardID != "1269" || second.Hops != 2 {
		t.Errorf("unexpected second hop %+v", second)
	}
	if math.Abs(second.Distance-0.475) > 1e-9 {
		t.Errorf("contains edge should cost its 0.4 floor, got %f", second.Distance)
	}
	if len(second.Path) != 2 || second.Path[1].Type != "contains" || second.Path[0].Title != "Monitoring and Scaling" {
		t.Errorf("unexpected path %+v", second.Path)
	}
}

func TestNeighborhood_Filters(t *testing.T) {
	d := setupTestDB(t, testCards, testRels)

	got, err := d.Neighborhood("1000_aws", &NeighborhoodConfig{ExcludeTypes: []string{"contains"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("contains edges should be skipped, got %+v", got)
	}

	got, err = d.Neighborhood("1000_aws", &NeighborhoodConfig{MaxHops: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected one card within one hop, got %+v", got)
	}
}
