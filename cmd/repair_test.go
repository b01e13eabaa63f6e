package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"skillsweb/cardgraph/internal/config"
	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/rules"
)

// setupRepairDir writes a small snapshot set and points cfg at it.
func setupRepairDir(t *testing.T) string {
	t.Helper()
	oldCfg := cfg
	t.Cleanup(func() { cfg = oldCfg })

	dir := t.TempDir()
	files := map[string]string{
		"cards.json": `{"cards": [
  {"id": "006_stack_legacy", "title": "Legacy", "type": "stack"},
  {"id": "c1", "title": "One", "type": "topic"}
]}`,
		"relationships.json":     `{"relationships": []}`,
		"pathfinder_config.json": `{"trails": [{"id": "t1", "seeds": []}]}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg = config.Config{
		DataDir:           dir,
		CardsFile:         "cards.json",
		RelationshipsFile: "relationships.json",
		TrailsFile:        "pathfinder_config.json",
	}
	return dir
}

var repairTestPlan = graph.RepairPlan{
	Hubs:        []rules.HubSpec{{ID: "hub", Title: "Hub", Type: "stack", Children: []string{"c1"}}},
	Attachments: []rules.Attachment{{Parent: "006_stack_legacy", Children: []string{"hub"}}},
	TrailSeeds:  []rules.SeedUpdate{{Trail: "t1", Seeds: []string{"hub"}}},
}

type fileState struct {
	data    []byte
	modTime time.Time
}

// snapshotFiles backdates every file so a rewrite shows up as a new mtime.
func snapshotFiles(t *testing.T, dir string) map[string]fileState {
	t.Helper()
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	out := make(map[string]fileState)
	for _, name := range []string{"cards.json", "relationships.json", "pathfinder_config.json"} {
		path := filepath.Join(dir, name)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		out[name] = fileState{data: data, modTime: info.ModTime()}
	}
	return out
}

func assertUntouched(t *testing.T, dir string, before map[string]fileState) {
	t.Helper()
	for name, want := range before {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(want.data, data) {
			t.Errorf("%s: contents changed", name)
		}
		if !info.ModTime().Equal(want.modTime) {
			t.Errorf("%s: rewritten (mtime %v, want %v)", name, info.ModTime(), want.modTime)
		}
	}
}

func TestApplyRepair_SecondRunWritesNothing(t *testing.T) {
	dir := setupRepairDir(t)

	first, err := applyRepair(repairTestPlan, false)
	if err != nil {
		t.Fatal(err)
	}
	if !first.CardsChanged || !first.RelationshipsChanged || !first.TrailsChanged {
		t.Fatalf("first run should change all three files: %+v", first)
	}

	before := snapshotFiles(t, dir)
	second, err := applyRepair(repairTestPlan, false)
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed() {
		t.Errorf("second run changed something: %+v", second)
	}
	assertUntouched(t, dir, before)
}

func TestApplyRepair_DryRunWritesNothing(t *testing.T) {
	dir := setupRepairDir(t)
	before := snapshotFiles(t, dir)

	result, err := applyRepair(repairTestPlan, true)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed() {
		t.Error("dry run should still report the changes")
	}
	assertUntouched(t, dir, before)
}

func TestApplyRepair_MissingTrailsFile(t *testing.T) {
	dir := setupRepairDir(t)
	if err := os.Remove(filepath.Join(dir, "pathfinder_config.json")); err != nil {
		t.Fatal(err)
	}

	result, err := applyRepair(repairTestPlan, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.MissingTrails) != 1 || result.MissingTrails[0] != "t1" {
		t.Errorf("expected t1 reported missing, got %v", result.MissingTrails)
	}
	if _, err := os.Stat(filepath.Join(dir, "pathfinder_config.json")); !os.IsNotExist(err) {
		t.Error("trails file should not be created")
	}
}
