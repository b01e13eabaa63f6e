package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault_CategoryOrder(t *testing.T) {
	r := Default()
	want := []string{
		"Cloud (AWS)", "Cloud (Google)", "Cloud (Azure)", "Data & Analytics",
		"Management & Strategy", "Media & Visuals", "Development & Code",
		"Security", "Healthcare", "Finance", "Books", "Uncategorized",
	}
	if diff := cmp.Diff(want, r.CategoryOrder()); diff != "" {
		t.Errorf("category order mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_IsValidAndFresh(t *testing.T) {
	a := Default()
	if err := a.Validate(); err != nil {
		t.Fatalf("built-in rules invalid: %v", err)
	}
	if a.LinkThreshold != 0.4 {
		t.Errorf("expected threshold 0.4, got %v", a.LinkThreshold)
	}
	if len(a.Hubs) != 3 {
		t.Fatalf("expected 3 hubs, got %d", len(a.Hubs))
	}

	a.Categories[0].Name = "changed"
	a.Hubs[0].Fields["frontBackgroundColor"] = "pink"
	b := Default()
	if b.Categories[0].Name != "Cloud (AWS)" {
		t.Errorf("Default shares state between calls: got %q", b.Categories[0].Name)
	}
	if b.Hubs[0].Fields["frontBackgroundColor"] != "slategray" {
		t.Errorf("Default shares hub fields between calls")
	}
}

func TestDefault_HubLookup(t *testing.T) {
	r := Default()
	h, ok := r.Hub("015_stack_visual_portfolio")
	if !ok {
		t.Fatal("expected visual portfolio hub")
	}
	if h.Title != "Visual Portfolio & Media" || h.Type != "stack" {
		t.Errorf("unexpected hub: %+v", h)
	}
	if diff := cmp.Diff([]string{"frontBackgroundColor"}, h.FieldNames()); diff != "" {
		t.Errorf("field names mismatch:\n%s", diff)
	}
	if _, ok := r.Hub("nope"); ok {
		t.Error("expected unknown hub lookup to fail")
	}
}

func writeRules(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_TOMLReplacesOnlyNamedSections(t *testing.T) {
	path := writeRules(t, "rules.toml", `
link_threshold = 0.6

[[categories]]
name = "Cloud"
keywords = ["aws", "azure"]
`)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.LinkThreshold != 0.6 {
		t.Errorf("expected threshold 0.6, got %v", r.LinkThreshold)
	}
	want := []Category{{Name: "Cloud", Keywords: []string{"aws", "azure"}}}
	if diff := cmp.Diff(want, r.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if len(r.Hubs) != 3 {
		t.Errorf("expected built-in hubs to remain, got %d", len(r.Hubs))
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeRules(t, "rules.yaml", `
media_category: Visuals
hubs:
  - id: 020_stack_new
    title: New Hub
    type: stack
    fields:
      frontBackgroundColor: teal
    children: [a, b]
trail_seeds: []
`)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.MediaCategory != "Visuals" {
		t.Errorf("expected media category Visuals, got %q", r.MediaCategory)
	}
	want := []HubSpec{{
		ID: "020_stack_new", Title: "New Hub", Type: "stack",
		Fields:   map[string]string{"frontBackgroundColor": "teal"},
		Children: []string{"a", "b"},
	}}
	if diff := cmp.Diff(want, r.Hubs); diff != "" {
		t.Errorf("hubs mismatch (-want +got):\n%s", diff)
	}
	if len(r.TrailSeeds) != 0 {
		t.Errorf("expected trail seeds cleared, got %d", len(r.TrailSeeds))
	}
	order := r.CategoryOrder()
	if order[len(order)-2] != "Visuals" {
		t.Errorf("expected Visuals before Uncategorized, got %v", order)
	}
}

func TestLoad_YAMLUnknownFieldRejected(t *testing.T) {
	path := writeRules(t, "rules.yml", "categoriez: []\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoad_TOMLUnknownFieldRejected(t *testing.T) {
	path := writeRules(t, "rules.toml", `
[[categoires]]
name = "Cloud"
keywords = ["aws"]
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeRules(t, "rules.json", "{}")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidRules) {
		t.Errorf("expected ErrInvalidRules, got %v", err)
	}
}

func TestLoad_InvalidThreshold(t *testing.T) {
	path := writeRules(t, "rules.toml", "link_threshold = 1.5\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidRules) {
		t.Errorf("expected ErrInvalidRules, got %v", err)
	}
}

func TestValidate_DuplicateHub(t *testing.T) {
	r := Default()
	r.Hubs = append(r.Hubs, r.Hubs[0])
	if err := r.Validate(); !errors.Is(err, ErrInvalidRules) {
		t.Errorf("expected ErrInvalidRules, got %v", err)
	}
}

func TestValidate_HubFieldNamesModelledKey(t *testing.T) {
	for _, name := range []string{"title", "type", "media"} {
		r := Default()
		r.Hubs[0].Fields = map[string]string{name: "x"}
		if err := r.Validate(); !errors.Is(err, ErrInvalidRules) {
			t.Errorf("fields.%s: expected ErrInvalidRules, got %v", name, err)
		}
	}
}

func TestValidate_EmptyCategoryKeywords(t *testing.T) {
	r := Default()
	r.Categories = append(r.Categories, Category{Name: "Empty"})
	if err := r.Validate(); !errors.Is(err, ErrInvalidRules) {
		t.Errorf("expected ErrInvalidRules, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
