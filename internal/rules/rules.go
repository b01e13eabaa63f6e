// Package rules holds the data that drives classification and repair: the
// ordered keyword categories, hub specifications, attachments and trail seed
// updates. Rules are plain values passed to the algorithms that use them.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"skillsweb/cardgraph/internal/store"
)

//go:embed default.toml
var defaultRules []byte

// ErrInvalidRules indicates a rules value that cannot drive classification or repair.
var ErrInvalidRules = errors.New("invalid rules")

// Category is a keyword category. Keywords are matched as lowercase substrings.
type Category struct {
	Name     string   `toml:"name" yaml:"name"`
	Keywords []string `toml:"keywords" yaml:"keywords"`
}

// HubSpec describes a container card the repairer creates when absent, and the
// children it adopts.
type HubSpec struct {
	ID          string            `toml:"id" yaml:"id"`
	Title       string            `toml:"title" yaml:"title"`
	Type        string            `toml:"type" yaml:"type"`
	Description string            `toml:"description" yaml:"description"`
	Fields      map[string]string `toml:"fields" yaml:"fields"` // presentation hints, e.g. frontBackgroundColor
	Children    []string          `toml:"children" yaml:"children"`
}

// Attachment links existing children under an existing parent.
type Attachment struct {
	Parent   string   `toml:"parent" yaml:"parent"`
	Children []string `toml:"children" yaml:"children"`
}

// SeedUpdate appends seeds to a named pathfinder trail.
type SeedUpdate struct {
	Trail string   `toml:"trail" yaml:"trail"`
	Seeds []string `toml:"seeds" yaml:"seeds"`
}

// Rules is the full rule set.
type Rules struct {
	ContainerType   string       `toml:"container_type" yaml:"container_type"`
	MediaType       string       `toml:"media_type" yaml:"media_type"`
	MediaCategory   string       `toml:"media_category" yaml:"media_category"`
	Uncategorized   string       `toml:"uncategorized" yaml:"uncategorized"`
	HeadingMarker   string       `toml:"heading_marker" yaml:"heading_marker"`
	LinkThreshold   float64      `toml:"link_threshold" yaml:"link_threshold"`
	Recommendations []string     `toml:"recommendations" yaml:"recommendations"`
	Categories      []Category   `toml:"categories" yaml:"categories"`
	Hubs            []HubSpec    `toml:"hubs" yaml:"hubs"`
	Attachments     []Attachment `toml:"attachments" yaml:"attachments"`
	TrailSeeds      []SeedUpdate `toml:"trail_seeds" yaml:"trail_seeds"`
}

// Default returns a fresh copy of the built-in rules.
func Default() *Rules {
	var r Rules
	if err := toml.Unmarshal(defaultRules, &r); err != nil {
		panic(fmt.Sprintf("built-in rules: %v", err))
	}
	return &r
}

// Load reads a rules file over the built-in rules. Sections the file sets
// replace the built-in ones; the format follows the extension (.toml, .yaml,
// .yml).
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var file Rules
	var keys map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err = decodeTOML(data, &file, true); err == nil {
			err = decodeTOML(data, &keys, false)
		}
	case ".yaml", ".yml":
		if err = decodeYAML(data, &file, true); err == nil {
			err = decodeYAML(data, &keys, false)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported rules format %q", ErrInvalidRules, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	r := Default()
	r.overlay(&file, keys)
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return r, nil
}

func decodeTOML(data []byte, out any, strict bool) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(out)
}

func decodeYAML(data []byte, out any, strict bool) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(strict)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// overlay copies every section named in keys from file into r.
func (r *Rules) overlay(file *Rules, keys map[string]any) {
	for key := range keys {
		switch key {
		case "container_type":
			r.ContainerType = file.ContainerType
		case "media_type":
			r.MediaType = file.MediaType
		case "media_category":
			r.MediaCategory = file.MediaCategory
		case "uncategorized":
			r.Uncategorized = file.Uncategorized
		case "heading_marker":
			r.HeadingMarker = file.HeadingMarker
		case "link_threshold":
			r.LinkThreshold = file.LinkThreshold
		case "recommendations":
			r.Recommendations = file.Recommendations
		case "categories":
			r.Categories = file.Categories
		case "hubs":
			r.Hubs = file.Hubs
		case "attachments":
			r.Attachments = file.Attachments
		case "trail_seeds":
			r.TrailSeeds = file.TrailSeeds
		}
	}
}

// Validate checks that the rules can drive classification and repair.
func (r *Rules) Validate() error {
	if r.ContainerType == "" {
		return fmt.Errorf("%w: container_type is empty", ErrInvalidRules)
	}
	if r.MediaCategory == "" || r.Uncategorized == "" {
		return fmt.Errorf("%w: media_category and uncategorized must be set", ErrInvalidRules)
	}
	if r.LinkThreshold < 0 || r.LinkThreshold >= 1 {
		return fmt.Errorf("%w: link_threshold %.2f outside [0, 1)", ErrInvalidRules, r.LinkThreshold)
	}
	for i, c := range r.Categories {
		if c.Name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalidRules, i)
		}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("%w: category %q has no keywords", ErrInvalidRules, c.Name)
		}
	}
	seen := make(map[string]bool)
	for i, h := range r.Hubs {
		if h.ID == "" || h.Title == "" {
			return fmt.Errorf("%w: hub %d needs an id and a title", ErrInvalidRules, i)
		}
		if seen[h.ID] {
			return fmt.Errorf("%w: hub %q declared twice", ErrInvalidRules, h.ID)
		}
		seen[h.ID] = true
		for _, name := range h.FieldNames() {
			if store.IsModelled(name) {
				return fmt.Errorf("%w: hub %q sets %q in fields; use the hub's own key", ErrInvalidRules, h.ID, name)
			}
		}
	}
	for i, a := range r.Attachments {
		if a.Parent == "" {
			return fmt.Errorf("%w: attachment %d has no parent", ErrInvalidRules, i)
		}
	}
	for i, s := range r.TrailSeeds {
		if s.Trail == "" {
			return fmt.Errorf("%w: trail seed update %d has no trail", ErrInvalidRules, i)
		}
	}
	return nil
}

// CategoryOrder returns the literal category order used for reporting: the
// keyword categories, then the media and uncategorized labels unless already
// listed.
func (r *Rules) CategoryOrder() []string {
	order := make([]string, 0, len(r.Categories)+2)
	listed := make(map[string]bool)
	for _, c := range r.Categories {
		if !listed[c.Name] {
			order = append(order, c.Name)
			listed[c.Name] = true
		}
	}
	for _, name := range []string{r.MediaCategory, r.Uncategorized} {
		if !listed[name] {
			order = append(order, name)
			listed[name] = true
		}
	}
	return order
}

// Hub returns the hub spec with the given id.
func (r *Rules) Hub(id string) (HubSpec, bool) {
	for _, h := range r.Hubs {
		if h.ID == id {
			return h, true
		}
	}
	return HubSpec{}, false
}

// FieldNames returns the hub's presentation field names in lexical order.
func (h HubSpec) FieldNames() []string {
	names := make([]string, 0, len(h.Fields))
	for k := range h.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
