package graph

import (
	"regexp"
	"sort"
	"strings"

	"skillsweb/cardgraph/internal/store"
)

// DefaultLinkPrefix is prepended to artifact names when they are attached to
// cards as media references.
const DefaultLinkPrefix = "pdf/"

var mediaDirPrefix = regexp.MustCompile(`(?i)^(pdf|images)[\\/]`)

// MediaChange records one card whose media references were rewritten.
type MediaChange struct {
	ID     string   `json:"id"`
	Before []string `json:"before"`
	After  []string `json:"after"`
}

// CleanMediaPaths normalizes every card's media references: each entry is split
// on commas, the parts are trimmed and lose a leading pdf/ or images/ folder,
// and they are joined again with ", ". A string field that changes becomes a
// list; an unchanged field keeps its shape. The returned changes are empty
// when nothing needs writing.
func CleanMediaPaths(cards *store.CardSet) []MediaChange {
	var changes []MediaChange
	for _, c := range cards.Cards {
		if c.Media.IsZero() {
			continue
		}
		cleaned := make([]string, len(c.Media.Items))
		changed := false
		for i, entry := range c.Media.Items {
			cleaned[i] = cleanMediaEntry(entry)
			if cleaned[i] != entry {
				changed = true
			}
		}
		if !changed {
			continue
		}
		changes = append(changes, MediaChange{ID: c.ID, Before: c.Media.Items, After: cleaned})
		c.Media = store.Assets{Items: cleaned, List: true}
	}
	return changes
}

func cleanMediaEntry(entry string) string {
	parts := strings.Split(entry, ",")
	for i, p := range parts {
		parts[i] = mediaDirPrefix.ReplaceAllString(strings.TrimSpace(p), "")
	}
	return strings.Join(parts, ", ")
}

// AssetChange records one card whose web or video path was rewritten.
type AssetChange struct {
	ID     string   `json:"id"`
	Field  string   `json:"field"`
	Before []string `json:"before"`
	After  []string `json:"after"`
}

// CleanAssetPaths fixes hand-entered Windows paths: a leading \web\ is dropped
// from web entries, and video entries under \videos\ get forward slashes and no
// leading slash. Fields keep their shape. The returned changes are empty when
// nothing needs writing.
func CleanAssetPaths(cards *store.CardSet) []AssetChange {
	var changes []AssetChange
	for _, c := range cards.Cards {
		if ch, ok := cleanAssets(c.ID, "web", &c.Web, cleanWebEntry); ok {
			changes = append(changes, ch)
		}
		if ch, ok := cleanAssets(c.ID, "video", &c.Video, cleanVideoEntry); ok {
			changes = append(changes, ch)
		}
	}
	return changes
}

func cleanAssets(id, field string, a *store.Assets, clean func(string) string) (AssetChange, bool) {
	if a.IsZero() {
		return AssetChange{}, false
	}
	cleaned := make([]string, len(a.Items))
	changed := false
	for i, entry := range a.Items {
		cleaned[i] = clean(entry)
		if cleaned[i] != entry {
			changed = true
		}
	}
	if !changed {
		return AssetChange{}, false
	}
	ch := AssetChange{ID: id, Field: field, Before: a.Items, After: cleaned}
	a.Items = cleaned
	return ch, true
}

func cleanWebEntry(entry string) string {
	if !strings.HasPrefix(entry, `\web\`) {
		return entry
	}
	return strings.ReplaceAll(entry, `\web\`, "")
}

func cleanVideoEntry(entry string) string {
	if !strings.HasPrefix(entry, `\videos\`) {
		return entry
	}
	return strings.TrimPrefix(strings.ReplaceAll(entry, `\`, "/"), "/")
}

// LinkApplied records a media reference added to a card.
type LinkApplied struct {
	Artifact string `json:"artifact"`
	CardID   string `json:"card_id"`
	Ref      string `json:"ref"`
}

// ApplyLinks attaches prefix+artifact to the media of each mapped card unless
// the reference is already there. Artifacts are visited in sorted order and
// mappings to unknown cards are ignored. A card without media gets a list.
func ApplyLinks(cards *store.CardSet, mapping map[string]string, prefix string) []LinkApplied {
	var applied []LinkApplied
	for _, artifact := range sortedMapKeys(mapping) {
		c, ok := cards.Get(mapping[artifact])
		if !ok {
			continue
		}
		ref := prefix + artifact
		if c.Media.Contains(ref) {
			continue
		}
		if c.Media.IsZero() {
			c.Media = store.Assets{Items: []string{ref}, List: true}
		} else {
			c.Media.Append(ref)
		}
		applied = append(applied, LinkApplied{Artifact: artifact, CardID: c.ID, Ref: ref})
	}
	return applied
}

func sortedMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
