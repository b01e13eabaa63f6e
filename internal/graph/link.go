package graph

import (
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"skillsweb/cardgraph/internal/rules"
	"skillsweb/cardgraph/internal/store"
)

// LinkResult is the outcome of matching one artifact name.
type LinkResult struct {
	Artifact string  `json:"artifact"`
	CardID   string  `json:"card_id,omitempty"`
	Title    string  `json:"title,omitempty"`
	Score    float64 `json:"score"`
	Err      error   `json:"-"`
}

// Accepted reports whether the artifact was matched to a card.
func (r LinkResult) Accepted() bool {
	return r.Err == nil
}

// Linker matches artifact names against card titles.
type Linker struct {
	Threshold  float64
	candidates []*store.Card
	titles     [][]string
}

// NewLinker selects candidate cards: those whose type does not contain the
// container tag and whose title does not contain the heading marker, both
// compared case-insensitively.
func NewLinker(cards *store.CardSet, r *rules.Rules) *Linker {
	l := &Linker{Threshold: r.LinkThreshold}
	container := strings.ToLower(r.ContainerType)
	heading := strings.ToLower(r.HeadingMarker)
	for _, id := range cards.IDs() {
		c, _ := cards.Get(id)
		if container != "" && strings.Contains(strings.ToLower(c.Type), container) {
			continue
		}
		if heading != "" && strings.Contains(strings.ToLower(c.Title), heading) {
			continue
		}
		l.candidates = append(l.candidates, c)
		l.titles = append(l.titles, runes(strings.ToLower(c.Title)))
	}
	return l
}

// Candidates returns the number of cards eligible for matching.
func (l *Linker) Candidates() int {
	return len(l.candidates)
}

// Match scores one artifact against every candidate and keeps the best. The
// first candidate wins ties. A best score not strictly above the threshold is
// rejected with ErrNoMatch.
func (l *Linker) Match(artifact string) LinkResult {
	res := LinkResult{Artifact: artifact}
	name := runes(CleanArtifactName(artifact))
	var best *store.Card
	for i, c := range l.candidates {
		score := difflib.NewMatcher(name, l.titles[i]).Ratio()
		if score > res.Score {
			res.Score = score
			best = c
		}
	}
	if best == nil || res.Score <= l.Threshold {
		res.Err = ErrNoMatch
		return res
	}
	res.CardID, res.Title = best.ID, best.Title
	return res
}

// LinkArtifacts matches each artifact in order. The returned mapping holds
// accepted matches only, keyed by artifact name.
func LinkArtifacts(cards *store.CardSet, artifacts []string, r *rules.Rules) ([]LinkResult, map[string]string) {
	l := NewLinker(cards, r)
	results := make([]LinkResult, 0, len(artifacts))
	mapping := make(map[string]string)
	for _, a := range artifacts {
		res := l.Match(a)
		results = append(results, res)
		if res.Accepted() {
			mapping[a] = res.CardID
		}
	}
	return results, mapping
}

// CleanArtifactName drops the file extension, turns underscores and hyphens
// into spaces, and lowercases the rest.
func CleanArtifactName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.ToLower(name)
}

// runes splits s into one-character strings so the matcher compares
// characters rather than words.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
