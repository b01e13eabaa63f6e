package db

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
}

// BuildFTSQuery turns free text into an FTS5 query: words are split on
// whitespace and trimmed of punctuation, stopwords and words under three
// characters are dropped, and the rest are quoted and joined with " OR ".
func BuildFTSQuery(query string) string {
	terms := queryTerms(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " OR ")
}

func queryTerms(query string) []string {
	var filtered []string
	for _, w := range strings.Fields(query) {
		// Trim non-letter/digit chars from both ends
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if len(trimmed) < 3 {
			continue
		}
		if stopwords[strings.ToLower(trimmed)] {
			continue
		}
		filtered = append(filtered, trimmed)
	}
	return filtered
}

// SearchCards performs a full-text search over card titles and descriptions,
// best match first. It returns an empty slice when the filtered query is
// empty. Without the FTS table it falls back to a title substring match.
func (d *DB) SearchCards(query string, limit int) ([]CardRow, error) {
	ftsQuery := BuildFTSQuery(query)
	if ftsQuery == "" {
		return []CardRow{}, nil
	}

	cards, err := d.queryCards(`
		SELECT c.id, c.seq, c.title, c.type, c.description, c.raw
		FROM cards_fts fts
		JOIN cards c ON c.id = fts.id
		WHERE cards_fts MATCH ?1
		ORDER BY rank, c.seq
		LIMIT ?2
	`, ftsQuery, limit)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return d.searchTitlesLike(queryTerms(query), limit)
		}
		return nil, err
	}
	if cards == nil {
		cards = []CardRow{}
	}
	return cards, nil
}

func (d *DB) searchTitlesLike(words []string, limit int) ([]CardRow, error) {
	clauses := make([]string, len(words))
	args := make([]any, 0, len(words)+1)
	for i, w := range words {
		clauses[i] = "title LIKE ?"
		args = append(args, "%"+w+"%")
	}
	args = append(args, limit)
	cards, err := d.queryCards(`SELECT `+cardColumns+` FROM cards WHERE `+
		strings.Join(clauses, " OR ")+` ORDER BY seq LIMIT ?`, args...)
	if cards == nil && err == nil {
		cards = []CardRow{}
	}
	return cards, err
}
