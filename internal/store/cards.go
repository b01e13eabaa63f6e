package store

import "encoding/json"

// CardSet is a loaded cards snapshot: every record in file order plus an id
// index. When ids repeat, the id keeps the position of its first record and
// resolves to its last one.
type CardSet struct {
	Path  string
	Shape Shape
	Cards []*Card

	byID  map[string]*Card
	order []string
}

// NewCardSet returns an empty set with the given shape.
func NewCardSet(shape Shape) *CardSet {
	return &CardSet{Shape: shape, byID: make(map[string]*Card)}
}

// Add appends a record and indexes it by id.
func (s *CardSet) Add(c *Card) {
	s.Cards = append(s.Cards, c)
	s.index(c)
}

func (s *CardSet) index(c *Card) {
	if s.byID == nil {
		s.byID = make(map[string]*Card)
	}
	if c.ID == "" {
		return
	}
	if _, ok := s.byID[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.byID[c.ID] = c
}

// Get returns the card for id.
func (s *CardSet) Get(id string) (*Card, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Has reports whether a card with the id exists.
func (s *CardSet) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// IDs returns the distinct card ids in order of first appearance.
func (s *CardSet) IDs() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of distinct ids.
func (s *CardSet) Len() int {
	return len(s.order)
}

// Unique returns one card per id, in order of first appearance.
func (s *CardSet) Unique() []*Card {
	out := make([]*Card, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// ParseCards decodes a cards document.
func ParseCards(data []byte) (*CardSet, error) {
	shape, array, base, err := splitDocument(data, CardsKey)
	if err != nil {
		return nil, err
	}
	set := NewCardSet(shape)
	err = eachRecord(data, array, base, func(i int, raw json.RawMessage) error {
		c := &Card{}
		if err := c.UnmarshalJSON(raw); err != nil {
			return err
		}
		set.Add(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LoadCards reads and decodes the cards document at path.
func LoadCards(path string) (*CardSet, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	set, err := ParseCards(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	set.Path = path
	return set, nil
}

// MarshalCards encodes the set in its original shape.
func MarshalCards(s *CardSet) ([]byte, error) {
	cards := s.Cards
	if cards == nil {
		cards = []*Card{}
	}
	return encodeDocument(s.Shape, cards)
}

// SaveCards writes the set to path, or to the path it was loaded from when
// path is empty.
func SaveCards(s *CardSet, path string) error {
	if path == "" {
		path = s.Path
	}
	data, err := MarshalCards(s)
	if err != nil {
		return &LoadError{Kind: ErrMalformedInput, Path: path, Record: -1, Err: err}
	}
	return WriteFileAtomic(path, data)
}
