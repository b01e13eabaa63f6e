package store

import "encoding/json"

// ContainsType is the only relationship type that forms the hierarchy.
const ContainsType = "contains"

// RelationshipSet is a loaded relationships snapshot in file order.
type RelationshipSet struct {
	Path  string
	Shape Shape
	Items []*Relationship
}

// NewRelationshipSet returns an empty set with the given shape.
func NewRelationshipSet(shape Shape) *RelationshipSet {
	return &RelationshipSet{Shape: shape}
}

// Add appends a relationship.
func (s *RelationshipSet) Add(r *Relationship) {
	s.Items = append(s.Items, r)
}

// ContainsPairs returns the set of (parent, child) pairs of hierarchy edges
// that have both endpoints.
func (s *RelationshipSet) ContainsPairs() map[Pair]bool {
	pairs := make(map[Pair]bool)
	for _, r := range s.Items {
		if r.Type != ContainsType || r.Source == "" || r.Target == "" {
			continue
		}
		pairs[Pair{Parent: r.Source, Child: r.Target}] = true
	}
	return pairs
}

// ParseRelationships decodes a relationships document.
func ParseRelationships(data []byte) (*RelationshipSet, error) {
	shape, array, base, err := splitDocument(data, RelationshipsKey)
	if err != nil {
		return nil, err
	}
	set := NewRelationshipSet(shape)
	err = eachRecord(data, array, base, func(i int, raw json.RawMessage) error {
		r := &Relationship{}
		if err := r.UnmarshalJSON(raw); err != nil {
			return err
		}
		set.Add(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LoadRelationships reads and decodes the relationships document at path.
func LoadRelationships(path string) (*RelationshipSet, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	set, err := ParseRelationships(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	set.Path = path
	return set, nil
}

// MarshalRelationships encodes the set in its original shape.
func MarshalRelationships(s *RelationshipSet) ([]byte, error) {
	items := s.Items
	if items == nil {
		items = []*Relationship{}
	}
	return encodeDocument(s.Shape, items)
}

// SaveRelationships writes the set to path, or to the path it was loaded from
// when path is empty.
func SaveRelationships(s *RelationshipSet, path string) error {
	if path == "" {
		path = s.Path
	}
	data, err := MarshalRelationships(s)
	if err != nil {
		return &LoadError{Kind: ErrMalformedInput, Path: path, Record: -1, Err: err}
	}
	return WriteFileAtomic(path, data)
}
