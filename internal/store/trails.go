package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

const trailsKey = "trails"

// Trail is one pathfinder trail: a named list of seed card ids.
type Trail struct {
	ID    string
	Seeds []string

	raw *object
}

// TrailConfig is the pathfinder configuration. Fields other than the trails'
// ids and seeds are kept as read.
type TrailConfig struct {
	Path   string
	Trails []*Trail

	doc *object
}

// Find returns the trail with the given id.
func (c *TrailConfig) Find(id string) *Trail {
	for _, t := range c.Trails {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// AddSeed appends id to the trail's seeds unless already present, reporting
// whether the list changed.
func (t *Trail) AddSeed(id string) bool {
	for _, s := range t.Seeds {
		if s == id {
			return false
		}
	}
	t.Seeds = append(t.Seeds, id)
	return true
}

// ParseTrails decodes a pathfinder configuration document.
func ParseTrails(data []byte) (*TrailConfig, error) {
	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, malformedFrom(data, 0, -1, err)
	}
	doc, err := decodeObject(data)
	if err != nil {
		return nil, malformedFrom(data, 0, -1, err)
	}
	cfg := &TrailConfig{doc: doc}
	if !doc.has(trailsKey) {
		return cfg, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(doc.get(trailsKey), &raws); err != nil {
		return nil, malformed(data, -1, -1, fmt.Errorf("%q: %w", trailsKey, err))
	}
	for i, raw := range raws {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, malformed(data, -1, i, err)
		}
		t := &Trail{raw: obj}
		if obj.has("id") {
			if err := json.Unmarshal(obj.get("id"), &t.ID); err != nil {
				return nil, malformed(data, -1, i, fmt.Errorf("field %q: %w", "id", err))
			}
		}
		if obj.has("seeds") {
			if err := json.Unmarshal(obj.get("seeds"), &t.Seeds); err != nil {
				return nil, malformed(data, -1, i, fmt.Errorf("field %q: %w", "seeds", err))
			}
		}
		cfg.Trails = append(cfg.Trails, t)
	}
	return cfg, nil
}

// LoadTrails reads the pathfinder configuration at path.
func LoadTrails(path string) (*TrailConfig, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseTrails(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	cfg.Path = path
	return cfg, nil
}

// MarshalTrails encodes the configuration with 2-space indentation.
func MarshalTrails(c *TrailConfig) ([]byte, error) {
	doc := c.doc.clone()
	if (c.doc != nil && c.doc.has(trailsKey)) || len(c.Trails) > 0 {
		trails := make([]*object, 0, len(c.Trails))
		for _, t := range c.Trails {
			obj := t.raw.clone()
			if obj.has("id") || t.ID != "" {
				if err := obj.setValue("id", t.ID); err != nil {
					return nil, err
				}
			}
			if obj.has("seeds") || len(t.Seeds) > 0 {
				seeds := t.Seeds
				if seeds == nil {
					seeds = []string{}
				}
				if err := obj.setValue("seeds", seeds); err != nil {
					return nil, err
				}
			}
			trails = append(trails, obj)
		}
		if err := doc.setValue(trailsKey, trails); err != nil {
			return nil, err
		}
	}
	return encodeDocument(Shape{}, doc)
}

// SaveTrails writes the configuration to path, or to the path it was loaded
// from when path is empty.
func SaveTrails(c *TrailConfig, path string) error {
	if path == "" {
		path = c.Path
	}
	if path == "" {
		return ioError(path, errors.New("no path for trail configuration"))
	}
	data, err := MarshalTrails(c)
	if err != nil {
		return &LoadError{Kind: ErrMalformedInput, Path: path, Record: -1, Err: err}
	}
	return WriteFileAtomic(path, data)
}
