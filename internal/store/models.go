package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Card is one node of the skills web.
type Card struct {
	ID          string
	Title       string
	Type        string // "stack", "media", or a generic content type
	Description string
	Media       Assets
	Web         Assets
	Video       Assets

	// Mistyped lists modelled fields whose stored value had the wrong JSON
	// type. Scalars are read as their literal text; anything else reads as
	// empty. The stored value is written back untouched.
	Mistyped []string

	raw *object // fields as read, including ones this package does not model
}

// Relationship is a directed, typed edge between two cards.
type Relationship struct {
	Source   string
	Target   string
	Type     string // only "contains" is hierarchical
	Value    *float64
	Strength *float64

	sourceKey string // "source" or legacy "from"
	targetKey string // "target" or legacy "to"
	raw       *object
}

// Assets is an asset reference field that may be stored as a single string or
// as a list of strings. The stored shape is kept on write.
type Assets struct {
	Items []string
	List  bool
}

// EdgeKey identifies a relationship for duplicate detection.
type EdgeKey struct {
	Source string
	Target string
	Type   string
}

// Pair is a parent/child pair of a hierarchy edge.
type Pair struct {
	Parent string
	Child  string
}

const (
	keyID          = "id"
	keyTitle       = "title"
	keyType        = "type"
	keyDescription = "description"
	keyMedia       = "media"
	keyWeb         = "web"
	keyVideo       = "video"
)

var cardKeys = []string{keyID, keyTitle, keyType, keyDescription, keyMedia, keyWeb, keyVideo}

// NewCard returns a card with the given identity fields. They are written
// first, ahead of any field set later.
func NewCard(id, title, cardType, description string) *Card {
	c := &Card{ID: id, Title: title, Type: cardType, Description: description, raw: newObject()}
	_ = c.raw.setValue(keyID, id)
	_ = c.raw.setValue(keyTitle, title)
	_ = c.raw.setValue(keyType, cardType)
	if description != "" {
		_ = c.raw.setValue(keyDescription, description)
	}
	return c
}

// Has reports whether the card carries the field, either as read or as set since.
func (c *Card) Has(key string) bool {
	if c.raw != nil && c.raw.has(key) {
		return true
	}
	switch key {
	case keyID:
		return c.ID != ""
	case keyTitle:
		return c.Title != ""
	case keyType:
		return c.Type != ""
	case keyDescription:
		return c.Description != ""
	case keyMedia:
		return !c.Media.IsZero()
	case keyWeb:
		return !c.Web.IsZero()
	case keyVideo:
		return !c.Video.IsZero()
	}
	return false
}

// Field returns the raw JSON of a field the card does not model, such as
// frontBackgroundColor.
func (c *Card) Field(key string) (json.RawMessage, bool) {
	if c.raw == nil || !c.raw.has(key) {
		return nil, false
	}
	return c.raw.get(key), true
}

// StringField returns a field the card does not model as a string, or "".
func (c *Card) StringField(key string) string {
	raw, ok := c.Field(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// IsModelled reports whether key is a card field held on the struct rather
// than passed through.
func IsModelled(key string) bool {
	for _, k := range cardKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SetField sets a field the card does not model. Known fields must be set
// through the struct.
func (c *Card) SetField(key string, v any) error {
	if IsModelled(key) {
		return fmt.Errorf("field %q is modelled; set it on the card", key)
	}
	if c.raw == nil {
		c.raw = newObject()
	}
	return c.raw.setValue(key, v)
}

// Fields returns the names of all fields the card will write, in order.
func (c *Card) Fields() []string {
	obj, err := c.object()
	if err != nil {
		return nil
	}
	return append([]string(nil), obj.keys...)
}

// UnmarshalJSON decodes a card, keeping every field it was given.
func (c *Card) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil {
		return err
	}
	*c = Card{raw: obj}
	texts := []struct {
		key string
		dst *string
	}{
		{keyID, &c.ID}, {keyTitle, &c.Title}, {keyType, &c.Type}, {keyDescription, &c.Description},
	}
	for _, f := range texts {
		if !obj.has(f.key) {
			continue
		}
		var ok bool
		if *f.dst, ok = decodeText(obj.get(f.key)); !ok {
			c.Mistyped = append(c.Mistyped, f.key)
		}
	}
	assets := []struct {
		key string
		dst *Assets
	}{
		{keyMedia, &c.Media}, {keyWeb, &c.Web}, {keyVideo, &c.Video},
	}
	for _, f := range assets {
		if !obj.has(f.key) {
			continue
		}
		if err := json.Unmarshal(obj.get(f.key), f.dst); err != nil {
			*f.dst = Assets{}
			c.Mistyped = append(c.Mistyped, f.key)
		}
	}
	return nil
}

// decodeText reads a JSON string or null. Numbers and booleans yield their
// literal text and ok false; objects and arrays yield "" and ok false.
func decodeText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch v.(type) {
	case float64, bool:
		return strings.TrimSpace(string(raw)), false
	}
	return "", false
}

// MarshalJSON writes the card with its original field order. Modelled fields
// are written when they were read or are non-empty; a field whose value has
// not changed is written back byte-for-byte.
func (c Card) MarshalJSON() ([]byte, error) {
	obj, err := c.object()
	if err != nil {
		return nil, err
	}
	return obj.MarshalJSON()
}

func (c *Card) object() (*object, error) {
	obj := c.raw.clone()
	values := map[string]any{
		keyID: c.ID, keyTitle: c.Title, keyType: c.Type, keyDescription: c.Description,
		keyMedia: c.Media, keyWeb: c.Web, keyVideo: c.Video,
	}
	for _, key := range cardKeys {
		v := values[key]
		if obj.has(key) {
			if unchanged(obj.get(key), v) {
				continue
			}
		} else if isZero(v) {
			continue
		}
		if err := obj.setValue(key, v); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// UnmarshalJSON decodes a relationship, accepting source/target or the legacy
// from/to spelling. source/target win when both are non-empty.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil {
		return err
	}
	*r = Relationship{raw: obj}

	r.Source, r.sourceKey, err = endpoint(obj, "source", "from")
	if err != nil {
		return err
	}
	r.Target, r.targetKey, err = endpoint(obj, "target", "to")
	if err != nil {
		return err
	}
	if obj.has("type") {
		if err := json.Unmarshal(obj.get("type"), &r.Type); err != nil {
			return fmt.Errorf("field %q: %w", "type", err)
		}
	}
	for key, dst := range map[string]**float64{"value": &r.Value, "strength": &r.Strength} {
		if !obj.has(key) {
			continue
		}
		if err := json.Unmarshal(obj.get(key), dst); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	return nil
}

func endpoint(obj *object, key, legacy string) (string, string, error) {
	var primary, fallback string
	if obj.has(key) {
		if err := json.Unmarshal(obj.get(key), &primary); err != nil {
			return "", "", fmt.Errorf("field %q: %w", key, err)
		}
	}
	if primary != "" {
		return primary, key, nil
	}
	if obj.has(legacy) {
		if err := json.Unmarshal(obj.get(legacy), &fallback); err != nil {
			return "", "", fmt.Errorf("field %q: %w", legacy, err)
		}
	}
	if fallback != "" {
		return fallback, legacy, nil
	}
	if !obj.has(key) && obj.has(legacy) {
		return "", legacy, nil
	}
	return "", key, nil
}

// Legacy reports whether the relationship was read with from/to endpoints.
func (r *Relationship) Legacy() bool {
	return r.sourceKey == "from" || r.targetKey == "to"
}

// Key returns the relationship's identity triple.
func (r *Relationship) Key() EdgeKey {
	return EdgeKey{Source: r.Source, Target: r.Target, Type: r.Type}
}

// MarshalJSON writes the relationship back with the endpoint spelling it was
// read with. New relationships use source/target.
func (r Relationship) MarshalJSON() ([]byte, error) {
	obj := r.raw.clone()
	sk, tk := r.sourceKey, r.targetKey
	if sk == "" {
		sk = "source"
	}
	if tk == "" {
		tk = "target"
	}
	values := []field{{sk, r.Source}, {tk, r.Target}, {"type", r.Type}}
	if r.Value != nil {
		values = append(values, field{"value", *r.Value})
	}
	if r.Strength != nil {
		values = append(values, field{"strength", *r.Strength})
	}
	for _, f := range values {
		if obj.has(f.key) && unchanged(obj.get(f.key), f.v) {
			continue
		}
		if !obj.has(f.key) && isZero(f.v) {
			continue
		}
		if err := obj.setValue(f.key, f.v); err != nil {
			return nil, err
		}
	}
	return obj.MarshalJSON()
}

type field struct {
	key string
	v   any
}

// NewContains returns a hierarchy edge parent -> child with value 1.
func NewContains(parent, child string) *Relationship {
	one := 1.0
	return &Relationship{
		Source:    parent,
		Target:    child,
		Type:      "contains",
		Value:     &one,
		sourceKey: "source",
		targetKey: "target",
		raw:       newObject(),
	}
}

// IsZero reports whether the field is absent.
func (a Assets) IsZero() bool {
	return len(a.Items) == 0 && !a.List
}

// Values returns the non-blank references.
func (a Assets) Values() []string {
	var out []string
	for _, it := range a.Items {
		if strings.TrimSpace(it) != "" {
			out = append(out, it)
		}
	}
	return out
}

// Contains reports whether ref is one of the references.
func (a Assets) Contains(ref string) bool {
	for _, it := range a.Items {
		if it == ref {
			return true
		}
	}
	return false
}

// Append adds a reference. A blank single-string field is replaced; a non-blank
// one becomes a list.
func (a *Assets) Append(ref string) {
	if len(a.Values()) == 0 {
		a.Items = []string{ref}
		return
	}
	a.Items = append(a.Items, ref)
	a.List = true
}

// UnmarshalJSON accepts a string, a list of strings, or null.
func (a *Assets) UnmarshalJSON(data []byte) error {
	*a = Assets{}
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		return nil
	case strings.HasPrefix(trimmed, "["):
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []string{}
		}
		a.Items, a.List = items, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	a.Items = []string{s}
	return nil
}

// MarshalJSON writes a list when the field was a list or holds more than one
// reference, and a string otherwise.
func (a Assets) MarshalJSON() ([]byte, error) {
	if a.List || len(a.Items) > 1 {
		items := a.Items
		if items == nil {
			items = []string{}
		}
		return encodeValue(items)
	}
	if len(a.Items) == 0 {
		return []byte(`""`), nil
	}
	return encodeValue(a.Items[0])
}

// unchanged reports whether raw decodes to the same value as v.
func unchanged(raw json.RawMessage, v any) bool {
	if strings.TrimSpace(string(raw)) == "null" {
		return isZero(v)
	}
	switch cur := v.(type) {
	case string:
		old, _ := decodeText(raw)
		return old == cur
	case float64:
		var old float64
		return json.Unmarshal(raw, &old) == nil && old == cur
	case Assets:
		var old Assets
		if err := json.Unmarshal(raw, &old); err != nil {
			old = Assets{}
		}
		return old.List == cur.List && reflect.DeepEqual(normalize(old.Items), normalize(cur.Items))
	}
	return false
}

func normalize(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	return items
}

func isZero(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case Assets:
		return x.IsZero()
	case nil:
		return true
	}
	return false
}
