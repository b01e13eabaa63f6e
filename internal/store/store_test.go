package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards_BareArray(t *testing.T) {
	set, err := ParseCards([]byte(`[{"id":"a","title":"A","type":"stack"},{"id":"b","title":"B","type":"topic"}]`))
	require.NoError(t, err)

	assert.False(t, set.Shape.Wrapped)
	assert.Equal(t, []string{"a", "b"}, set.IDs())
	c, ok := set.Get("b")
	require.True(t, ok)
	assert.Equal(t, "B", c.Title)
	assert.Equal(t, "topic", c.Type)
}

func TestParseCards_Wrapped(t *testing.T) {
	set, err := ParseCards([]byte(`{"version": 2, "cards": [{"id":"a","title":"A","type":"stack"}]}`))
	require.NoError(t, err)

	assert.True(t, set.Shape.Wrapped)
	assert.Equal(t, CardsKey, set.Shape.Key)
	assert.Equal(t, 1, set.Len())
}

func TestParseCards_DuplicateIDKeepsFirstPositionLastValue(t *testing.T) {
	set, err := ParseCards([]byte(`[
		{"id":"a","title":"First","type":"t"},
		{"id":"b","title":"B","type":"t"},
		{"id":"a","title":"Second","type":"t"}
	]`))
	require.NoError(t, err)

	assert.Len(t, set.Cards, 3)
	assert.Equal(t, []string{"a", "b"}, set.IDs())
	c, _ := set.Get("a")
	assert.Equal(t, "Second", c.Title)
}

func TestParseCards_EmptyIDNotIndexed(t *testing.T) {
	set, err := ParseCards([]byte(`[{"title":"No id","type":"t"},{"id":"","title":"Blank","type":"t"}]`))
	require.NoError(t, err)
	assert.Len(t, set.Cards, 2)
	assert.Equal(t, 0, set.Len())
}

func TestParseCards_SyntaxErrorHasPosition(t *testing.T) {
	_, err := ParseCards([]byte("[\n  {\"id\": \"a\",}\n]"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.False(t, errors.Is(err, ErrIOFailure))

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 2, le.Line)
	assert.Equal(t, 14, le.Column)
}

func TestParseCards_WrapperWithoutKey(t *testing.T) {
	_, err := ParseCards([]byte(`{"items": []}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), `"cards"`)
}

func TestParseCards_WrapperKeyNotArray(t *testing.T) {
	_, err := ParseCards([]byte(`{"cards": {"id": "a"}}`))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseCards_ScalarDocument(t *testing.T) {
	_, err := ParseCards([]byte(`"cards"`))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseCards_EmptyDocument(t *testing.T) {
	_, err := ParseCards([]byte("  \n"))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseCards_NonObjectRecordNamesRecord(t *testing.T) {
	_, err := ParseCards([]byte(`[{"id":"ok","title":"t","type":"t"}, 5]`))
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrMalformedInput, le.Kind)
	assert.Equal(t, 1, le.Record)
	assert.Equal(t, 1, le.Line)
}

func TestParseCards_MistypedFieldsDoNotStopTheScan(t *testing.T) {
	set, err := ParseCards([]byte(`[{"id":"ok","title":"t","type":"t"},{"id": 12, "title": {"en": "x"}, "type": "topic", "media": 3}]`))
	require.NoError(t, err)
	require.Len(t, set.Cards, 2)

	c, ok := set.Get("12")
	require.True(t, ok, "numeric id is read as its literal text")
	assert.Equal(t, "", c.Title)
	assert.Equal(t, "topic", c.Type)
	assert.True(t, c.Media.IsZero())
	assert.Equal(t, []string{"id", "title", "media"}, c.Mistyped)

	ok0, _ := set.Get("ok")
	assert.Empty(t, ok0.Mistyped)

	out, err := MarshalCards(set)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"id": 12`)
	assert.Contains(t, string(out), `"en": "x"`)
	assert.Contains(t, string(out), `"media": 3`)
}

func TestLoadCards_MissingFileIsIOFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	_, err := LoadCards(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.Contains(t, err.Error(), path)
}

func TestLoadCards_MalformedCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))

	_, err := LoadCards(path)
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Path)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestCards_WrappedRoundTripIsByteIdentical(t *testing.T) {
	input := `{
  "version": 3,
  "cards": [
    {
      "id": "013_stack_exec",
      "title": "Executive Management & Strategy",
      "type": "stack",
      "description": "",
      "frontBackgroundColor": "slategray"
    },
    {
      "id": "10001_media_gantt",
      "title": "Gantt Chart",
      "type": "media",
      "media": [
        "gantt.png"
      ],
      "web": "",
      "video": "https://example.com/v.mp4"
    }
  ],
  "updated": "2024-05-01"
}
`
	set, err := ParseCards([]byte(input))
	require.NoError(t, err)

	out, err := MarshalCards(set)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestCards_BareRoundTripStaysBare(t *testing.T) {
	set, err := ParseCards([]byte(`[{"id":"a","title":"A","type":"t"}]`))
	require.NoError(t, err)

	out, err := MarshalCards(set)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "[\n"))

	again, err := ParseCards(out)
	require.NoError(t, err)
	assert.False(t, again.Shape.Wrapped)
	assert.Equal(t, set.IDs(), again.IDs())
}

func TestCards_NewCardWritesIdentityFirst(t *testing.T) {
	c := NewCard("013_stack_exec", "Exec & Strategy", "stack", "Strategy.")
	require.NoError(t, c.SetField("frontBackgroundColor", "slategray"))

	set := NewCardSet(Wrap(CardsKey))
	set.Add(c)
	out, err := MarshalCards(set)
	require.NoError(t, err)

	want := `{
  "cards": [
    {
      "id": "013_stack_exec",
      "title": "Exec & Strategy",
      "type": "stack",
      "description": "Strategy.",
      "frontBackgroundColor": "slategray"
    }
  ]
}
`
	assert.Equal(t, want, string(out))
}

func TestCard_SetFieldRejectsModelledKeys(t *testing.T) {
	c := NewCard("a", "A", "t", "")
	assert.Error(t, c.SetField("title", "B"))
	assert.NoError(t, c.SetField("frontBackgroundColor", "red"))
	assert.Equal(t, "red", c.StringField("frontBackgroundColor"))
}

func TestCard_ChangedFieldIsRewrittenInPlace(t *testing.T) {
	set, err := ParseCards([]byte(`[{"id":"a","media":"pdf/x.pdf","title":"A","type":"t"}]`))
	require.NoError(t, err)

	c, _ := set.Get("a")
	c.Media.Append("pdf/y.pdf")
	assert.Equal(t, []string{"id", "media", "title", "type"}, c.Fields())

	out, err := MarshalCards(set)
	require.NoError(t, err)
	again, err := ParseCards(out)
	require.NoError(t, err)
	c2, _ := again.Get("a")
	assert.True(t, c2.Media.List)
	assert.Equal(t, []string{"pdf/x.pdf", "pdf/y.pdf"}, c2.Media.Items)
}

func TestAssets_Shapes(t *testing.T) {
	set, err := ParseCards([]byte(`[{"id":"a","title":"A","type":"t","media":"one.png","web":["u1","u2"],"video":null}]`))
	require.NoError(t, err)
	c, _ := set.Get("a")

	assert.False(t, c.Media.List)
	assert.Equal(t, []string{"one.png"}, c.Media.Values())
	assert.True(t, c.Web.List)
	assert.True(t, c.Web.Contains("u2"))
	assert.True(t, c.Video.IsZero())

	out, err := MarshalCards(set)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"media": "one.png"`)
	assert.Contains(t, string(out), `"video": null`)
}

func TestAssets_AppendToBlankString(t *testing.T) {
	a := Assets{Items: []string{""}}
	a.Append("pdf/a.pdf")
	assert.False(t, a.List)
	assert.Equal(t, []string{"pdf/a.pdf"}, a.Items)
}

func TestRelationships_LegacyEndpoints(t *testing.T) {
	set, err := ParseRelationships([]byte(`{"relationships": [
		{"from": "p", "to": "c", "type": "contains", "strength": 0.5},
		{"source": "p", "target": "d", "type": "contains", "value": 1},
		{"source": "", "from": "q", "target": "e", "type": "related"}
	]}`))
	require.NoError(t, err)
	require.Len(t, set.Items, 3)

	assert.Equal(t, "p", set.Items[0].Source)
	assert.Equal(t, "c", set.Items[0].Target)
	assert.True(t, set.Items[0].Legacy())
	assert.Equal(t, 0.5, *set.Items[0].Strength)
	assert.False(t, set.Items[1].Legacy())
	assert.Equal(t, "q", set.Items[2].Source)

	pairs := set.ContainsPairs()
	assert.Len(t, pairs, 2)
	assert.True(t, pairs[Pair{Parent: "p", Child: "c"}])

	out, err := MarshalRelationships(set)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"from": "p"`)
	assert.Contains(t, string(out), `"to": "c"`)
	assert.NotContains(t, string(out), `"target": "c"`)
}

func TestRelationships_NewContainsUsesCanonicalKeys(t *testing.T) {
	set := NewRelationshipSet(Shape{})
	set.Add(NewContains("hub", "child"))

	out, err := MarshalRelationships(set)
	require.NoError(t, err)
	want := `[
  {
    "source": "hub",
    "target": "child",
    "type": "contains",
    "value": 1
  }
]
`
	assert.Equal(t, want, string(out))
}

func TestRelationships_EmptyWrappedArray(t *testing.T) {
	set, err := ParseRelationships([]byte(`{"relationships": []}`))
	require.NoError(t, err)
	assert.Empty(t, set.Items)

	out, err := MarshalRelationships(set)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"relationships\": []\n}\n", string(out))
}

func TestSaveAndLoad_AtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relationships.json")

	set := NewRelationshipSet(Wrap(RelationshipsKey))
	set.Add(NewContains("a", "b"))
	require.NoError(t, SaveRelationships(set, path))

	loaded, err := LoadRelationships(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.Path)
	assert.True(t, loaded.Shape.Wrapped)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, EdgeKey{Source: "a", Target: "b", Type: "contains"}, loaded.Items[0].Key())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTrails_AddSeedAndRoundTrip(t *testing.T) {
	input := `{
  "title": "Pathfinder",
  "trails": [
    {
      "id": "legacy_rescue",
      "label": "Legacy Rescue",
      "seeds": [
        "006_stack_legacy"
      ]
    },
    {
      "id": "safe_innovation"
    }
  ]
}
`
	cfg, err := ParseTrails([]byte(input))
	require.NoError(t, err)

	out, err := MarshalTrails(cfg)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))

	legacy := cfg.Find("legacy_rescue")
	require.NotNil(t, legacy)
	assert.True(t, legacy.AddSeed("013_stack_exec"))
	assert.False(t, legacy.AddSeed("013_stack_exec"))

	safe := cfg.Find("safe_innovation")
	require.NotNil(t, safe)
	assert.True(t, safe.AddSeed("015_stack_visual"))
	assert.Nil(t, cfg.Find("missing"))

	path := filepath.Join(t.TempDir(), "pathfinder_config.json")
	require.NoError(t, SaveTrails(cfg, path))
	again, err := LoadTrails(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"006_stack_legacy", "013_stack_exec"}, again.Find("legacy_rescue").Seeds)
	assert.Equal(t, []string{"015_stack_visual"}, again.Find("safe_innovation").Seeds)
}
