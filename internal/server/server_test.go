package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cards := filepath.Join(dir, "cards.json")
	rels := filepath.Join(dir, "relationships.json")
	require.NoError(t, os.WriteFile(cards, []byte(`[]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "card_manager.html"), []byte("<html>manager</html>"), 0o644))

	s := New(Options{
		Dir:               dir,
		Targets:           map[string]string{"cards": cards, "relationships": rels},
		DebugHTML:         filepath.Join(dir, "raw_data.html"),
		CardsPath:         cards,
		RelationshipsPath: rels,
		Now:               func() time.Time { return time.Date(2026, 3, 1, 9, 30, 5, 0, time.UTC) },
	})
	return s, dir
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSave_Cards(t *testing.T) {
	s, dir := setupServer(t)

	rec := do(s, http.MethodPost, "/save/cards", `{"cards":[{"id":"a","title":"Ü"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp SaveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "cards.json", resp.File)
	assert.True(t, filepath.IsAbs(resp.Path))
	assert.Equal(t, "2026-03-01 09:30:05", resp.Timestamp)

	data, err := os.ReadFile(filepath.Join(dir, "cards.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"cards\": [\n    {\n      \"id\": \"a\",\n      \"title\": \"Ü\"\n    }\n  ]\n}", string(data))

	page, err := os.ReadFile(filepath.Join(dir, "raw_data.html"))
	require.NoError(t, err, "debug page regenerated after save")
	assert.Contains(t, string(page), "&#34;cards&#34;")
}

func TestSave_Relationships(t *testing.T) {
	s, dir := setupServer(t)

	rec := do(s, http.MethodPost, "/save/relationships", `[{"source":"a","target":"b","type":"contains"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := os.Stat(filepath.Join(dir, "relationships.json"))
	assert.NoError(t, err)
}

func TestSave_InvalidJSON(t *testing.T) {
	s, dir := setupServer(t)

	rec := do(s, http.MethodPost, "/save/cards", `{"cards": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	data, err := os.ReadFile(filepath.Join(dir, "cards.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data), "existing file untouched")
}

func TestSave_UnknownTarget(t *testing.T) {
	s, _ := setupServer(t)

	tests := []string{"/save/trails", "/save/cards/extra", "/elsewhere"}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			rec := do(s, http.MethodPost, path, `{}`)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestSave_WriteFailure(t *testing.T) {
	s, dir := setupServer(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	s.opts.Targets["cards"] = filepath.Join(blocker, "cards.json")

	rec := do(s, http.MethodPost, "/save/cards", `[]`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPreflight(t *testing.T) {
	s, _ := setupServer(t)

	rec := do(s, http.MethodOptions, "/save/cards", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestStaticFiles(t *testing.T) {
	s, _ := setupServer(t)

	rec := do(s, http.MethodGet, "/card_manager.html", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "manager")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(s, http.MethodGet, "/nope.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
