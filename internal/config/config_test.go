package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"DataDir", cfg.DataDir, "."},
		{"CardsFile", cfg.CardsFile, "cards.json"},
		{"RelationshipsFile", cfg.RelationshipsFile, "relationships.json"},
		{"TrailsFile", cfg.TrailsFile, "pathfinder_config.json"},
		{"RulesFile", cfg.RulesFile, ""},
		{"LinkThreshold", cfg.LinkThreshold, 0.0},
		{"OrphanReport", cfg.OrphanReport, "orphan_insight_report.txt"},
		{"TreeReport", cfg.TreeReport, "tree_view_report.txt"},
		{"DebugHTML", cfg.DebugHTML, "raw_data.html"},
		{"MappingFile", cfg.MappingFile, "pdf_mapping.json"},
		{"ServerAddr", cfg.Server.Addr, ":8002"},
		{"LogLevel", cfg.Log.Level, "info"},
		{"LogFormat", cfg.Log.Format, "console"},
		{"Neo4jURI", cfg.Neo4j.URI, "bolt://localhost:7687"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "data_dir",
			envKey: "CARDGRAPH_DATA_DIR",
			envVal: "/srv/skillsweb",
			field:  func(c Config) any { return c.DataDir },
			want:   "/srv/skillsweb",
		},
		{
			name:   "link_threshold",
			envKey: "CARDGRAPH_LINK_THRESHOLD",
			envVal: "0.55",
			field:  func(c Config) any { return c.LinkThreshold },
			want:   0.55,
		},
		{
			name:   "server.addr",
			envKey: "CARDGRAPH_SERVER_ADDR",
			envVal: "127.0.0.1:9000",
			field:  func(c Config) any { return c.Server.Addr },
			want:   "127.0.0.1:9000",
		},
		{
			name:   "log.format",
			envKey: "CARDGRAPH_LOG_FORMAT",
			envVal: "json",
			field:  func(c Config) any { return c.Log.Format },
			want:   "json",
		},
		{
			name:   "neo4j.password",
			envKey: "CARDGRAPH_NEO4J_PASSWORD",
			envVal: "secret",
			field:  func(c Config) any { return c.Neo4j.Password },
			want:   "secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			BindEnv()
			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.field(cfg))
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	resetViper()
	path := filepath.Join(t.TempDir(), ".cardgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /data\nserver:\n  addr: \":9999\"\nlog:\n  level: debug\n"), 0o644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "cards.json", cfg.CardsFile, "unset keys keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key string
		val any
	}{
		{"link_threshold", 1.5},
		{"log.format", "xml"},
		{"cards_file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetViper()
			viper.Set(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	cfg := Config{DataDir: "/srv/web", CardsFile: "cards.json", RelationshipsFile: "/abs/rels.json"}
	assert.Equal(t, filepath.Join("/srv/web", "cards.json"), cfg.CardsPath())
	assert.Equal(t, "/abs/rels.json", cfg.RelationshipsPath())
	assert.Equal(t, "", cfg.Path(""))
}

func TestDiscoverDataDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cards.json"), []byte("[]"), 0o644))

	t.Chdir(nested)

	got := DiscoverDataDir(".", "cards.json", false)
	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)

	assert.Equal(t, "/explicit", DiscoverDataDir("/explicit", "cards.json", true))
	assert.Equal(t, ".", DiscoverDataDir(".", "missing.json", false))
}
