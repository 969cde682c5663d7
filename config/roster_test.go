package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pevans/mediascan/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const rosterYAML = `sources:
  - key: "https://news.example.com/"
    name: "Example"
    landing: {tag: "main"}
    title: {tag: "h1"}
    article: {tag: "div", class: "story"}
  - key: "https://meta.example.com/"
    name: "Meta"
    landing: {tag: "main"}
    metadata:
      tag: "script"
      type: "application/ld+json"
      title_key: "headline"
      summary_key: "description"
      body_key: "articleBody"
`

// TestLoadRoster_Default verifies the built-in roster loads and validates
func TestLoadRoster_Default(t *testing.T) {
	roster, err := LoadRoster("")
	require.NoError(t, err)
	assert.Len(t, roster, len(scraper.DefaultRoster()))
}

// TestLoadRoster_File verifies entries are normalized with defaults
func TestLoadRoster_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rosterYAML), 0o600))

	roster, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	assert.Equal(t, scraper.StrategyTagTree, roster[0].Strategy)
	assert.Equal(t, scraper.DefaultTargetPrefixes, roster[0].TargetPrefixes)
	assert.Equal(t, scraper.StrategyEmbeddedMetadata, roster[1].Strategy)
}

// TestParseRoster_Invalid verifies one bad entry rejects the roster and
// the error names it
func TestParseRoster_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "sources: []", "no sources"},
		{"missing article locator", `sources:
  - key: "https://bad.example.com/"
    landing: {tag: "main"}
    title: {tag: "h1"}
`, "https://bad.example.com/"},
		{"both strategies", `sources:
  - key: "https://both.example.com/"
    landing: {tag: "main"}
    title: {tag: "h1"}
    article: {tag: "div"}
    metadata: {tag: "script", title_key: "a", summary_key: "b", body_key: "c"}
`, "https://both.example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoster([]byte(tt.yaml))
			require.ErrorIs(t, err, scraper.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestLoadRoster_MissingFile verifies read errors are reported
func TestLoadRoster_MissingFile(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read roster file")
}

// TestConfigAPI verifies the config and roster endpoints and that secrets
// are not exposed
func TestConfigAPI(t *testing.T) {
	cfg := Default()
	cfg.AI.APIKey = "sk-secret"
	roster, err := ParseRoster([]byte(rosterYAML))
	require.NoError(t, err)

	router := gin.New()
	NewConfigAPIServer(cfg, roster).Register(router.Group("/api/v1"))

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/v1/meta/config")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-secret")

	w = get("/api/v1/meta/roster")
	require.Equal(t, http.StatusOK, w.Code)
	var resp RosterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	w = get("/api/v1/meta/roster/meta")
	require.Equal(t, http.StatusOK, w.Code)
	var source scraper.SourceConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &source))
	assert.Equal(t, "https://meta.example.com/", source.Key)

	w = get("/api/v1/meta/roster/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
