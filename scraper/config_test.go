package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: a minimal valid tag-tree config
func tagTreeConfig() SourceConfig {
	return SourceConfig{
		Key:     "https://news.example.com/",
		Landing: Locator{Tag: "main"},
		Title:   &Locator{Tag: "h1"},
		Article: &Locator{Tag: "article"},
	}.Normalize()
}

// TestNormalize_AppliesDefaults verifies default prefixes, dismiss list,
// strategy and name
func TestNormalize_AppliesDefaults(t *testing.T) {
	cfg := SourceConfig{
		Key:     "https://news.example.com/",
		Landing: Locator{Tag: "main"},
		Title:   &Locator{Tag: "h1"},
		Article: &Locator{Tag: "article"},
	}.Normalize()

	assert.Equal(t, StrategyTagTree, cfg.Strategy)
	assert.Equal(t, DefaultTargetPrefixes, cfg.TargetPrefixes)
	assert.Equal(t, []string{"#"}, cfg.Dismiss)
	assert.Equal(t, "https://news.example.com/", cfg.Name)
}

// TestNormalize_InfersMetadataStrategy verifies that a config with only a
// metadata locator becomes an embedded-metadata config
func TestNormalize_InfersMetadataStrategy(t *testing.T) {
	cfg := SourceConfig{
		Key:      "https://news.example.com/",
		Landing:  Locator{Tag: "main"},
		Metadata: &MetadataLocator{Tag: "script", TitleKey: "headline", SummaryKey: "description", BodyKey: "articleBody"},
	}.Normalize()

	assert.Equal(t, StrategyEmbeddedMetadata, cfg.Strategy)
	assert.NoError(t, cfg.Validate())
}

// TestNormalize_KeepsExplicitEmptyLists verifies that an explicit empty
// dismiss list is not replaced by the default
func TestNormalize_KeepsExplicitEmptyLists(t *testing.T) {
	cfg := tagTreeConfig()
	cfg.Dismiss = []string{}

	assert.Empty(t, cfg.Normalize().Dismiss)
}

// TestWithMedia_DoesNotMutateOriginal verifies run-local binding
func TestWithMedia_DoesNotMutateOriginal(t *testing.T) {
	cfg := tagTreeConfig()

	bound := cfg.WithMedia(42, true)

	assert.Equal(t, int64(42), bound.SourceID)
	assert.True(t, bound.Active)
	assert.Zero(t, cfg.SourceID)
	assert.False(t, cfg.Active)
}

// TestValidate verifies load-time rejection rules
func TestValidate(t *testing.T) {
	metadata := &MetadataLocator{Tag: "script", Type: "application/ld+json", TitleKey: "headline", SummaryKey: "description", BodyKey: "articleBody"}

	tests := []struct {
		name    string
		mutate  func(c *SourceConfig)
		wantErr bool
	}{
		{
			name:   "valid tag tree",
			mutate: func(c *SourceConfig) {},
		},
		{
			name: "both strategies declared",
			mutate: func(c *SourceConfig) {
				c.Metadata = metadata
			},
			wantErr: true,
		},
		{
			name: "tag tree without article locator",
			mutate: func(c *SourceConfig) {
				c.Article = nil
			},
			wantErr: true,
		},
		{
			name: "tag tree without title locator",
			mutate: func(c *SourceConfig) {
				c.Title = nil
			},
			wantErr: true,
		},
		{
			name: "embedded metadata without metadata locator",
			mutate: func(c *SourceConfig) {
				c.Title, c.Article = nil, nil
				c.Strategy = StrategyEmbeddedMetadata
			},
			wantErr: true,
		},
		{
			name: "embedded metadata missing body key",
			mutate: func(c *SourceConfig) {
				c.Title, c.Article = nil, nil
				c.Strategy = StrategyEmbeddedMetadata
				c.Metadata = &MetadataLocator{Tag: "script", TitleKey: "headline", SummaryKey: "description"}
			},
			wantErr: true,
		},
		{
			name: "unknown strategy",
			mutate: func(c *SourceConfig) {
				c.Strategy = "readability"
			},
			wantErr: true,
		},
		{
			name: "relative key",
			mutate: func(c *SourceConfig) {
				c.Key = "/news"
			},
			wantErr: true,
		},
		{
			name: "negative digit minimum",
			mutate: func(c *SourceConfig) {
				c.MinPathDigits = -1
			},
			wantErr: true,
		},
		{
			name: "missing landing tag",
			mutate: func(c *SourceConfig) {
				c.Landing = Locator{}
			},
			wantErr: true,
		},
		{
			name: "feed source without landing tag",
			mutate: func(c *SourceConfig) {
				c.Landing = Locator{}
				c.FeedURL = "https://news.example.com/rss.xml"
			},
		},
		{
			name: "malformed remove selector",
			mutate: func(c *SourceConfig) {
				c.Article.Remove = []string{"div.ad", "div["}
			},
			wantErr: true,
		},
		{
			name: "malformed harvest selector",
			mutate: func(c *SourceConfig) {
				c.Article.Harvest = []string{"p["}
			},
			wantErr: true,
		},
		{
			name: "blank remove entry",
			mutate: func(c *SourceConfig) {
				c.Landing.Remove = []string{"  "}
			},
			wantErr: true,
		},
		{
			name: "compound remove and harvest selectors",
			mutate: func(c *SourceConfig) {
				c.Article.Remove = []string{"div.related > ul", "aside#promo"}
				c.Article.Harvest = []string{"p", "li", "blockquote"}
			},
		},
		{
			name: "find all with text only",
			mutate: func(c *SourceConfig) {
				c.Article = &Locator{Tag: "div", Class: "body", FindAll: true, TextOnly: true}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tagTreeConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig), "should wrap ErrInvalidConfig")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestHarvestTags verifies the default child-tag whitelist
func TestHarvestTags(t *testing.T) {
	assert.Equal(t, []string{"h2", "h3", "h4", "p"}, Locator{Tag: "div"}.HarvestTags())
	assert.Equal(t, []string{"p", "li"}, Locator{Tag: "div", Harvest: []string{"p", "li"}}.HarvestTags())
}

// TestLocatorString verifies locator rendering for logs
func TestLocatorString(t *testing.T) {
	assert.Equal(t, "div.body", Locator{Tag: "div", Class: "body"}.String())
	assert.Equal(t, "div#Content", Locator{Tag: "div", ID: "Content"}.String())
	assert.Equal(t, "main article", Locator{Tag: "main", Nested: "article"}.String())
}

// TestRosterValidate_RejectsDuplicateKeys verifies duplicate detection
func TestRosterValidate_RejectsDuplicateKeys(t *testing.T) {
	roster := Roster{tagTreeConfig(), tagTreeConfig()}

	err := roster.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

// TestRosterLookup verifies lookup by key and by name
func TestRosterLookup(t *testing.T) {
	roster := DefaultRoster()

	byKey, ok := roster.Lookup("https://edition.cnn.com/")
	require.True(t, ok)
	assert.Equal(t, "CNN", byKey.Name)

	byName, ok := roster.Lookup("bbc")
	require.True(t, ok)
	assert.Equal(t, "https://www.bbc.com/", byName.Key)

	_, ok = roster.Lookup("https://unknown.example.com/")
	assert.False(t, ok)
}

// TestDefaultRoster_IsValid verifies every built-in source passes validation
func TestDefaultRoster_IsValid(t *testing.T) {
	roster := DefaultRoster()

	require.Len(t, roster, 23)
	require.NoError(t, roster.Validate())

	elpais, ok := roster.Lookup("https://english.elpais.com/")
	require.True(t, ok)
	assert.Equal(t, StrategyEmbeddedMetadata, elpais.Strategy)

	cnn, _ := roster.Lookup("https://edition.cnn.com/")
	assert.Equal(t, 8, cnn.MinPathDigits)

	globalTimes, _ := roster.Lookup("https://www.globaltimes.cn/index.html")
	assert.Equal(t, []string{"/page/"}, globalTimes.TargetPrefixes)
	assert.True(t, globalTimes.Article.TextOnly)
}
