package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <link>https://news.example.com/</link>
    <description>Top stories</description>
    <item>
      <title>First</title>
      <link>https://news.example.com/news/first</link>
    </item>
    <item>
      <title>Live</title>
      <link>https://news.example.com/news/live#now</link>
    </item>
    <item>
      <title>Second</title>
      <link>/world/second</link>
    </item>
    <item>
      <title>About</title>
      <link>https://news.example.com/about</link>
    </item>
    <item>
      <title>First again</title>
      <link>https://news.example.com/news/first</link>
    </item>
  </channel>
</rss>`

const testAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom</title>
  <id>urn:example</id>
  <updated>2024-05-01T00:00:00Z</updated>
  <entry>
    <title>Entry</title>
    <id>urn:example:1</id>
    <updated>2024-05-01T00:00:00Z</updated>
    <link href="https://news.example.com/politics/entry"/>
  </entry>
</feed>`

// TestDiscoverFeedLinks_AppliesFilterRules verifies that feed items go
// through the same filter, dedupe and resolution as landing-page anchors
func TestDiscoverFeedLinks_AppliesFilterRules(t *testing.T) {
	links, err := DiscoverFeedLinks(testRSS, testBase, testConfig(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://news.example.com/news/first",
		"https://news.example.com/world/second",
	}, links)
}

// TestDiscoverFeedLinks_Atom verifies Atom feeds are accepted
func TestDiscoverFeedLinks_Atom(t *testing.T) {
	links, err := DiscoverFeedLinks(testAtom, testBase, testConfig(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://news.example.com/politics/entry"}, links)
}

// TestDiscoverFeedLinks_Cap verifies the candidate cap
func TestDiscoverFeedLinks_Cap(t *testing.T) {
	links, err := DiscoverFeedLinks(testRSS, testBase, testConfig(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://news.example.com/news/first"}, links)
}

// TestDiscoverFeedLinks_NoCandidates verifies an empty result is a
// source-level failure
func TestDiscoverFeedLinks_NoCandidates(t *testing.T) {
	cfg := testConfig()
	cfg.TargetPrefixes = []string{"/sport/"}

	_, err := DiscoverFeedLinks(testRSS, testBase, cfg, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCandidates))
}

// TestDiscoverFeedLinks_InvalidContent verifies parse errors are returned
func TestDiscoverFeedLinks_InvalidContent(t *testing.T) {
	_, err := DiscoverFeedLinks("not a feed", testBase, testConfig(), 10)

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCandidates))
}

// TestFeedHrefs_FallsBackToLinks verifies items without Link use the first
// entry of Links
func TestFeedHrefs_FallsBackToLinks(t *testing.T) {
	feed := &gofeed.Feed{
		Items: []*gofeed.Item{
			{Link: "https://a.example.com/1"},
			nil,
			{Links: []string{"https://a.example.com/2", "https://a.example.com/3"}},
			{Title: "no link"},
		},
	}

	assert.Equal(t, []string{"https://a.example.com/1", "https://a.example.com/2"}, FeedHrefs(feed))
}

// TestFeedReader_Hrefs verifies fetching a feed over HTTP with the
// configured user agent
func TestFeedReader_Hrefs(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testRSS))
	}))
	defer server.Close()

	reader := NewFeedReader(5*time.Second, "mediascan-test")
	hrefs, err := reader.Hrefs(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "mediascan-test", gotAgent)
	assert.Len(t, hrefs, 5)
	assert.Equal(t, "https://news.example.com/news/first", hrefs[0])
}

// TestFeedReader_HTTPError verifies non-200 responses fail
func TestFeedReader_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFeedReader(5*time.Second, "").Hrefs(context.Background(), server.URL)

	assert.Error(t, err)
}
