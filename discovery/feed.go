package discovery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/mediascan/scraper"
)

// FeedReader pulls candidate links out of RSS and Atom feeds. The gofeed
// library detects and normalizes both formats.
type FeedReader struct {
	parser *gofeed.Parser
}

// NewFeedReader creates a feed reader whose requests time out after
// timeout and carry userAgent.
func NewFeedReader(timeout time.Duration, userAgent string) *FeedReader {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &FeedReader{parser: parser}
}

// Hrefs fetches a feed and returns the link of every item in feed order.
func (r *FeedReader) Hrefs(ctx context.Context, feedURL string) ([]string, error) {
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return FeedHrefs(feed), nil
}

// FeedHrefs returns the item links of a parsed feed, skipping items
// without one.
func FeedHrefs(feed *gofeed.Feed) []string {
	hrefs := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if item.Link != "" {
			hrefs = append(hrefs, item.Link)
			continue
		}
		if len(item.Links) > 0 {
			hrefs = append(hrefs, item.Links[0])
		}
	}
	return hrefs
}

// DiscoverFeedLinks parses raw feed content and applies the same filter,
// cap and deduplication rules as landing-page discovery.
func DiscoverFeedLinks(content, baseURL string, cfg scraper.SourceConfig, max int) ([]string, error) {
	feed, err := gofeed.NewParser().ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	links := CollectLinks(FeedHrefs(feed), baseURL, cfg, max)
	if len(links) == 0 {
		return nil, fmt.Errorf("%w in feed for %s", ErrNoCandidates, baseURL)
	}
	return links, nil
}
