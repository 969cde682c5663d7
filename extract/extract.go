// Package extract turns a fetched article page into clean article text
// using one of the two closed extraction strategies.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/mediascan/scraper"
)

// Article is the title and assembled body pulled out of one page. Length
// is the character count of Text.
type Article struct {
	Title  string
	Body   string
	Text   string
	Length int
}

// Extractor pulls an article out of raw page content.
type Extractor interface {
	Extract(content, pageURL string) (*Article, error)
}

// ForConfig returns the extractor selected by the source's strategy.
func ForConfig(cfg scraper.SourceConfig) (Extractor, error) {
	switch cfg.Strategy {
	case scraper.StrategyTagTree:
		if cfg.Title == nil || cfg.Article == nil {
			return nil, fmt.Errorf("%w: %s: missing tag-tree locators", scraper.ErrInvalidConfig, cfg.Key)
		}
		return &TagTree{Title: *cfg.Title, Article: *cfg.Article}, nil
	case scraper.StrategyEmbeddedMetadata:
		if cfg.Metadata == nil {
			return nil, fmt.Errorf("%w: %s: missing metadata locator", scraper.ErrInvalidConfig, cfg.Key)
		}
		return &Metadata{Locator: *cfg.Metadata}, nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown strategy %q", scraper.ErrInvalidConfig, cfg.Key, cfg.Strategy)
	}
}

func parse(content, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &ExtractionError{URL: pageURL, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}
	return doc, nil
}
