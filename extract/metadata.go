package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/mediascan/scraper"
)

// Metadata extracts an article from an embedded structured-data block such
// as <script type="application/ld+json">.
type Metadata struct {
	Locator scraper.MetadataLocator

	// OnSkip, when set, is called for every block that fails to parse.
	OnSkip func(err error)
}

// Extract scans the matching blocks in document order and assembles the
// first one holding all three configured keys.
func (m *Metadata) Extract(content, pageURL string) (*Article, error) {
	doc, err := parse(content, pageURL)
	if err != nil {
		return nil, err
	}

	var (
		article *Article
		gateErr error
	)
	doc.Find(m.selector()).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		title, summary, body, ok, err := m.fields(blockText(block))
		if err != nil {
			if m.OnSkip != nil {
				m.OnSkip(err)
			}
			return true
		}
		if !ok {
			return true
		}
		article, gateErr = newArticle(title, summary+" "+body)
		return false
	})

	if gateErr != nil {
		return nil, gateErr
	}
	if article == nil {
		return nil, &ExtractionError{URL: pageURL, Locator: m.selector(), Err: ErrNoArticle}
	}
	return article, nil
}

func (m *Metadata) selector() string {
	if m.Locator.Type == "" {
		return m.Locator.Tag
	}
	return fmt.Sprintf("%s[type=%q]", m.Locator.Tag, m.Locator.Type)
}

// fields decodes one block. ok is false when the block parses but lacks a
// key or holds a non-string value.
func (m *Metadata) fields(raw string) (title, summary, body string, ok bool, err error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return "", "", "", false, fmt.Errorf("failed to decode metadata block: %w", err)
	}

	get := func(key string) (string, bool) {
		s, ok := obj[key].(string)
		return s, ok
	}

	var okT, okS, okB bool
	title, okT = get(m.Locator.TitleKey)
	summary, okS = get(m.Locator.SummaryKey)
	body, okB = get(m.Locator.BodyKey)
	return title, summary, body, okT && okS && okB, nil
}

// blockText returns the raw text of a script-like element.
func blockText(block *goquery.Selection) string {
	return strings.TrimSpace(block.Text())
}
