package discovery

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/mediascan/scraper"
)

// DefaultMaxCandidates bounds the candidate set of one landing page.
const DefaultMaxCandidates = 10

// ErrNoCandidates is returned when a landing page yields no usable links.
var ErrNoCandidates = errors.New("no candidate links found")

// DiscoverLinks parses a landing page, collects the anchors inside the
// containers named by the source's landing locator and returns the accepted
// absolute URLs in order of first discovery, capped at max.
func DiscoverLinks(content, baseURL string, cfg scraper.SourceConfig, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse landing page: %w", err)
	}

	links := CollectLinks(LandingHrefs(doc, cfg.Landing), baseURL, cfg, max)
	if len(links) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoCandidates, baseURL)
	}
	return links, nil
}

// LandingHrefs returns the raw href of every anchor inside the landing
// containers, in document order. Containers are located by tag+class, then
// tag+id, then tag alone.
func LandingHrefs(doc *goquery.Document, loc scraper.Locator) []string {
	var hrefs []string
	FindAll(doc.Selection, loc).Each(func(_ int, container *goquery.Selection) {
		container.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			hrefs = append(hrefs, href)
		})
	})
	return hrefs
}

// FindAll returns every element matching the locator's tag together with
// its class or, failing that, its id.
func FindAll(root *goquery.Selection, loc scraper.Locator) *goquery.Selection {
	sel := root.Find(loc.Tag)
	switch {
	case loc.Class != "":
		return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return MatchesClass(s, loc.Class)
		})
	case loc.ID != "":
		return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			return id == loc.ID
		})
	default:
		return sel
	}
}

// MatchesClass reports whether the element carries class. A class value
// containing spaces must match the whole attribute.
func MatchesClass(s *goquery.Selection, class string) bool {
	if strings.ContainsAny(class, " \t") {
		attr, _ := s.Attr("class")
		return strings.Join(strings.Fields(attr), " ") == strings.Join(strings.Fields(class), " ")
	}
	return s.HasClass(class)
}

// CollectLinks resolves hrefs against baseURL, filters them with
// AcceptLink, drops duplicates and stops once max links are collected.
func CollectLinks(hrefs []string, baseURL string, cfg scraper.SourceConfig, max int) []string {
	if max <= 0 {
		max = DefaultMaxCandidates
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	for _, href := range hrefs {
		resolved, ok := resolve(base, href)
		if !ok || seen[resolved] {
			continue
		}
		if !AcceptLink(resolved, cfg) {
			continue
		}
		seen[resolved] = true
		links = append(links, resolved)
		if len(links) >= max {
			break
		}
	}
	return links
}

// AcceptLink applies the filter rules in order: dismiss substrings reject,
// a digit minimum decides on its own, generic sources accept everything,
// and otherwise the URL must contain a target prefix or end in ".html".
func AcceptLink(link string, cfg scraper.SourceConfig) bool {
	for _, d := range cfg.Dismiss {
		if d != "" && strings.Contains(link, d) {
			return false
		}
	}

	if cfg.MinPathDigits > 0 {
		return countDigits(pathPart(link)) >= cfg.MinPathDigits
	}

	if cfg.GenericLinks {
		return true
	}

	for _, prefix := range cfg.TargetPrefixes {
		if strings.Contains(link, prefix) {
			return true
		}
	}
	return strings.HasSuffix(link, ".html")
}

// resolve joins href onto base. Only http and https results are kept.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return abs.String(), true
}

// pathPart strips scheme and host so that digits in a hostname never count.
func pathPart(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	s := u.EscapedPath()
	if u.RawQuery != "" {
		s += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		s += "#" + u.Fragment
	}
	return s
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
