package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/mediascan/discovery"
	"github.com/pevans/mediascan/scraper"
)

// TagTree extracts an article by walking the DOM with a title locator and
// an article locator.
type TagTree struct {
	Title   scraper.Locator
	Article scraper.Locator
}

// Extract prepares the page, locates title and body fragments, assembles
// them and applies the length gate.
func (t *TagTree) Extract(content, pageURL string) (*Article, error) {
	doc, err := parse(content, pageURL)
	if err != nil {
		return nil, err
	}
	Prepare(doc, t.Article.Remove)

	title, err := FindTitle(doc.Selection, t.Title)
	if err != nil {
		return nil, &ExtractionError{URL: pageURL, Locator: "title " + t.Title.String(), Err: err}
	}

	fragments, err := Fragments(doc.Selection, t.Article)
	if err != nil {
		return nil, &ExtractionError{URL: pageURL, Locator: "article " + t.Article.String(), Err: err}
	}

	return newArticle(title, AssembleBody(fragments))
}

// FindTitle returns the whitespace-normalized text of the title element.
// Lookup order: tag+class then nested, tag+class, tag then nested, tag.
func FindTitle(root *goquery.Selection, loc scraper.Locator) (string, error) {
	var sel *goquery.Selection
	switch {
	case loc.Class != "":
		sel = first(root, scraper.Locator{Tag: loc.Tag, Class: loc.Class})
	default:
		sel = first(root, scraper.Locator{Tag: loc.Tag})
	}
	if sel.Length() > 0 && loc.Nested != "" {
		sel = sel.Find(loc.Nested).First()
	}
	if sel.Length() == 0 {
		return "", ErrElementNotFound
	}

	title := strings.Join(strings.Fields(sel.Text()), " ")
	if title == "" {
		return "", ErrElementNotFound
	}
	return title, nil
}

// Fragments returns the raw text fragments of the article body: the
// direct text children of every harvested element, or the container's
// own trimmed text when the locator is text-only.
func Fragments(root *goquery.Selection, loc scraper.Locator) ([]string, error) {
	harvest := strings.Join(loc.HarvestTags(), ", ")

	if loc.FindAll {
		matches := discovery.FindAll(root, loc)
		if matches.Length() == 0 {
			return nil, ErrElementNotFound
		}
		var fragments []string
		matches.Each(func(_ int, m *goquery.Selection) {
			fragments = append(fragments, directText(m.Find(harvest))...)
		})
		return fragments, nil
	}

	container := articleContainer(root, loc)
	if container.Length() == 0 {
		return nil, ErrElementNotFound
	}

	if loc.TextOnly {
		return []string{strings.TrimSpace(container.Text())}, nil
	}

	var elems *goquery.Selection
	if loc.Recursive {
		elems = container.Find(harvest)
	} else {
		elems = container.Children().Filter(harvest)
	}
	return directText(elems), nil
}

// articleContainer locates the article container by tag+class, tag+id,
// tag then nested, or tag.
func articleContainer(root *goquery.Selection, loc scraper.Locator) *goquery.Selection {
	switch {
	case loc.Class != "":
		return first(root, scraper.Locator{Tag: loc.Tag, Class: loc.Class})
	case loc.ID != "":
		return first(root, scraper.Locator{Tag: loc.Tag, ID: loc.ID})
	case loc.Nested != "":
		return first(root, scraper.Locator{Tag: loc.Tag}).Find(loc.Nested).First()
	default:
		return first(root, scraper.Locator{Tag: loc.Tag})
	}
}

func first(root *goquery.Selection, loc scraper.Locator) *goquery.Selection {
	return discovery.FindAll(root, loc).First()
}
