package extract

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/mediascan/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: parse and prepare a page
func preparedDoc(t *testing.T, page string, extra ...string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	Prepare(doc, extra)
	return doc
}

// Test helper: n paragraphs of roughly 100 characters each
func paragraphs(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "<p>Paragraph %d reports on the negotiations that continued late into the night in the capital city.</p>", i)
	}
	return sb.String()
}

// TestPrepare_RemovesAndUnwraps verifies removal, comment stripping and
// inline unwrapping
func TestPrepare_RemovesAndUnwraps(t *testing.T) {
	doc := preparedDoc(t, `<html><head><title>x</title></head><body>
		<nav>menu</nav>
		<p>Hello <b>bold</b> <a href="/x">link</a><!-- hidden --><script>var a;</script></p>
		<figure><img src="a.png"><figcaption>caption</figcaption></figure>
	</body></html>`)

	assert.Zero(t, doc.Find("nav, script, figure, img, b, a, head").Length())
	p := doc.Find("p")
	assert.Equal(t, "Hello bold link", strings.Join(strings.Fields(p.Text()), " "))
	html, err := p.Html()
	require.NoError(t, err)
	assert.NotContains(t, html, "hidden")
}

// TestPrepare_ExtraRemoveRunsBeforeUnwrap verifies that per-source removal
// tags win over the unwrap set
func TestPrepare_ExtraRemoveRunsBeforeUnwrap(t *testing.T) {
	doc := preparedDoc(t, `<p>Story text <strong>READ MORE</strong></p>`, "strong")

	assert.Equal(t, "Story text", strings.TrimSpace(doc.Find("p").Text()))
}

// TestPrepare_BadExtraKeepsFixedRemoval verifies a malformed per-source
// entry does not stop the fixed removal set or the other extras
func TestPrepare_BadExtraKeepsFixedRemoval(t *testing.T) {
	doc := preparedDoc(t, `<body><nav>menu</nav><script>x()</script>
		<div class="promo">Subscribe</div><p>Story</p></body>`, "div[", "div.promo")

	assert.Zero(t, doc.Find("nav, script, div").Length())
	assert.Equal(t, "Story", strings.TrimSpace(doc.Find("p").Text()))
}

// TestPrepare_NestedUnwrap verifies nested inline tags are fully promoted
func TestPrepare_NestedUnwrap(t *testing.T) {
	doc := preparedDoc(t, `<p><span>outer <span>inner <em>deep</em></span></span></p>`)

	assert.Equal(t, []string{"outer ", "inner ", "deep"}, directText(doc.Find("p")))
}

// TestStripPage verifies the dump helper drops removal tags
func TestStripPage(t *testing.T) {
	out, err := StripPage(`<html><body><script>x()</script><main><p>Kept</p></main></body></html>`)
	require.NoError(t, err)

	assert.Contains(t, out, "<p>Kept</p>")
	assert.NotContains(t, out, "script")
}

// TestFindTitle verifies the title lookup priority
func TestFindTitle(t *testing.T) {
	doc := preparedDoc(t, `<html><body>
		<header><h1>Header   Title</h1></header>
		<div class="bloc_1"><h1>Nested In Class</h1></div>
		<h1 class="headline">Class <span>Title</span></h1>
		<main><h1>Main Title</h1></main>
	</body></html>`)

	tests := []struct {
		name string
		loc  scraper.Locator
		want string
	}{
		{"class and nested", scraper.Locator{Tag: "div", Class: "bloc_1", Nested: "h1"}, "Nested In Class"},
		{"class", scraper.Locator{Tag: "h1", Class: "headline"}, "Class Title"},
		{"nested", scraper.Locator{Tag: "main", Nested: "h1"}, "Main Title"},
		{"bare tag", scraper.Locator{Tag: "h1"}, "Header Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, err := FindTitle(doc.Selection, tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, title)
		})
	}
}

// TestFindTitle_Missing verifies the error for an absent title
func TestFindTitle_Missing(t *testing.T) {
	doc := preparedDoc(t, `<html><body><h2>Not a title</h2></body></html>`)

	_, err := FindTitle(doc.Selection, scraper.Locator{Tag: "h1"})
	assert.ErrorIs(t, err, ErrElementNotFound)

	_, err = FindTitle(doc.Selection, scraper.Locator{Tag: "h2", Class: "missing"})
	assert.ErrorIs(t, err, ErrElementNotFound)
}

// TestFragments_TextOnly verifies a text-only locator yields exactly one
// fragment equal to the container's trimmed text
func TestFragments_TextOnly(t *testing.T) {
	doc := preparedDoc(t, `<div class="article_right">
		First line of text.<br>Second line <p>inside p</p>
	</div>`)

	fragments, err := Fragments(doc.Selection, scraper.Locator{Tag: "div", Class: "article_right", TextOnly: true})
	require.NoError(t, err)

	require.Len(t, fragments, 1)
	assert.Equal(t, strings.TrimSpace(doc.Find("div.article_right").Text()), fragments[0])
	assert.True(t, strings.HasPrefix(fragments[0], "First line of text."))
}

// TestFragments_DirectChildrenOnly verifies non-recursive harvesting
func TestFragments_DirectChildrenOnly(t *testing.T) {
	doc := preparedDoc(t, `<article>
		<p>one</p>
		<div><p>nested</p></div>
		<h2>head</h2>
		<h5>ignored</h5>
	</article>`)

	fragments, err := Fragments(doc.Selection, scraper.Locator{Tag: "article"})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "head"}, fragments)
}

// TestFragments_Recursive verifies descendant harvesting in document order
func TestFragments_Recursive(t *testing.T) {
	doc := preparedDoc(t, `<article>
		<p>one</p>
		<div><p>nested</p></div>
		<h2>head</h2>
	</article>`)

	fragments, err := Fragments(doc.Selection, scraper.Locator{Tag: "article", Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "nested", "head"}, fragments)
}

// TestFragments_HarvestOverride verifies a custom child-tag whitelist
func TestFragments_HarvestOverride(t *testing.T) {
	doc := preparedDoc(t, `<section>
		<p>para</p>
		<ul><li>item one</li><li>item two</li></ul>
		<h2>not harvested</h2>
	</section>`)

	fragments, err := Fragments(doc.Selection, scraper.Locator{Tag: "section", Recursive: true, Harvest: []string{"p", "li"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"para", "item one", "item two"}, fragments)
}

// TestFragments_DirectTextNodes verifies that each text node of a harvested
// element is its own fragment after unwrapping
func TestFragments_DirectTextNodes(t *testing.T) {
	doc := preparedDoc(t, `<article><p>Hello <b>world</b>!</p></article>`)

	fragments, err := Fragments(doc.Selection, scraper.Locator{Tag: "article"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello ", "world", "!"}, fragments)
	assert.Equal(t, "Hello world !", AssembleBody(fragments))
}

// TestFragments_FindAll verifies every tag+class match is harvested
func TestFragments_FindAll(t *testing.T) {
	doc := preparedDoc(t, `<main>
		<div class="chunk"><div><p>first</p></div></div>
		<div class="other"><p>skipped</p></div>
		<div class="chunk"><h3>second</h3></div>
	</main>`)

	fragments, err := Fragments(doc.Selection, scraper.Locator{Tag: "div", Class: "chunk", FindAll: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, fragments)
}

// TestFragments_ContainerPriority verifies class, id and nested lookup
func TestFragments_ContainerPriority(t *testing.T) {
	doc := preparedDoc(t, `<html><body>
		<div id="Content"><p>by id</p></div>
		<div class="body"><p>by class</p></div>
		<main><article><p>nested</p></article></main>
	</body></html>`)

	byClass, err := Fragments(doc.Selection, scraper.Locator{Tag: "div", Class: "body", ID: "Content"})
	require.NoError(t, err)
	assert.Equal(t, []string{"by class"}, byClass)

	byID, err := Fragments(doc.Selection, scraper.Locator{Tag: "div", ID: "Content"})
	require.NoError(t, err)
	assert.Equal(t, []string{"by id"}, byID)

	nested, err := Fragments(doc.Selection, scraper.Locator{Tag: "main", Nested: "article"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nested"}, nested)
}

// TestFragments_Missing verifies the error for absent containers
func TestFragments_Missing(t *testing.T) {
	doc := preparedDoc(t, `<html><body><p>text</p></body></html>`)

	for _, loc := range []scraper.Locator{
		{Tag: "div", Class: "body"},
		{Tag: "div", ID: "Content"},
		{Tag: "main", Nested: "article"},
		{Tag: "div", Class: "chunk", FindAll: true},
		{Tag: "section", TextOnly: true},
	} {
		_, err := Fragments(doc.Selection, loc)
		assert.ErrorIs(t, err, ErrElementNotFound, loc.String())
	}
}

// TestTagTreeExtract_FullPage verifies extraction end to end
func TestTagTreeExtract_FullPage(t *testing.T) {
	page := `<html><head><script>track()</script></head><body>
		<h1 class="headline">Talks <em>Resume</em></h1>
		<div class="article-body">` + paragraphs(5) + `
			<p>Subscribe to our newsletter for updates.</p>
			<p>Officials said <strong>nothing</strong> was agreed.</p>
		</div>
	</body></html>`

	extractor := &TagTree{
		Title:   scraper.Locator{Tag: "h1", Class: "headline"},
		Article: scraper.Locator{Tag: "div", Class: "article-body"},
	}

	article, err := extractor.Extract(page, "https://news.example.com/world/talks")
	require.NoError(t, err)

	assert.Equal(t, "Talks Resume", article.Title)
	assert.True(t, strings.HasPrefix(article.Text, "Talks Resume. Paragraph 0 reports"))
	assert.NotContains(t, article.Text, "newsletter")
	assert.Contains(t, article.Text, "Officials said nothing was agreed.")
	assert.Equal(t, len([]rune(article.Text)), article.Length)
	assert.GreaterOrEqual(t, article.Length, MinLength)
}

// TestTagTreeExtract_TooShort verifies the length gate
func TestTagTreeExtract_TooShort(t *testing.T) {
	extractor := &TagTree{
		Title:   scraper.Locator{Tag: "h1"},
		Article: scraper.Locator{Tag: "article"},
	}

	_, err := extractor.Extract(`<h1>Title</h1><article><p>Short.</p></article>`, "https://news.example.com/a")

	var lengthErr *ArticleLengthError
	require.True(t, errors.As(err, &lengthErr))
	assert.Equal(t, len("Title. Short."), lengthErr.Length)
}

// TestTagTreeExtract_MissingArticle verifies an ExtractionError names the
// page and the failing locator
func TestTagTreeExtract_MissingArticle(t *testing.T) {
	extractor := &TagTree{
		Title:   scraper.Locator{Tag: "h1"},
		Article: scraper.Locator{Tag: "div", Class: "article-body"},
	}

	_, err := extractor.Extract(`<h1>Title</h1><p>text</p>`, "https://news.example.com/a")

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "https://news.example.com/a", extractErr.URL)
	assert.Contains(t, extractErr.Locator, "div.article-body")
	assert.ErrorIs(t, err, ErrElementNotFound)
}

// TestForConfig verifies strategy dispatch
func TestForConfig(t *testing.T) {
	roster := scraper.DefaultRoster()

	bbc, _ := roster.Lookup("BBC")
	ex, err := ForConfig(bbc)
	require.NoError(t, err)
	assert.IsType(t, &TagTree{}, ex)

	elpais, _ := roster.Lookup("El País")
	ex, err = ForConfig(elpais)
	require.NoError(t, err)
	assert.IsType(t, &Metadata{}, ex)

	bad := bbc
	bad.Strategy = "readability"
	_, err = ForConfig(bad)
	assert.ErrorIs(t, err, scraper.ErrInvalidConfig)
}
