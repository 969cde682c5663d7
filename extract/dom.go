package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RemoveTags are dropped from every article page, with their content,
// before any locator runs.
var RemoveTags = []string{
	"br", "head", "button", "aside", "figure", "picture", "source", "img",
	"nav", "footer", "script", "style", "meta", "noscript", "iframe",
	"object", "embed", "link", "svg", "path", "use", "defs", "symbol",
	"desc", "base", "area", "map", "param", "track", "audio", "video",
	"input", "form", "fieldset", "legend", "label", "select", "option",
	"optgroup", "cite", "figcaption", "table", "sup",
}

var removeSelector = strings.Join(RemoveTags, ", ")

// UnwrapTags are inline formatting tags replaced by their children, in
// this order, so their text is promoted into the enclosing element.
var UnwrapTags = []string{
	"span", "b", "strong", "i", "em", "u", "font", "small", "big", "mark", "a",
}

// Prepare strips the removal set plus extra, drops comments and unwraps
// the inline formatting tags. The document is modified in place.
func Prepare(doc *goquery.Document, extra []string) {
	Remove(doc, extra)
	removeComments(doc)
	for _, tag := range UnwrapTags {
		for _, n := range doc.Find(tag).Nodes {
			unwrap(n)
		}
	}
}

// Remove deletes every element in RemoveTags, then each extra selector on
// its own so one bad entry cannot disable the fixed set.
func Remove(doc *goquery.Document, extra []string) {
	doc.Find(removeSelector).Remove()
	for _, t := range extra {
		if t = strings.TrimSpace(t); t != "" {
			doc.Find(t).Remove()
		}
	}
}

// StripPage parses content, removes the removal tag set and renders the
// result. Used by the page dump tool.
func StripPage(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	Remove(doc, nil)
	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return out, nil
}

func removeComments(doc *goquery.Document) {
	var comments []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode {
				comments = append(comments, c)
				continue
			}
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	for _, c := range comments {
		c.Parent.RemoveChild(c)
	}
}

// unwrap moves the children of n in front of it and detaches n.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

// directText returns the text-node children of the selected elements, one
// entry per node.
func directText(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				out = append(out, c.Data)
			}
		}
	}
	return out
}
