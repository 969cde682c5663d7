package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinLength and MaxLength bound the assembled article, inclusive.
	MinLength = 500
	MaxLength = 40000
)

// DismissWords mark boilerplate fragments. A fragment containing any of
// them, case-insensitively, is dropped.
var DismissWords = []string{
	"sign up",
	"newsletter",
	"log in",
	"sing in",
	"recaptcha",
	"signing up",
	"subscribe",
	"email us",
	"contact us",
	"advertising",
	"about us",
	"issued on",
}

var (
	angleSpan = regexp.MustCompile(`<.*?>`)
	braceSpan = regexp.MustCompile(`\{.*?\}`)
)

// CleanFragment returns the text a fragment contributes to the body, or ""
// when it is boilerplate.
func CleanFragment(fragment string) string {
	lower := strings.ToLower(fragment)
	for _, w := range DismissWords {
		if strings.Contains(lower, w) {
			return ""
		}
	}
	if strings.ContainsAny(fragment, "<>{}") {
		fragment = angleSpan.ReplaceAllString(fragment, " ")
		fragment = braceSpan.ReplaceAllString(fragment, " ")
	}
	return strings.TrimSpace(fragment)
}

// AssembleBody cleans every fragment and joins the survivors with a single
// space.
func AssembleBody(fragments []string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if c := CleanFragment(f); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// Join builds the full article text from its title and body.
func Join(title, body string) string {
	return title + ". " + body
}

// CheckLength applies the length gate to a full article.
func CheckLength(text string) error {
	n := utf8.RuneCountInString(text)
	if n < MinLength || n > MaxLength {
		return &ArticleLengthError{Length: n, Min: MinLength, Max: MaxLength}
	}
	return nil
}

// newArticle joins title and body and applies the length gate.
func newArticle(title, body string) (*Article, error) {
	text := Join(title, body)
	if err := CheckLength(text); err != nil {
		return nil, err
	}
	return &Article{
		Title:  title,
		Body:   body,
		Text:   text,
		Length: utf8.RuneCountInString(text),
	}, nil
}
