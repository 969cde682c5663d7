package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound is returned when a locator matches nothing.
	ErrElementNotFound = errors.New("element not found")

	// ErrNoArticle is returned when no metadata block carries the
	// configured title, summary and body keys.
	ErrNoArticle = errors.New("no article in metadata blocks")
)

// ExtractionError reports that a page did not contain what its source
// config expects.
type ExtractionError struct {
	URL     string
	Locator string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Locator == "" {
		return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s (%s): %v", e.URL, e.Locator, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ArticleLengthError reports an assembled article outside the accepted
// length bounds. Length is counted in characters.
type ArticleLengthError struct {
	Length int
	Min    int
	Max    int
}

func (e *ArticleLengthError) Error() string {
	return fmt.Sprintf("article length %d outside [%d, %d]", e.Length, e.Min, e.Max)
}
