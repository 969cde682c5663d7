package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
)

// ErrInvalidConfig is returned when a source configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid source config")

// Strategy selects how title and body are pulled out of an article page.
type Strategy string

const (
	// StrategyTagTree walks the DOM using the title and article locators.
	StrategyTagTree Strategy = "tag_tree"
	// StrategyEmbeddedMetadata reads a structured-data script block.
	StrategyEmbeddedMetadata Strategy = "embedded_metadata"
)

// DefaultTargetPrefixes are the path fragments that mark a link as
// article-like when a source does not declare its own.
var DefaultTargetPrefixes = []string{
	"/article/",
	"/articles/",
	"/news/",
	"/world/",
	"/politics/",
	"/business/",
	"/culture/",
	"/economy/",
	"/opinion/",
	"/society/",
}

// DefaultDismiss rejects in-page fragment links.
var DefaultDismiss = []string{"#"}

// DefaultHarvestTags are the child tags collected from an article container
// when its locator does not list any.
var DefaultHarvestTags = []string{"h2", "h3", "h4", "p"}

// Locator identifies an element by tag name with optional class, id and
// nested tag. The remaining flags only apply to article locators.
type Locator struct {
	Tag    string `yaml:"tag" json:"tag"`
	Class  string `yaml:"class,omitempty" json:"class,omitempty"`
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Nested string `yaml:"nested,omitempty" json:"nested,omitempty"`

	// Recursive searches all descendants of the container instead of its
	// direct children.
	Recursive bool `yaml:"recursive,omitempty" json:"recursive,omitempty"`
	// TextOnly returns the container's own text as the single fragment.
	TextOnly bool `yaml:"text_only,omitempty" json:"text_only,omitempty"`
	// FindAll harvests every tag+class match instead of the first.
	FindAll bool `yaml:"find_all,omitempty" json:"find_all,omitempty"`
	// Harvest overrides DefaultHarvestTags.
	Harvest []string `yaml:"harvest,omitempty" json:"harvest,omitempty"`
	// Remove lists extra tags stripped before extraction.
	Remove []string `yaml:"remove,omitempty" json:"remove,omitempty"`
}

// HarvestTags returns the tags collected from an article container.
func (l Locator) HarvestTags() []string {
	if len(l.Harvest) > 0 {
		return l.Harvest
	}
	return DefaultHarvestTags
}

// String renders the locator for logs and error messages.
func (l Locator) String() string {
	var sb strings.Builder
	sb.WriteString(l.Tag)
	if l.Class != "" {
		sb.WriteString("." + l.Class)
	}
	if l.ID != "" {
		sb.WriteString("#" + l.ID)
	}
	if l.Nested != "" {
		sb.WriteString(" " + l.Nested)
	}
	return sb.String()
}

// MetadataLocator finds an embedded structured-data block (for example
// <script type="application/ld+json">) and names the fields holding the
// title, summary and body.
type MetadataLocator struct {
	Tag        string `yaml:"tag" json:"tag"`
	Type       string `yaml:"type,omitempty" json:"type,omitempty"`
	TitleKey   string `yaml:"title_key" json:"title_key"`
	SummaryKey string `yaml:"summary_key" json:"summary_key"`
	BodyKey    string `yaml:"body_key" json:"body_key"`
}

// SourceConfig is the declarative extraction profile of one external site.
// It is loaded once and treated as read-only; SourceID and Active are
// filled in on run-local copies by WithMedia.
type SourceConfig struct {
	// Key is the configured base URL. It is matched as a substring against
	// persisted media URLs when a run resolves its sources.
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`

	// FeedURL, when set, replaces landing-page discovery with the links of
	// an RSS or Atom feed.
	FeedURL string `yaml:"feed_url,omitempty" json:"feed_url,omitempty"`

	Landing        Locator  `yaml:"landing" json:"landing"`
	GenericLinks   bool     `yaml:"generic_links,omitempty" json:"generic_links,omitempty"`
	TargetPrefixes []string `yaml:"target_prefixes,omitempty" json:"target_prefixes,omitempty"`
	Dismiss        []string `yaml:"dismiss,omitempty" json:"dismiss,omitempty"`
	MinPathDigits  int      `yaml:"min_path_digits,omitempty" json:"min_path_digits,omitempty"`

	Strategy Strategy         `yaml:"strategy" json:"strategy"`
	Title    *Locator         `yaml:"title,omitempty" json:"title,omitempty"`
	Article  *Locator         `yaml:"article,omitempty" json:"article,omitempty"`
	Metadata *MetadataLocator `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	SourceID int64 `yaml:"-" json:"source_id"`
	Active   bool  `yaml:"-" json:"active"`
}

// Normalize returns a copy with defaults applied to unset fields.
func (c SourceConfig) Normalize() SourceConfig {
	if c.Strategy == "" {
		if c.Metadata != nil && c.Article == nil {
			c.Strategy = StrategyEmbeddedMetadata
		} else {
			c.Strategy = StrategyTagTree
		}
	}
	if c.TargetPrefixes == nil {
		c.TargetPrefixes = DefaultTargetPrefixes
	}
	if c.Dismiss == nil {
		c.Dismiss = DefaultDismiss
	}
	if c.Name == "" {
		c.Name = c.Key
	}
	return c
}

// WithMedia returns a copy bound to a persisted media record.
func (c SourceConfig) WithMedia(id int64, active bool) SourceConfig {
	c.SourceID = id
	c.Active = active
	return c
}

// Validate rejects configs that declare both strategies or lack the locator
// their strategy needs.
func (c SourceConfig) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.Key)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: key %q is not an absolute URL", ErrInvalidConfig, c.Key)
	}
	if c.Landing.Tag == "" && c.FeedURL == "" {
		return fmt.Errorf("%w: %s: landing tag is required", ErrInvalidConfig, c.Key)
	}
	if c.MinPathDigits < 0 {
		return fmt.Errorf("%w: %s: min_path_digits must not be negative", ErrInvalidConfig, c.Key)
	}

	for _, loc := range []*Locator{&c.Landing, c.Title, c.Article} {
		if err := loc.validateSelectors(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, c.Key, err)
		}
	}

	hasTagTree := c.Article != nil || c.Title != nil
	if hasTagTree && c.Metadata != nil {
		return fmt.Errorf("%w: %s: declares both tag-tree and embedded-metadata locators", ErrInvalidConfig, c.Key)
	}

	switch c.Strategy {
	case StrategyTagTree:
		if c.Article == nil || c.Article.Tag == "" {
			return fmt.Errorf("%w: %s: article locator is required", ErrInvalidConfig, c.Key)
		}
		if c.Title == nil || c.Title.Tag == "" {
			return fmt.Errorf("%w: %s: title locator is required", ErrInvalidConfig, c.Key)
		}
		if c.Article.FindAll && c.Article.TextOnly {
			return fmt.Errorf("%w: %s: find_all and text_only are exclusive", ErrInvalidConfig, c.Key)
		}
	case StrategyEmbeddedMetadata:
		m := c.Metadata
		if m == nil || m.Tag == "" {
			return fmt.Errorf("%w: %s: metadata locator is required", ErrInvalidConfig, c.Key)
		}
		if m.TitleKey == "" || m.SummaryKey == "" || m.BodyKey == "" {
			return fmt.Errorf("%w: %s: metadata locator needs title, summary and body keys", ErrInvalidConfig, c.Key)
		}
	default:
		return fmt.Errorf("%w: %s: unknown strategy %q", ErrInvalidConfig, c.Key, c.Strategy)
	}

	return nil
}

// validateSelectors compiles every remove and harvest entry so a bad
// selector fails at load rather than matching nothing at extraction.
func (l *Locator) validateSelectors() error {
	if l == nil {
		return nil
	}
	for _, list := range [][]string{l.Remove, l.Harvest} {
		for _, entry := range list {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				return errors.New("empty selector")
			}
			if _, err := cascadia.Compile(entry); err != nil {
				return fmt.Errorf("invalid selector %q: %w", entry, err)
			}
		}
	}
	return nil
}

// Roster is the ordered set of configured sources.
type Roster []SourceConfig

// Normalize applies defaults to every entry.
func (r Roster) Normalize() Roster {
	out := make(Roster, 0, len(r))
	for _, c := range r {
		out = append(out, c.Normalize())
	}
	return out
}

// Validate checks every entry and rejects duplicate keys.
func (r Roster) Validate() error {
	seen := make(map[string]bool, len(r))
	for _, c := range r {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.Key] {
			return fmt.Errorf("%w: duplicate key %s", ErrInvalidConfig, c.Key)
		}
		seen[c.Key] = true
	}
	return nil
}

// Lookup returns the entry whose key or name matches, case-insensitively
// for names.
func (r Roster) Lookup(keyOrName string) (SourceConfig, bool) {
	for _, c := range r {
		if c.Key == keyOrName || strings.EqualFold(c.Name, keyOrName) {
			return c, true
		}
	}
	return SourceConfig{}, false
}
