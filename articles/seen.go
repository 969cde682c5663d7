package articles

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pevans/mediascan"
)

// DefaultSeenTTL is how long a known URL stays in the seen cache.
const DefaultSeenTTL = 48 * time.Hour

// SeenCache answers repeated dedup checks for known URLs from memory and
// passes everything else to the wrapped repository. Only positive answers
// are cached; a URL not yet stored is always checked again.
type SeenCache struct {
	repo  mediascan.ArticleRepository
	cache *cache.Cache
}

// NewSeenCache wraps repo. A zero ttl uses DefaultSeenTTL.
func NewSeenCache(repo mediascan.ArticleRepository, ttl time.Duration) *SeenCache {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	return &SeenCache{
		repo:  repo,
		cache: cache.New(ttl, ttl/2),
	}
}

// Exists reports whether the URL is stored.
func (c *SeenCache) Exists(ctx context.Context, url string) (bool, error) {
	if _, found := c.cache.Get(url); found {
		return true, nil
	}

	exists, err := c.repo.Exists(ctx, url)
	if err != nil {
		return false, err
	}
	if exists {
		c.cache.SetDefault(url, struct{}{})
	}
	return exists, nil
}

// Persist stores the article and remembers its URL.
func (c *SeenCache) Persist(ctx context.Context, article *mediascan.Article, words map[string]int, pos map[string]string) error {
	if err := c.repo.Persist(ctx, article, words, pos); err != nil {
		return err
	}
	c.cache.SetDefault(article.URL, struct{}{})
	return nil
}

// Len returns the number of cached URLs.
func (c *SeenCache) Len() int {
	return c.cache.ItemCount()
}
