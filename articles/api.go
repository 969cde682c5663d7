package articles

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/mediascan"
)

// DefaultListLimit caps article listings without an explicit limit.
const DefaultListLimit = 50

// Reader is the article store served by the API.
type Reader interface {
	GetArticle(ctx context.Context, id uuid.UUID) (*mediascan.Article, error)
	ListArticles(ctx context.Context, filter mediascan.ArticleFilter) ([]mediascan.Article, error)
	LabelStats(ctx context.Context, since time.Time) (*mediascan.LabelStats, error)
}

// APIServer serves stored articles over HTTP.
type APIServer struct {
	store Reader
	now   func() time.Time
}

// NewAPIServer creates a new article API server.
func NewAPIServer(store Reader) *APIServer {
	return &APIServer{store: store, now: time.Now}
}

// SetupRouter returns a router serving only the article routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()
	s.Register(router.Group("/api/v1"))
	return router
}

// Register mounts the article routes on group.
func (s *APIServer) Register(group *gin.RouterGroup) {
	group.GET("/articles", s.HandleListArticles)
	group.GET("/articles/stats", s.HandleLabelStats)
	group.GET("/articles/:id", s.HandleGetArticle)
}

// ListArticlesResponse represents the response for GET /api/v1/articles.
type ListArticlesResponse struct {
	Articles []mediascan.Article `json:"articles"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleListArticles handles GET /api/v1/articles.
func (s *APIServer) HandleListArticles(c *gin.Context) {
	filter := mediascan.ArticleFilter{Limit: DefaultListLimit}

	for _, param := range []struct {
		name string
		dest *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		raw := c.Query(param.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid "+param.name))
			return
		}
		*param.dest = n
	}

	if raw := c.Query("media_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid media_id"))
			return
		}
		filter.MediaID = id
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("bad_request", "since must be RFC 3339"))
			return
		}
		filter.Since = since
	}

	list, err := s.store.ListArticles(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to list articles"))
		return
	}
	if list == nil {
		list = []mediascan.Article{}
	}

	c.JSON(http.StatusOK, ListArticlesResponse{
		Articles: list,
		Total:    len(list),
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// HandleGetArticle handles GET /api/v1/articles/{id}.
func (s *APIServer) HandleGetArticle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid article ID"))
		return
	}

	article, err := s.store.GetArticle(c.Request.Context(), id)
	if errors.Is(err, ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to get article"))
		return
	}

	c.JSON(http.StatusOK, article)
}

// HandleLabelStats handles GET /api/v1/articles/stats. Without since, the
// stats cover the current day.
func (s *APIServer) HandleLabelStats(c *gin.Context) {
	since := StartOfDay(s.now())
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("bad_request", "since must be RFC 3339"))
			return
		}
		since = parsed
	}

	stats, err := s.store.LabelStats(c.Request.Context(), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to compute stats"))
		return
	}

	c.JSON(http.StatusOK, stats)
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
