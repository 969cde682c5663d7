package sources

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pevans/mediascan"
)

// Registry is the media store served by the API.
type Registry interface {
	CreateMedia(ctx context.Context, name, url string, active bool) (*mediascan.Media, error)
	GetMedia(ctx context.Context, id int64) (*mediascan.Media, error)
	ListMedia(ctx context.Context, filter MediaFilter) ([]mediascan.Media, error)
	UpdateMedia(ctx context.Context, id int64, update MediaUpdate) error
	DeleteMedia(ctx context.Context, id int64) error
}

// MediaAPIServer serves the media registry over HTTP.
type MediaAPIServer struct {
	store Registry
}

// NewMediaAPIServer creates a new media API server.
func NewMediaAPIServer(store Registry) *MediaAPIServer {
	return &MediaAPIServer{store: store}
}

// SetupRouter returns a router serving only the media routes.
func (s *MediaAPIServer) SetupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(CORS())
	s.Register(router.Group("/api/v1"))
	return router
}

// Register mounts the media routes on group.
func (s *MediaAPIServer) Register(group *gin.RouterGroup) {
	group.GET("/media", s.HandleListMedia)
	group.GET("/media/:id", s.HandleGetMedia)
	group.POST("/media", s.HandleCreateMedia)
	group.PUT("/media/:id", s.HandleUpdateMedia)
	group.DELETE("/media/:id", s.HandleDeleteMedia)
}

// CORS allows any origin and answers preflight requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// ListMediaResponse represents the response for GET /api/v1/media.
type ListMediaResponse struct {
	Media []mediascan.Media `json:"media"`
	Total int               `json:"total"`
}

// CreateMediaRequest represents the request for POST /api/v1/media.
type CreateMediaRequest struct {
	Name   string `json:"name" binding:"required"`
	URL    string `json:"url" binding:"required"`
	Active *bool  `json:"active,omitempty"`
}

// UpdateMediaRequest represents the request for PUT /api/v1/media/{id}.
type UpdateMediaRequest struct {
	Name   *string `json:"name,omitempty"`
	URL    *string `json:"url,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// ErrorResponse creates a standardized error response.
func ErrorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func (s *MediaAPIServer) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMediaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse("not_found", err.Error()))
	case errors.Is(err, ErrDuplicateURL):
		c.JSON(http.StatusConflict, ErrorResponse("conflict", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse("internal_error", "Failed to process request"))
	}
}

// HandleListMedia handles GET /api/v1/media.
func (s *MediaAPIServer) HandleListMedia(c *gin.Context) {
	filter := MediaFilter{}
	if activeParam := c.Query("active"); activeParam != "" {
		active := activeParam == "true"
		filter.Active = &active
	}

	media, err := s.store.ListMedia(c.Request.Context(), filter)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if media == nil {
		media = []mediascan.Media{}
	}

	c.JSON(http.StatusOK, ListMediaResponse{Media: media, Total: len(media)})
}

// HandleGetMedia handles GET /api/v1/media/{id}.
func (s *MediaAPIServer) HandleGetMedia(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}

	media, err := s.store.GetMedia(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, media)
}

// HandleCreateMedia handles POST /api/v1/media.
func (s *MediaAPIServer) HandleCreateMedia(c *gin.Context) {
	var req CreateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("validation_error", err.Error()))
		return
	}

	active := req.Active == nil || *req.Active
	media, err := s.store.CreateMedia(c.Request.Context(), req.Name, req.URL, active)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, media)
}

// HandleUpdateMedia handles PUT /api/v1/media/{id}. Setting active to true
// is how a deactivated source is brought back.
func (s *MediaAPIServer) HandleUpdateMedia(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}

	var req UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", err.Error()))
		return
	}

	update := MediaUpdate{Name: req.Name, URL: req.URL, Active: req.Active}
	if err := s.store.UpdateMedia(c.Request.Context(), id, update); err != nil {
		s.handleError(c, err)
		return
	}

	media, err := s.store.GetMedia(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, media)
}

// HandleDeleteMedia handles DELETE /api/v1/media/{id}.
func (s *MediaAPIServer) HandleDeleteMedia(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteMedia(c.Request.Context(), id); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func mediaID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", "Invalid media ID"))
		return 0, false
	}
	return id, true
}
