package config

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/mediascan/scraper"
)

// ConfigAPIServer exposes the effective configuration and roster
// read-only. Secrets are never serialized.
type ConfigAPIServer struct {
	cfg    *Config
	roster scraper.Roster
}

// NewConfigAPIServer creates a new config API server.
func NewConfigAPIServer(cfg *Config, roster scraper.Roster) *ConfigAPIServer {
	return &ConfigAPIServer{
		cfg:    cfg,
		roster: roster,
	}
}

// Register mounts the routes under group, at /meta/config and
// /meta/roster.
func (c *ConfigAPIServer) Register(group *gin.RouterGroup) {
	meta := group.Group("/meta")
	meta.GET("/config", c.HandleGetConfig)
	meta.GET("/roster", c.HandleGetRoster)
	meta.GET("/roster/:name", c.HandleGetSource)
}

// HandleGetConfig handles GET /api/v1/meta/config.
func (c *ConfigAPIServer) HandleGetConfig(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.cfg)
}

// RosterResponse represents the response for GET /api/v1/meta/roster.
type RosterResponse struct {
	Sources []scraper.SourceConfig `json:"sources"`
	Total   int                    `json:"total"`
}

// HandleGetRoster handles GET /api/v1/meta/roster.
func (c *ConfigAPIServer) HandleGetRoster(ctx *gin.Context) {
	sources := []scraper.SourceConfig(c.roster)
	if sources == nil {
		sources = []scraper.SourceConfig{}
	}
	ctx.JSON(http.StatusOK, RosterResponse{Sources: sources, Total: len(sources)})
}

// HandleGetSource handles GET /api/v1/meta/roster/{name}. Names are
// matched case-insensitively.
func (c *ConfigAPIServer) HandleGetSource(ctx *gin.Context) {
	source, ok := c.roster.Lookup(ctx.Param("name"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "not_found",
				"message": "source not found",
			},
		})
		return
	}
	ctx.JSON(http.StatusOK, source)
}
