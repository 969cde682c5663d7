package app

import (
	"github.com/gin-gonic/gin"
	"github.com/pevans/mediascan/articles"
	"github.com/pevans/mediascan/config"
	"github.com/pevans/mediascan/sources"
	"github.com/sirupsen/logrus"
)

// Router mounts the media, article and meta routes under /api/v1.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(a), sources.CORS())

	api := router.Group("/api/v1")
	sources.NewMediaAPIServer(a.Registry).Register(api)
	articles.NewAPIServer(a.Articles).Register(api)
	config.NewConfigAPIServer(a.Config, a.Roster).Register(api)

	return router
}

func requestLogger(a *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		a.Log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}).Debug("Request served")
	}
}
