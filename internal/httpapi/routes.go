// Package httpapi exposes the command registry over http.
package httpapi

import (
	"github.com/gin-gonic/gin"
)

type Options struct {
	// Token, when set, is required as `Authorization: Bearer <token>` on
	// every /api route.
	Token string
	// Release switches gin to release mode.
	Release bool
}

// SetupRouter creates the gin router serving the command surface.
func SetupRouter(options Options, handler *Handler) *gin.Engine {
	if options.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(TelemetryMiddleware(handler.tel))

	router.GET("/health", handler.Health)

	v1 := router.Group("/api/v1")
	v1.Use(BearerAuthMiddleware(options.Token))
	{
		v1.GET("/commands", handler.ListCommands)
		v1.POST("/commands/:name", handler.RunCommand)
	}

	return router
}
