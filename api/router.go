package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/quickfind/api/handlers"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/meghashyamc/quickfind/services/session"
	"github.com/meghashyamc/quickfind/validation"
)

type routeDependencies struct {
	catalog         *catalog.Service
	sessions        *session.Manager
	validator       *validation.Validator
	sessionDefaults session.Options
}

func setupRoutes(router *gin.Engine, logger logger.Logger, deps routeDependencies) {
	router.GET("/health", health())

	handlers.SetupMatch(router, logger, deps.validator)
	handlers.SetupCatalog(router, logger, deps.catalog, deps.validator)
	handlers.SetupSessions(router, logger, deps.sessions, deps.validator, deps.sessionDefaults)
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter(logger logger.Logger) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))

	return router
}
