package http

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the Gin router
func SetupRouter(handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(handlers.opts.Logger))

	// Every route is a page load and may complete a wallet callback
	pages := router.Group("/")
	pages.Use(ConnectionMiddleware(handlers))
	{
		pages.GET("/", handlers.Index)
		pages.GET("/session", handlers.Session)
		pages.GET("/login", handlers.Login)
	}

	// Signed-in routes
	account := pages.Group("/")
	account.Use(RequireSignedIn())
	{
		account.POST("/sign", handlers.Sign)
		account.POST("/logout", handlers.Logout)
	}

	return router
}
