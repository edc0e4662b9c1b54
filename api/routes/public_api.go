package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"realty/api/handlers"
	"realty/api/middleware"
	"realty/services"
)

// PublicApi registers the versioned API. Auth endpoints are open; every
// listing operation requires a session token.
func PublicApi(router *gin.Engine, catalog *services.Catalog, auth *services.AuthService) *gin.RouterGroup {
	authHandler := &handlers.AuthHandler{Auth: auth}
	listingHandler := &handlers.ListingHandler{Catalog: catalog}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/api/v1/")
	{
		public.POST("auth/register", authHandler.Register)
		public.POST("auth/login", authHandler.Login)
		public.POST("auth/logout", authHandler.Logout)
	}

	listings := router.Group("/api/v1/listings")
	listings.Use(middleware.AuthMiddleware(auth))
	{
		listings.POST("", listingHandler.Insert)
		listings.GET("/search", listingHandler.Search)
		listings.GET("/export", listingHandler.Export)
		listings.PATCH("/:custom_id", listingHandler.Update)
		listings.DELETE("/:custom_id", listingHandler.Delete)
	}
	return public
}
