package routes

import (
	"github.com/gin-gonic/gin"

	"otc-core/internal/handler"
)

func RegisterCollectionRoutes(rg *gin.RouterGroup, h *handler.CollectionHandler) {
	rg.GET("/status", h.Status)

	group := rg.Group("/collections")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/quote", h.Quote)
		group.GET("/:id/validate", h.Validate)
		group.GET("/:id/whitelist/:buyer", h.Whitelisted)
		group.GET("/:id/purchases/:buyer", h.Purchased)
		group.POST("/:id/purchase", h.Purchase)
	}
}
