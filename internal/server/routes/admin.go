package routes

import (
	"github.com/gin-gonic/gin"

	"otc-core/internal/handler"
)

func RegisterAdminRoutes(rg *gin.RouterGroup, h *handler.AdminHandler) {
	adminGroup := rg.Group("/admin")
	// owner 校验在引擎内完成，这里不再挂鉴权中间件
	{
		adminGroup.POST("/collections", h.RegisterCollection)
		adminGroup.POST("/collections/:id/whitelist", h.AddWhitelist)
		adminGroup.DELETE("/collections/:id/whitelist", h.RemoveWhitelist)
		adminGroup.POST("/withdraw", h.Withdraw)
		adminGroup.POST("/pause", h.Pause)
		adminGroup.POST("/unpause", h.Unpause)
	}
}
