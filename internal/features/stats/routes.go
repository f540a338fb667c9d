package stats

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches stats endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, adminOnly gin.HandlerFunc) {
	router.GET("/stats/overview", adminOnly, handler.Overview)
}
