package course

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches course endpoints to the router. Catalog reads
// require authentication only; mutations require the educator middleware
// chain passed by the caller.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authenticate gin.HandlerFunc, educatorOnly gin.HandlerFunc) {
	courses := router.Group("/courses")
	courses.Use(authenticate)
	{
		courses.GET("", handler.List)
		courses.GET("/mine", educatorOnly, handler.ListMine)
		courses.GET("/:courseId", handler.GetByID)
		courses.POST("", educatorOnly, handler.Create)
		courses.PUT("/:courseId", educatorOnly, handler.Update)
		courses.DELETE("/:courseId", educatorOnly, handler.Delete)
		courses.POST("/:courseId/sections", educatorOnly, handler.AddSection)
		courses.DELETE("/:courseId/sections/:sectionId", educatorOnly, handler.DeleteSection)
	}
}
