package enrollment

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches enrollment endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, studentOnly, adminOnly, authenticate gin.HandlerFunc) {
	enrollments := router.Group("/enrollments")
	enrollments.Use(authenticate)
	{
		enrollments.POST("", studentOnly, handler.Enroll)
		enrollments.POST("/:courseId/pay", studentOnly, handler.Pay)
		enrollments.PUT("/:courseId/progress", studentOnly, handler.UpdateProgress)
		enrollments.GET("", studentOnly, handler.ListMine)
		enrollments.GET("/all", adminOnly, handler.ListAll)
		enrollments.GET("/course/:courseId", handler.ListForCourse)
	}
}
