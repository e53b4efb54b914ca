package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/electromart/electromart-api/controllers"
	"github.com/electromart/electromart-api/metrics"
)

func DefaultRoutes(server *gin.Engine) {
	server.GET("/", controllers.GetHome)
	server.GET("/metrics", metrics.Handler())
}
