package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/electromart/electromart-api/controllers"
	"github.com/electromart/electromart-api/middlewares"
)

func DeliveryRoutes(server *gin.Engine, api *controllers.API) {
	delivery := server.Group("/api/v1/delivery")
	{
		delivery.POST("", api.CreateDelivery)
		delivery.GET("/user/:userId", api.GetDeliveriesByUser)
		delivery.GET("", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.GetAllDeliveries)
		delivery.PUT("/:id", api.UpdateDelivery)
		delivery.DELETE("/:id", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.DeleteDelivery)
	}
}
