package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/electromart/electromart-api/controllers"
	"github.com/electromart/electromart-api/middlewares"
)

func OrderRoutes(server *gin.Engine, api *controllers.API) {
	order := server.Group("/api/v1/order")
	{
		order.POST("", api.PlaceOrder)
		order.GET("/user/:userId", api.GetOrdersByUser)
		order.GET("", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.GetAllOrders)
		order.GET("/:id", api.GetOrder)
		order.PUT("/:id/status", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.AdvanceItemStatus)
		order.PUT("/:id", api.UpdateOrder)
		order.DELETE("/:id", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.DeleteOrder)
	}
}
