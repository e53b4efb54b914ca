package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/electromart/electromart-api/controllers"
	"github.com/electromart/electromart-api/middlewares"
)

func PaymentRoutes(server *gin.Engine, api *controllers.API) {
	payment := server.Group("/api/v1/payment")
	{
		payment.POST("", api.RecordPayment)
		payment.GET("/order/:orderId", api.GetPaymentsByOrder)
		payment.GET("", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.GetAllPayments)
		payment.PUT("/:id/confirm", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.ConfirmPayment)
		payment.DELETE("/:id", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.DeletePayment)
	}

	server.GET("/api/v1/reconciliation", middlewares.RequireAuth(), middlewares.RequireAdmin(), api.GetReconciliations)
}
