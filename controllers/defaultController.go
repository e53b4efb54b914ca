package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to the ElectroMart API.

The following are the endpoints for this API (base path /api/v1):

DELIVERY
- POST "/delivery" - Create a delivery address
- GET "/delivery/user/:userId" - Get deliveries for a specific user
- GET "/delivery" - Get all deliveries (admin)
- PUT "/delivery/:id" - Update a delivery
- DELETE "/delivery/:id" - Delete a delivery (admin)

ORDER
- POST "/order" - Place a new order (requires an existing delivery)
- GET "/order/user/:userId" - Get orders for a specific user
- GET "/order" - Get all orders (admin)
- GET "/order/:id" - Get order by ID
- PUT "/order/:id/status" - Advance an order item's status (admin)
- PUT "/order/:id" - Update an order
- DELETE "/order/:id" - Delete an order (admin)

PAYMENT
- POST "/payment" - Record a payment and link it to its order
- GET "/payment/order/:orderId" - Get payments for an order
- GET "/payment" - Get all payments (admin)
- PUT "/payment/:id/confirm" - Confirm a payment (admin)
- DELETE "/payment/:id" - Delete a payment and unlink its order (admin)

OPS
- GET "/reconciliation" - List unresolved reconciliation tasks (admin)
- GET "/metrics" - Prometheus metrics`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
