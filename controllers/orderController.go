package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/electromart/electromart-api/fulfillment"
	"github.com/electromart/electromart-api/stores"
)

type placeOrderRequest struct {
	UserID     string                   `json:"userId"`
	DeliveryID uint                     `json:"deliveryId"`
	Items      []stores.OrderItemParams `json:"items"`
	Total      float64                  `json:"total"`
}

func (a *API) PlaceOrder(ctx *gin.Context) {
	var req placeOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	order, err := a.Orch.PlaceOrder(ctx.Request.Context(), fulfillment.PlaceOrderParams{
		UserID:     req.UserID,
		DeliveryID: req.DeliveryID,
		Items:      req.Items,
		Total:      req.Total,
	})
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, order)
}

func (a *API) GetOrder(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	order, err := a.Orch.GetOrder(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, order)
}

func (a *API) GetOrdersByUser(ctx *gin.Context) {
	orders, err := a.Orch.OrdersByUser(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, orders)
}

func (a *API) GetAllOrders(ctx *gin.Context) {
	orders, err := a.Orch.AllOrders(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, orders)
}

type advanceItemStatusRequest struct {
	ItemID    uint   `json:"itemId"`
	NewStatus string `json:"newStatus"`
}

func (a *API) AdvanceItemStatus(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req advanceItemStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	order, err := a.Orch.AdvanceItemStatus(ctx.Request.Context(), id, req.ItemID, req.NewStatus)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, order)
}

func (a *API) UpdateOrder(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var params stores.UpdateOrderParams
	if err := ctx.ShouldBindJSON(&params); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	order, err := a.Orch.UpdateOrder(ctx.Request.Context(), id, params)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, order)
}

func (a *API) DeleteOrder(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := a.Orch.DeleteOrder(ctx.Request.Context(), id); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
