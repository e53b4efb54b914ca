package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/electromart/electromart-api/stores"
)

func parseID(ctx *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 64)
	if err != nil {
		log.WithError(err).WithField("param", param).Debug("Failed to parse id parameter")
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return uint(id), true
}

func (a *API) CreateDelivery(ctx *gin.Context) {
	var params stores.CreateDeliveryParams
	if err := ctx.ShouldBindJSON(&params); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	delivery, err := a.Orch.CreateDelivery(ctx.Request.Context(), params)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, delivery)
}

func (a *API) GetDeliveriesByUser(ctx *gin.Context) {
	deliveries, err := a.Orch.DeliveriesByUser(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, deliveries)
}

func (a *API) GetAllDeliveries(ctx *gin.Context) {
	deliveries, err := a.Orch.AllDeliveries(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, deliveries)
}

func (a *API) UpdateDelivery(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var params stores.UpdateDeliveryParams
	if err := ctx.ShouldBindJSON(&params); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	delivery, err := a.Orch.UpdateDelivery(ctx.Request.Context(), id, params)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, delivery)
}

func (a *API) DeleteDelivery(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := a.Orch.DeleteDelivery(ctx.Request.Context(), id); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Delivery deleted successfully"})
}
