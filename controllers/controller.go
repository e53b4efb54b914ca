package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/electromart/electromart-api/apperrors"
	"github.com/electromart/electromart-api/fulfillment"
)

const (
	msgInvalidRequestBody = "Invalid request body"
	msgInvalidID          = "Invalid id parameter"
)

type API struct {
	Orch *fulfillment.Orchestrator
}

func NewAPI(orch *fulfillment.Orchestrator) *API {
	return &API{Orch: orch}
}

func sendJSONResponse(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

// respondWithError maps the error taxonomy onto HTTP status codes and keeps
// the machine-readable message/details shape of every error body.
func respondWithError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeValidation, apperrors.CodeInvalidTransition:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound, apperrors.CodeReferentialIntegrity:
		status = http.StatusNotFound
	case apperrors.CodePartialFailure:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", ctx.FullPath()).Error("Request failed")
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body := gin.H{"message": appErr.Message}
		if appErr.Details != "" {
			body["details"] = appErr.Details
		}
		sendJSONResponse(ctx, status, body)
		return
	}
	sendErrorResponse(ctx, status, "Internal server error")
}
