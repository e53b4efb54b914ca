package controllers

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/electromart/electromart-api/fulfillment"
	"github.com/electromart/electromart-api/models"
	"github.com/electromart/electromart-api/utils"
)

type recordPaymentRequest struct {
	UserID     string  `json:"userId"`
	OrderID    uint    `json:"orderId"`
	NameOnCard string  `json:"nameOnCard"`
	CardNumber string  `json:"cardNumber"`
	ExpiryDate string  `json:"expiryDate"`
	CVC        string  `json:"cvc"`
	Amount     float64 `json:"amount"`
}

// RecordPayment runs the whole payment saga server-side: create payment,
// then link it to the order. The old client-driven three-call dance is gone.
func (a *API) RecordPayment(ctx *gin.Context) {
	var req recordPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	payment, err := a.Orch.RecordPayment(ctx.Request.Context(), fulfillment.RecordPaymentParams{
		UserID:     req.UserID,
		OrderID:    req.OrderID,
		NameOnCard: req.NameOnCard,
		CardNumber: req.CardNumber,
		ExpiryDate: req.ExpiryDate,
		CVC:        req.CVC,
		Amount:     req.Amount,
	})
	if err != nil {
		respondWithError(ctx, err)
		return
	}

	a.sendReceipt(payment)

	payment.Redact()
	sendJSONResponse(ctx, http.StatusCreated, payment)
}

// sendReceipt emails a payment receipt to the order's delivery address,
// fire-and-forget. Skipped entirely when mail is not configured.
func (a *API) sendReceipt(payment models.Payment) {
	if os.Getenv("FROM_EMAIL") == "" {
		return
	}
	go func() {
		entry := log.WithFields(log.Fields{"paymentId": payment.ID, "orderId": payment.OrderID})
		bg := context.Background()

		order, err := a.Orch.GetOrder(bg, payment.OrderID)
		if err != nil {
			entry.WithError(err).Warn("Receipt not sent: could not load order")
			return
		}
		delivery, err := a.Orch.DeliveryByID(bg, order.DeliveryID)
		if err != nil {
			entry.WithError(err).Warn("Receipt not sent: could not load delivery")
			return
		}
		if err := utils.SendPaymentReceipt(delivery.Email, delivery.FirstName, payment); err != nil {
			entry.WithError(err).Warn("Receipt not sent")
		}
	}()
}

func (a *API) GetPaymentsByOrder(ctx *gin.Context) {
	orderID, ok := parseID(ctx, "orderId")
	if !ok {
		return
	}

	payments, err := a.Orch.PaymentsByOrder(ctx.Request.Context(), orderID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	for i := range payments {
		payments[i].Redact()
	}
	sendJSONResponse(ctx, http.StatusOK, payments)
}

func (a *API) GetAllPayments(ctx *gin.Context) {
	payments, err := a.Orch.AllPayments(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	for i := range payments {
		payments[i].Redact()
	}
	sendJSONResponse(ctx, http.StatusOK, payments)
}

func (a *API) ConfirmPayment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	order, err := a.Orch.ConfirmPayment(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, order)
}

// DeletePayment implies the unlink: the orchestrator clears the order's
// reference before the payment row goes away.
func (a *API) DeletePayment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := a.Orch.DeletePayment(ctx.Request.Context(), id); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}

func (a *API) GetReconciliations(ctx *gin.Context) {
	recs, err := a.Orch.UnresolvedReconciliations(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, recs)
}
