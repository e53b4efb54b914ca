// Package fulfillment sequences the cross-entity checkout operations:
// Delivery -> Order -> Payment -> Order link. Every sequence validates
// references strictly before writing, and the last write of a sequence is
// the commit point, so a crash mid-sequence leaves an orphaned-but-owned
// payment at worst, never a dangling reference from an order.
package fulfillment

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/electromart/electromart-api/apperrors"
	"github.com/electromart/electromart-api/metrics"
	"github.com/electromart/electromart-api/models"
	"github.com/electromart/electromart-api/stores"
)

const (
	defaultOpTimeout = 5 * time.Second

	// linkRetries bounds the idempotent paymentId link step after a
	// payment has been created.
	linkRetries = 3

	// deleteRetries bounds the payment delete step after its order
	// reference has been cleared.
	deleteRetries = 3

	// casRetries bounds re-reads when an item status advance races a
	// concurrent writer.
	casRetries = 3
)

type Orchestrator struct {
	deliveries DeliveryStore
	orders     OrderStore
	payments   PaymentStore
	recons     ReconciliationStore

	locks     *orderLocks
	opTimeout time.Duration
}

func New(deliveries DeliveryStore, orders OrderStore, payments PaymentStore, recons ReconciliationStore) *Orchestrator {
	return &Orchestrator{
		deliveries: deliveries,
		orders:     orders,
		payments:   payments,
		recons:     recons,
		locks:      newOrderLocks(),
		opTimeout:  defaultOpTimeout,
	}
}

func (o *Orchestrator) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.opTimeout)
}

// --- Delivery passthroughs -------------------------------------------------

func (o *Orchestrator) CreateDelivery(ctx context.Context, params stores.CreateDeliveryParams) (models.Delivery, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.deliveries.Create(ctx, params)
}

func (o *Orchestrator) DeliveryByID(ctx context.Context, id uint) (models.Delivery, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.deliveries.Get(ctx, id)
}

func (o *Orchestrator) DeliveriesByUser(ctx context.Context, userID string) ([]models.Delivery, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.deliveries.GetByUser(ctx, userID)
}

func (o *Orchestrator) AllDeliveries(ctx context.Context) ([]models.Delivery, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.deliveries.GetAll(ctx)
}

func (o *Orchestrator) UpdateDelivery(ctx context.Context, id uint, params stores.UpdateDeliveryParams) (models.Delivery, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.deliveries.Update(ctx, id, params)
}

// DeleteDelivery deletes the address record. Orders that still reference it
// keep a dangling deliveryId: accepted behavior, logged so operators can
// see it happen.
func (o *Orchestrator) DeleteDelivery(ctx context.Context, id uint) error {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()

	if err := o.deliveries.Delete(ctx, id); err != nil {
		return err
	}

	referencing, err := o.orders.GetByDeliveryID(ctx, id)
	if err != nil {
		log.WithError(err).WithField("deliveryId", id).
			Warn("Could not check for orders referencing deleted delivery")
		return nil
	}
	if len(referencing) > 0 {
		ids := make([]uint, 0, len(referencing))
		for _, order := range referencing {
			ids = append(ids, order.ID)
		}
		log.WithFields(log.Fields{"deliveryId": id, "orderIds": ids}).
			Warn("Deleted delivery still referenced by orders")
	}
	return nil
}

// --- Orders ----------------------------------------------------------------

type PlaceOrderParams struct {
	UserID     string
	DeliveryID uint
	Items      []stores.OrderItemParams
	Total      float64
}

// PlaceOrder creates the order with no payment linked. The delivery
// reference is resolved immediately before the write; nothing is persisted
// when it does not resolve.
func (o *Orchestrator) PlaceOrder(ctx context.Context, params PlaceOrderParams) (models.Order, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()

	exists, err := o.deliveries.Exists(ctx, params.DeliveryID)
	if err != nil {
		return models.Order{}, err
	}
	if !exists {
		return models.Order{}, apperrors.ReferentialIntegrityf("delivery record not found")
	}

	order, err := o.orders.Create(ctx, stores.CreateOrderParams{
		UserID:     params.UserID,
		DeliveryID: params.DeliveryID,
		Items:      params.Items,
		Total:      params.Total,
	})
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrdersPlaced.Inc()
	log.WithFields(log.Fields{"orderId": order.ID, "userId": order.UserID, "deliveryId": order.DeliveryID}).
		Info("Order placed")
	return order, nil
}

func (o *Orchestrator) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.orders.Get(ctx, id)
}

func (o *Orchestrator) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.orders.GetByUser(ctx, userID)
}

func (o *Orchestrator) AllOrders(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.orders.GetAll(ctx)
}

// UpdateOrder applies a partial update after re-checking every supplied
// cross-reference: deliveryId must resolve, paymentId must resolve and must
// not already be linked to a different order. A paymentId attach takes the
// same per-order lock and link CAS as RecordPayment, so it can neither
// clobber a concurrently landed link nor displace an existing one.
func (o *Orchestrator) UpdateOrder(ctx context.Context, id uint, params stores.UpdateOrderParams) (models.Order, error) {
	lock := o.locks.get(id)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := o.opCtx(ctx)
	defer cancel()

	if params.DeliveryID != nil {
		exists, err := o.deliveries.Exists(ctx, *params.DeliveryID)
		if err != nil {
			return models.Order{}, err
		}
		if !exists {
			return models.Order{}, apperrors.ReferentialIntegrityf("delivery record not found")
		}
	}
	if params.PaymentID != nil {
		exists, err := o.payments.Exists(ctx, *params.PaymentID)
		if err != nil {
			return models.Order{}, err
		}
		if !exists {
			return models.Order{}, apperrors.ReferentialIntegrityf("payment record not found")
		}
		linked, err := o.orders.FindByPaymentID(ctx, *params.PaymentID)
		if err == nil && linked.ID != id {
			return models.Order{}, apperrors.Validationf("payment %d is already linked to order %d", *params.PaymentID, linked.ID)
		}
		if err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
			return models.Order{}, err
		}
		if err := o.orders.SetPaymentID(ctx, id, *params.PaymentID); err != nil {
			return models.Order{}, err
		}
		params.PaymentID = nil
	}

	return o.orders.Update(ctx, id, params)
}

// DeleteOrder is a hard delete with no cascade to the payment; an orphaned
// payment still carries its own orderId for audit.
func (o *Orchestrator) DeleteOrder(ctx context.Context, id uint) error {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	if err := o.orders.Delete(ctx, id); err != nil {
		return err
	}
	log.WithField("orderId", id).Info("Order deleted")
	return nil
}

// AdvanceItemStatus enforces the forward-only item state machine on top of
// the store's raw status write: Pending -> Processing -> Ready -> Delivered,
// skips allowed, regressions rejected, Delivered terminal. Re-sending the
// current status is an idempotent no-op. The write is a compare-and-swap on
// the current status so concurrent advances cannot lose updates.
func (o *Orchestrator) AdvanceItemStatus(ctx context.Context, orderID, itemID uint, newStatus string) (models.Order, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()

	status, err := models.ToItemStatus(newStatus)
	if err != nil {
		metrics.InvalidTransitions.Inc()
		return models.Order{}, err
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		order, err := o.orders.Get(ctx, orderID)
		if err != nil {
			return models.Order{}, err
		}

		var current models.ItemStatus
		found := false
		for _, item := range order.Items {
			if item.ID == itemID {
				current = item.Status
				found = true
				break
			}
		}
		if !found {
			return models.Order{}, apperrors.NotFoundf("order item not found")
		}

		if status == current {
			return order, nil
		}
		if status.Rank() < current.Rank() {
			metrics.InvalidTransitions.Inc()
			return models.Order{}, apperrors.InvalidTransitionf("cannot move item from %s back to %s", current, status)
		}

		ok, err := o.orders.CASItemStatus(ctx, orderID, itemID, current, status)
		if err != nil {
			return models.Order{}, err
		}
		if ok {
			log.WithFields(log.Fields{"orderId": orderID, "itemId": itemID, "from": current, "to": status}).
				Info("Order item status advanced")
			return o.orders.Get(ctx, orderID)
		}
		// Lost the race; re-read and re-evaluate against the new status.
	}
	return models.Order{}, apperrors.Serverf("item status update kept conflicting with concurrent writers")
}

// --- Payments --------------------------------------------------------------

type RecordPaymentParams struct {
	UserID     string
	OrderID    uint
	NameOnCard string
	CardNumber string
	ExpiryDate string
	CVC        string
	Amount     float64
}

// RecordPayment creates the payment and then links it to the order. The
// link is the commit point: it is a CAS on paymentId-is-null and is retried
// idempotently. If the link cannot land after the payment exists, the
// orphaned payment id is surfaced as a PartialFailure and queued for
// reconciliation; the order is never left pointing at anything invalid.
// Calls for the same order are serialized so two concurrent attempts cannot
// both link.
func (o *Orchestrator) RecordPayment(ctx context.Context, params RecordPaymentParams) (models.Payment, error) {
	lock := o.locks.get(params.OrderID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := o.opCtx(ctx)
	defer cancel()

	order, err := o.orders.Get(ctx, params.OrderID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return models.Payment{}, apperrors.ReferentialIntegrityf("order record not found")
		}
		return models.Payment{}, err
	}
	if order.PaymentID != nil {
		return models.Payment{}, apperrors.Validationf("order %d already has payment %d linked", order.ID, *order.PaymentID)
	}

	payment, err := o.payments.Create(ctx, stores.CreatePaymentParams{
		UserID:     params.UserID,
		OrderID:    params.OrderID,
		NameOnCard: params.NameOnCard,
		CardNumber: params.CardNumber,
		ExpiryDate: params.ExpiryDate,
		CVC:        params.CVC,
		Amount:     params.Amount,
	})
	if err != nil {
		return models.Payment{}, err
	}

	var linkErr error
	for attempt := 1; attempt <= linkRetries; attempt++ {
		linkErr = o.orders.SetPaymentID(ctx, order.ID, payment.ID)
		if linkErr == nil {
			break
		}
		log.WithError(linkErr).WithFields(log.Fields{"orderId": order.ID, "paymentId": payment.ID, "attempt": attempt}).
			Warn("Failed to link payment to order, retrying")
	}
	if linkErr != nil {
		metrics.PartialFailures.Inc()
		if _, recErr := o.recons.Create(ctx, "record_payment", payment.ID, order.ID, map[string]any{
			"transactionId": payment.TransactionID,
			"amount":        payment.Amount,
			"error":         linkErr.Error(),
		}); recErr != nil {
			log.WithError(recErr).Error("Failed to queue reconciliation task")
		}
		return models.Payment{}, apperrors.Wrap(
			apperrors.PartialFailuref("payment %d created but not linked to order %d; retry or reconcile manually", payment.ID, order.ID),
			linkErr)
	}

	metrics.PaymentsRecorded.Inc()
	log.WithFields(log.Fields{"orderId": order.ID, "paymentId": payment.ID, "transactionId": payment.TransactionID}).
		Info("Payment recorded and linked")
	return payment, nil
}

// ConfirmPayment advances every still-Pending item of the linked order to
// Processing and marks the payment Completed. Calling it again is a no-op.
// The order is located through the paymentId index, not by scanning the
// user's orders.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, paymentID uint) (models.Order, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()

	payment, err := o.payments.Get(ctx, paymentID)
	if err != nil {
		return models.Order{}, err
	}

	order, err := o.orders.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return models.Order{}, err
	}

	for _, item := range order.Items {
		if item.Status != models.ItemStatusPending {
			continue
		}
		// Losing this CAS means another confirm already advanced the item.
		if _, err := o.orders.CASItemStatus(ctx, order.ID, item.ID, models.ItemStatusPending, models.ItemStatusProcessing); err != nil {
			return models.Order{}, err
		}
	}

	if payment.Status != models.PaymentStatusCompleted {
		if err := o.payments.UpdateStatus(ctx, paymentID, models.PaymentStatusCompleted); err != nil {
			return models.Order{}, err
		}
		metrics.PaymentsConfirmed.Inc()
	}

	log.WithFields(log.Fields{"paymentId": paymentID, "orderId": order.ID}).Info("Payment confirmed")
	return o.orders.Get(ctx, order.ID)
}

// DeletePayment clears the order's reference first, verifies it, and only
// then deletes the payment. The delete is the commit point, so no state is
// ever observable with the payment gone and an order still pointing at it.
// An aborted clear leaves everything intact; a failed delete after the
// clear is queued for reconciliation and safe to retry.
func (o *Orchestrator) DeletePayment(ctx context.Context, paymentID uint) error {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()

	if _, err := o.payments.Get(ctx, paymentID); err != nil {
		return err
	}

	var referencedOrder uint
	order, err := o.orders.FindByPaymentID(ctx, paymentID)
	switch {
	case err == nil:
		referencedOrder = order.ID
		if _, err := o.orders.ClearPaymentID(ctx, paymentID); err != nil {
			// Abort before the irreversible step.
			return apperrors.Wrap(apperrors.Serverf("could not clear order reference, payment not deleted"), err)
		}
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		// Nothing references this payment.
	default:
		return err
	}

	var delErr error
	for attempt := 1; attempt <= deleteRetries; attempt++ {
		delErr = o.payments.Delete(ctx, paymentID)
		if delErr == nil || apperrors.IsCode(delErr, apperrors.CodeNotFound) {
			delErr = nil
			break
		}
		log.WithError(delErr).WithFields(log.Fields{"paymentId": paymentID, "attempt": attempt}).
			Warn("Failed to delete payment, retrying")
	}
	if delErr != nil {
		metrics.PartialFailures.Inc()
		if _, recErr := o.recons.Create(ctx, "delete_payment", paymentID, referencedOrder, map[string]any{
			"error": delErr.Error(),
		}); recErr != nil {
			log.WithError(recErr).Error("Failed to queue reconciliation task")
		}
		return apperrors.Wrap(
			apperrors.PartialFailuref("order reference cleared but payment %d not deleted; retry this call", paymentID),
			delErr)
	}

	metrics.PaymentsDeleted.Inc()
	log.WithFields(log.Fields{"paymentId": paymentID, "orderId": referencedOrder}).Info("Payment deleted")
	return nil
}

func (o *Orchestrator) PaymentsByOrder(ctx context.Context, orderID uint) ([]models.Payment, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.payments.GetByOrder(ctx, orderID)
}

func (o *Orchestrator) AllPayments(ctx context.Context) ([]models.Payment, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.payments.GetAll(ctx)
}

func (o *Orchestrator) UnresolvedReconciliations(ctx context.Context) ([]models.Reconciliation, error) {
	ctx, cancel := o.opCtx(ctx)
	defer cancel()
	return o.recons.ListUnresolved(ctx)
}
