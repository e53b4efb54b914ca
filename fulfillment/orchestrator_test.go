package fulfillment_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/electromart/electromart-api/apperrors"
	"github.com/electromart/electromart-api/fulfillment"
	"github.com/electromart/electromart-api/models"
	"github.com/electromart/electromart-api/stores"
)

type env struct {
	db         *gorm.DB
	deliveries *stores.DeliveryStore
	orders     *stores.OrderStore
	payments   *stores.PaymentStore
	recons     *stores.ReconciliationStore
	orch       *fulfillment.Orchestrator
}

func newEnv(t *testing.T) *env {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Delivery{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Reconciliation{},
	))

	e := &env{
		db:         db,
		deliveries: stores.NewDeliveryStore(db),
		orders:     stores.NewOrderStore(db),
		payments:   stores.NewPaymentStore(db),
		recons:     stores.NewReconciliationStore(db),
	}
	e.orch = fulfillment.New(e.deliveries, e.orders, e.payments, e.recons)
	return e
}

func (e *env) createDelivery(t *testing.T) models.Delivery {
	t.Helper()
	delivery, err := e.deliveries.Create(context.Background(), stores.CreateDeliveryParams{
		UserID:        "u1",
		FirstName:     "A",
		LastName:      "B",
		StreetAddress: "1 Main St",
		City:          "X",
		PostalCode:    "00001",
		ContactNumber: "1234567890",
		Email:         "a@b.com",
	})
	require.NoError(t, err)
	return delivery
}

func (e *env) placeOrder(t *testing.T, deliveryID uint) models.Order {
	t.Helper()
	order, err := e.orch.PlaceOrder(context.Background(), fulfillment.PlaceOrderParams{
		UserID:     "u1",
		DeliveryID: deliveryID,
		Items: []stores.OrderItemParams{
			{Name: "TV", Price: 100, Quantity: 1, Image: "tv.png"},
		},
		Total: 100,
	})
	require.NoError(t, err)
	return order
}

func (e *env) recordPayment(t *testing.T, orderID uint) models.Payment {
	t.Helper()
	payment, err := e.orch.RecordPayment(context.Background(), recordParams(orderID))
	require.NoError(t, err)
	return payment
}

func recordParams(orderID uint) fulfillment.RecordPaymentParams {
	return fulfillment.RecordPaymentParams{
		UserID:     "u1",
		OrderID:    orderID,
		NameOnCard: "John Doe",
		CardNumber: "1234567890123456",
		ExpiryDate: "12/30",
		CVC:        "123",
		Amount:     100,
	}
}

func TestPlaceOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	delivery := e.createDelivery(t)

	order := e.placeOrder(t, delivery.ID)
	assert.Equal(t, delivery.ID, order.DeliveryID)
	assert.Nil(t, order.PaymentID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.ItemStatusPending, order.Items[0].Status)

	// A dangling delivery reference persists nothing.
	_, err := e.orch.PlaceOrder(ctx, fulfillment.PlaceOrderParams{
		UserID:     "u1",
		DeliveryID: 9999,
		Items:      []stores.OrderItemParams{{Name: "TV", Price: 100, Quantity: 1, Image: "tv.png"}},
		Total:      100,
	})
	assert.Equal(t, apperrors.CodeReferentialIntegrity, apperrors.CodeOf(err))

	orders, err := e.orders.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	// Validation failures are caught before any write.
	_, err = e.orch.PlaceOrder(ctx, fulfillment.PlaceOrderParams{
		UserID:     "u1",
		DeliveryID: delivery.ID,
		Items:      nil,
		Total:      100,
	})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestRecordPaymentLinksBothWays(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.placeOrder(t, e.createDelivery(t).ID)

	payment := e.recordPayment(t, order.ID)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.NotEmpty(t, payment.TransactionID)
	assert.Equal(t, order.ID, payment.OrderID)

	got, err := e.orch.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, payment.ID, *got.PaymentID)

	// Re-invoking while the first link stands must not mint a second
	// payment for the order.
	_, err = e.orch.RecordPayment(ctx, recordParams(order.ID))
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	payments, err := e.payments.GetByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestRecordPaymentUnknownOrder(t *testing.T) {
	e := newEnv(t)

	_, err := e.orch.RecordPayment(context.Background(), recordParams(9999))
	assert.Equal(t, apperrors.CodeReferentialIntegrity, apperrors.CodeOf(err))

	payments, err := e.payments.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestRecordPaymentSerializedPerOrder(t *testing.T) {
	e := newEnv(t)
	order := e.placeOrder(t, e.createDelivery(t).ID)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orch.RecordPayment(context.Background(), recordParams(order.ID))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	payments, err := e.payments.GetByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

// brokenLinkOrderStore makes the link step fail after the payment has been
// created, forcing the partial-failure path.
type brokenLinkOrderStore struct {
	fulfillment.OrderStore
}

func (s *brokenLinkOrderStore) SetPaymentID(ctx context.Context, orderID, paymentID uint) error {
	return apperrors.Serverf("simulated link outage")
}

func TestRecordPaymentPartialFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.placeOrder(t, e.createDelivery(t).ID)

	broken := fulfillment.New(e.deliveries, &brokenLinkOrderStore{OrderStore: e.orders}, e.payments, e.recons)

	_, sagaErr := broken.RecordPayment(ctx, recordParams(order.ID))
	require.Error(t, sagaErr)
	assert.Equal(t, apperrors.CodePartialFailure, apperrors.CodeOf(sagaErr))

	// The orphaned payment id is named for the operator, and a
	// reconciliation task is queued.
	payments, err := e.payments.GetByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Contains(t, sagaErr.Error(), fmt.Sprintf("payment %d", payments[0].ID))

	recs, err := e.recons.ListUnresolved(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "record_payment", recs[0].Op)
	assert.Equal(t, payments[0].ID, recs[0].PaymentID)
	assert.Equal(t, order.ID, recs[0].OrderID)

	// The order itself is untouched: no dangling reference.
	got, err := e.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PaymentID)

	// Retrying against the healthy store succeeds and links the retried
	// payment.
	retried, err := e.orch.RecordPayment(ctx, recordParams(order.ID))
	require.NoError(t, err)
	got, err = e.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, retried.ID, *got.PaymentID)
}

func TestConfirmPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.placeOrder(t, e.createDelivery(t).ID)
	payment := e.recordPayment(t, order.ID)

	confirmed, err := e.orch.ConfirmPayment(ctx, payment.ID)
	require.NoError(t, err)
	require.Len(t, confirmed.Items, 1)
	assert.Equal(t, models.ItemStatusProcessing, confirmed.Items[0].Status)

	got, err := e.payments.Get(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, got.Status)

	// Confirming again is a no-op, not an error.
	again, err := e.orch.ConfirmPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusProcessing, again.Items[0].Status)

	_, err = e.orch.ConfirmPayment(ctx, 9999)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestConfirmPaymentLeavesAdvancedItemsAlone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.placeOrder(t, e.createDelivery(t).ID)
	payment := e.recordPayment(t, order.ID)

	_, err := e.orders.UpdateItemStatus(ctx, order.ID, order.Items[0].ID, models.ItemStatusReady)
	require.NoError(t, err)

	confirmed, err := e.orch.ConfirmPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusReady, confirmed.Items[0].Status)
}

func TestDeletePayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.placeOrder(t, e.createDelivery(t).ID)
	payment := e.recordPayment(t, order.ID)

	require.NoError(t, e.orch.DeletePayment(ctx, payment.ID))

	got, err := e.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PaymentID)

	_, err = e.payments.Get(ctx, payment.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	err = e.orch.DeletePayment(ctx, payment.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestDeletePaymentWithoutReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.placeOrder(t, e.createDelivery(t).ID)
	payment := e.recordPayment(t, order.ID)

	// Orphan the payment by deleting the order first; the payment keeps
	// its own orderId for audit and can still be deleted cleanly.
	require.NoError(t, e.orch.DeleteOrder(ctx, order.ID))
	require.NoError(t, e.orch.DeletePayment(ctx, payment.ID))
}

func TestAdvanceItemStatus(t *testing.T) {
	tests := []struct {
		name     string
		from     models.ItemStatus
		to       string
		wantCode apperrors.Code
		want     models.ItemStatus
	}{
		{name: "pending to processing: ok", from: models.ItemStatusPending, to: "Processing", want: models.ItemStatusProcessing},
		{name: "pending to ready skips a step: ok", from: models.ItemStatusPending, to: "Ready", want: models.ItemStatusReady},
		{name: "pending to delivered skips two: ok", from: models.ItemStatusPending, to: "Delivered", want: models.ItemStatusDelivered},
		{name: "same status is a no-op", from: models.ItemStatusReady, to: "Ready", want: models.ItemStatusReady},
		{name: "delivered is terminal", from: models.ItemStatusDelivered, to: "Pending", wantCode: apperrors.CodeInvalidTransition},
		{name: "ready back to processing: rejected", from: models.ItemStatusReady, to: "Processing", wantCode: apperrors.CodeInvalidTransition},
		{name: "unknown status: rejected", from: models.ItemStatusPending, to: "Lost", wantCode: apperrors.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			order := e.placeOrder(t, e.createDelivery(t).ID)
			itemID := order.Items[0].ID

			if tt.from != models.ItemStatusPending {
				_, err := e.orders.UpdateItemStatus(ctx, order.ID, itemID, tt.from)
				require.NoError(t, err)
			}

			updated, err := e.orch.AdvanceItemStatus(ctx, order.ID, itemID, tt.to)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))

				got, getErr := e.orders.Get(ctx, order.ID)
				require.NoError(t, getErr)
				assert.Equal(t, tt.from, got.Items[0].Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.Items[0].Status)
		})
	}
}

func TestAdvanceItemStatusMissingTargets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.placeOrder(t, e.createDelivery(t).ID)

	_, err := e.orch.AdvanceItemStatus(ctx, order.ID, 9999, "Processing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = e.orch.AdvanceItemStatus(ctx, 9999, order.Items[0].ID, "Processing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestUpdateOrderReferentialChecks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	delivery := e.createDelivery(t)
	order := e.placeOrder(t, delivery.ID)
	other := e.placeOrder(t, delivery.ID)
	payment := e.recordPayment(t, order.ID)

	missing := uint(9999)
	_, err := e.orch.UpdateOrder(ctx, order.ID, stores.UpdateOrderParams{DeliveryID: &missing})
	assert.Equal(t, apperrors.CodeReferentialIntegrity, apperrors.CodeOf(err))

	_, err = e.orch.UpdateOrder(ctx, order.ID, stores.UpdateOrderParams{PaymentID: &missing})
	assert.Equal(t, apperrors.CodeReferentialIntegrity, apperrors.CodeOf(err))

	// At most one order may reference a given payment.
	_, err = e.orch.UpdateOrder(ctx, other.ID, stores.UpdateOrderParams{PaymentID: &payment.ID})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	// Re-affirming the existing link on the same order is fine.
	updated, err := e.orch.UpdateOrder(ctx, order.ID, stores.UpdateOrderParams{PaymentID: &payment.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.PaymentID)
	assert.Equal(t, payment.ID, *updated.PaymentID)

	// An unlinked payment cannot displace the one already linked: the
	// attach goes through the same conditional write as RecordPayment.
	displacer, err := e.payments.Create(ctx, stores.CreatePaymentParams{
		UserID:     "u1",
		OrderID:    order.ID,
		NameOnCard: "John Doe",
		CardNumber: "1234567890123456",
		ExpiryDate: "12/30",
		CVC:        "123",
		Amount:     100,
	})
	require.NoError(t, err)
	_, err = e.orch.UpdateOrder(ctx, order.ID, stores.UpdateOrderParams{PaymentID: &displacer.ID})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	got, err := e.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, payment.ID, *got.PaymentID)
}

func TestDeleteDeliveryLeavesDanglingOrderReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	delivery := e.createDelivery(t)
	order := e.placeOrder(t, delivery.ID)

	// Accepted behavior: the delivery goes away, the order keeps the id.
	require.NoError(t, e.orch.DeleteDelivery(ctx, delivery.ID))

	got, err := e.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.ID, got.DeliveryID)
}
