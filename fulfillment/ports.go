package fulfillment

import (
	"context"

	"github.com/electromart/electromart-api/models"
	"github.com/electromart/electromart-api/stores"
)

// The orchestrator is the only component with cross-entity knowledge, so it
// talks to the stores through narrow interfaces. The concrete GORM stores
// satisfy these; tests substitute failing wrappers to exercise the partial
// failure paths.

type DeliveryStore interface {
	Create(ctx context.Context, params stores.CreateDeliveryParams) (models.Delivery, error)
	Get(ctx context.Context, id uint) (models.Delivery, error)
	Exists(ctx context.Context, id uint) (bool, error)
	GetByUser(ctx context.Context, userID string) ([]models.Delivery, error)
	GetAll(ctx context.Context) ([]models.Delivery, error)
	Update(ctx context.Context, id uint, params stores.UpdateDeliveryParams) (models.Delivery, error)
	Delete(ctx context.Context, id uint) error
}

type OrderStore interface {
	Create(ctx context.Context, params stores.CreateOrderParams) (models.Order, error)
	Get(ctx context.Context, id uint) (models.Order, error)
	Exists(ctx context.Context, id uint) (bool, error)
	GetByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	FindByPaymentID(ctx context.Context, paymentID uint) (models.Order, error)
	GetByDeliveryID(ctx context.Context, deliveryID uint) ([]models.Order, error)
	SetPaymentID(ctx context.Context, orderID, paymentID uint) error
	ClearPaymentID(ctx context.Context, paymentID uint) (int64, error)
	UpdateItemStatus(ctx context.Context, orderID, itemID uint, newStatus models.ItemStatus) (models.Order, error)
	CASItemStatus(ctx context.Context, orderID, itemID uint, expected, newStatus models.ItemStatus) (bool, error)
	Update(ctx context.Context, id uint, params stores.UpdateOrderParams) (models.Order, error)
	Delete(ctx context.Context, id uint) error
}

type PaymentStore interface {
	Create(ctx context.Context, params stores.CreatePaymentParams) (models.Payment, error)
	Get(ctx context.Context, id uint) (models.Payment, error)
	Exists(ctx context.Context, id uint) (bool, error)
	GetByOrder(ctx context.Context, orderID uint) ([]models.Payment, error)
	GetAll(ctx context.Context) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, id uint, status models.PaymentStatus) error
	Delete(ctx context.Context, id uint) error
}

type ReconciliationStore interface {
	Create(ctx context.Context, op string, paymentID, orderID uint, details map[string]any) (models.Reconciliation, error)
	ListUnresolved(ctx context.Context) ([]models.Reconciliation, error)
	Resolve(ctx context.Context, id uint) error
}
