package stores

import (
	"context"
	"errors"
	"math"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/electromart/electromart-api/apperrors"
	"github.com/electromart/electromart-api/models"
)

// totalTolerance absorbs float rounding when comparing an order total
// against the sum of its line items.
const totalTolerance = 0.01

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

type OrderItemParams struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

type CreateOrderParams struct {
	UserID     string            `json:"userId"`
	DeliveryID uint              `json:"deliveryId"`
	Items      []OrderItemParams `json:"items"`
	Total      float64           `json:"total"`
}

func validateItems(items []OrderItemParams, total float64) error {
	if len(items) == 0 {
		return apperrors.Validationf("items array is required and cannot be empty")
	}
	for _, item := range items {
		if item.Name == "" || item.Price <= 0 || item.Quantity <= 0 || item.Image == "" {
			return apperrors.Validationf("each item must have name, price, quantity, and image")
		}
	}
	if total <= 0 {
		return apperrors.Validationf("total must be a positive number")
	}
	sum := lo.SumBy(items, func(item OrderItemParams) float64 {
		return item.Price * float64(item.Quantity)
	})
	if math.Abs(sum-total) > totalTolerance {
		return apperrors.Validationf("total %.2f does not match sum of items %.2f", total, sum)
	}
	return nil
}

func (s *OrderStore) Create(ctx context.Context, params CreateOrderParams) (models.Order, error) {
	if params.UserID == "" {
		return models.Order{}, apperrors.Validationf("userId is required")
	}
	if err := validateItems(params.Items, params.Total); err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		UserID:     params.UserID,
		DeliveryID: params.DeliveryID,
		Total:      params.Total,
		Items: lo.Map(params.Items, func(item OrderItemParams, _ int) models.OrderItem {
			return models.OrderItem{
				Name:     item.Name,
				Price:    item.Price,
				Quantity: item.Quantity,
				Image:    item.Image,
				Status:   models.ItemStatusPending,
			}
		}),
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return models.Order{}, apperrors.Wrap(apperrors.Serverf("error creating order"), err)
	}
	return order, nil
}

func (s *OrderStore) Get(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, apperrors.NotFoundf("order not found")
		}
		return models.Order{}, apperrors.Wrap(apperrors.Serverf("error fetching order"), err)
	}
	return order, nil
}

func (s *OrderStore) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.Serverf("error checking order"), err)
	}
	return count > 0, nil
}

func (s *OrderStore) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching orders"), err)
	}
	return orders, nil
}

func (s *OrderStore) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching orders"), err)
	}
	return orders, nil
}

// FindByPaymentID is the reverse lookup the orchestrator uses instead of
// scanning all orders for a user: payment_id carries its own index.
func (s *OrderStore) FindByPaymentID(ctx context.Context, paymentID uint) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").Where("payment_id = ?", paymentID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, apperrors.NotFoundf("no order references payment %d", paymentID)
		}
		return models.Order{}, apperrors.Wrap(apperrors.Serverf("error fetching order by payment"), err)
	}
	return order, nil
}

func (s *OrderStore) GetByDeliveryID(ctx context.Context, deliveryID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Where("delivery_id = ?", deliveryID).Find(&orders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching orders by delivery"), err)
	}
	return orders, nil
}

// SetPaymentID links a payment to an order with a compare-and-swap: the
// write only lands if payment_id is currently NULL, which makes two
// concurrent payment attempts mutually exclusive. A zero-row result is
// resolved by re-reading the order: the MySQL driver reports changed rows,
// not matched rows, so an equality clause in the WHERE could not tell a
// retried, already-landed link apart from a conflict.
func (s *OrderStore) SetPaymentID(ctx context.Context, orderID, paymentID uint) error {
	result := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_id IS NULL", orderID).
		Update("payment_id", paymentID)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.Serverf("error linking payment to order"), result.Error)
	}
	if result.RowsAffected == 0 {
		order, err := s.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentID != nil && *order.PaymentID == paymentID {
			return nil
		}
		return apperrors.Validationf("order %d already has a different payment linked", orderID)
	}
	return nil
}

// ClearPaymentID nulls out the reference on whichever order points at
// paymentID. Zero rows affected is not an error: nothing referenced it.
func (s *OrderStore) ClearPaymentID(ctx context.Context, paymentID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_id = ?", paymentID).
		Update("payment_id", nil)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.Serverf("error clearing payment reference"), result.Error)
	}
	return result.RowsAffected, nil
}

// UpdateItemStatus reassigns an item's status unconditionally. It checks the
// enum and item membership but deliberately not the transition order; the
// orchestrator owns the state machine.
func (s *OrderStore) UpdateItemStatus(ctx context.Context, orderID, itemID uint, newStatus models.ItemStatus) (models.Order, error) {
	if _, err := models.ToItemStatus(string(newStatus)); err != nil {
		return models.Order{}, err
	}
	result := s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Update("status", newStatus)
	if result.Error != nil {
		return models.Order{}, apperrors.Wrap(apperrors.Serverf("error updating order status"), result.Error)
	}
	if result.RowsAffected == 0 {
		return models.Order{}, apperrors.NotFoundf("order item not found")
	}
	return s.Get(ctx, orderID)
}

// CASItemStatus advances an item only if its status still equals expected.
// Returns false without error when a concurrent writer got there first.
func (s *OrderStore) CASItemStatus(ctx context.Context, orderID, itemID uint, expected, newStatus models.ItemStatus) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND order_id = ? AND status = ?", itemID, orderID, expected).
		Update("status", newStatus)
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.Serverf("error updating order status"), result.Error)
	}
	return result.RowsAffected > 0, nil
}

type UpdateOrderParams struct {
	UserID     *string            `json:"userId"`
	DeliveryID *uint              `json:"deliveryId"`
	PaymentID  *uint              `json:"paymentId"`
	Items      *[]OrderItemParams `json:"items"`
	Total      *float64           `json:"total"`
}

// Update partially replaces deliveryId, paymentId, items and total.
// Supplied fields are re-validated with the Create rules, and the total is
// always checked against whichever items the order ends up with; referential
// checks on deliveryId/paymentId belong to the orchestrator.
func (s *OrderStore) Update(ctx context.Context, id uint, params UpdateOrderParams) (models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	if params.UserID != nil {
		if *params.UserID == "" {
			return models.Order{}, apperrors.Validationf("userId is required")
		}
		order.UserID = *params.UserID
	}
	if params.DeliveryID != nil {
		order.DeliveryID = *params.DeliveryID
	}
	if params.PaymentID != nil {
		order.PaymentID = params.PaymentID
	}

	newTotal := order.Total
	if params.Total != nil {
		newTotal = *params.Total
	}
	if params.Items != nil {
		if err := validateItems(*params.Items, newTotal); err != nil {
			return models.Order{}, err
		}
	} else if params.Total != nil {
		if newTotal <= 0 {
			return models.Order{}, apperrors.Validationf("total must be a positive number")
		}
		sum := lo.SumBy(order.Items, func(item models.OrderItem) float64 {
			return item.Price * float64(item.Quantity)
		})
		if math.Abs(sum-newTotal) > totalTolerance {
			return models.Order{}, apperrors.Validationf("total %.2f does not match sum of items %.2f", newTotal, sum)
		}
	}
	order.Total = newTotal

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if params.Items != nil {
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			order.Items = lo.Map(*params.Items, func(item OrderItemParams, _ int) models.OrderItem {
				return models.OrderItem{
					OrderID:  order.ID,
					Name:     item.Name,
					Price:    item.Price,
					Quantity: item.Quantity,
					Image:    item.Image,
					Status:   models.ItemStatusPending,
				}
			})
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&order).Error
	})
	if err != nil {
		return models.Order{}, apperrors.Wrap(apperrors.Serverf("error updating order"), err)
	}
	return s.Get(ctx, id)
}

func (s *OrderStore) Delete(ctx context.Context, id uint) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Select(clause.Associations).Delete(&order)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.Serverf("error deleting order"), result.Error)
	}
	return nil
}
