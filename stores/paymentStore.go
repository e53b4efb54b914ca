package stores

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/electromart/electromart-api/apperrors"
	"github.com/electromart/electromart-api/models"
)

// maxTransactionIDAttempts bounds regeneration when a freshly generated
// transaction id collides with an existing one.
const maxTransactionIDAttempts = 5

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcPattern        = regexp.MustCompile(`^\d{3}$`)
)

type PaymentStore struct {
	db    *gorm.DB
	genID func() string
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db, genID: uuid.NewString}
}

// NewPaymentStoreWithGenerator swaps the transaction id source, used by
// tests to force collisions.
func NewPaymentStoreWithGenerator(db *gorm.DB, genID func() string) *PaymentStore {
	return &PaymentStore{db: db, genID: genID}
}

type CreatePaymentParams struct {
	UserID     string  `json:"userId"`
	OrderID    uint    `json:"orderId"`
	NameOnCard string  `json:"nameOnCard"`
	CardNumber string  `json:"cardNumber"`
	ExpiryDate string  `json:"expiryDate"`
	CVC        string  `json:"cvc"`
	Amount     float64 `json:"amount"`
}

func (p CreatePaymentParams) validate() error {
	switch {
	case p.UserID == "":
		return apperrors.Validationf("userId is required")
	case p.OrderID == 0:
		return apperrors.Validationf("orderId is required")
	case p.NameOnCard == "":
		return apperrors.Validationf("nameOnCard is required")
	case !cardNumberPattern.MatchString(p.CardNumber):
		return apperrors.Validationf("cardNumber must be exactly 16 digits")
	case !expiryPattern.MatchString(p.ExpiryDate):
		return apperrors.Validationf("expiryDate must be in MM/YY format")
	case !cvcPattern.MatchString(p.CVC):
		return apperrors.Validationf("cvc must be exactly 3 digits")
	case p.Amount <= 0:
		return apperrors.Validationf("amount must be a positive number")
	}
	return nil
}

// Create persists a payment with status Pending and a freshly generated,
// globally unique transaction id. A collision on the unique index is an
// internal retry condition, never surfaced to the caller.
func (s *PaymentStore) Create(ctx context.Context, params CreatePaymentParams) (models.Payment, error) {
	if err := params.validate(); err != nil {
		return models.Payment{}, err
	}

	for attempt := 1; attempt <= maxTransactionIDAttempts; attempt++ {
		payment := models.Payment{
			UserID:        params.UserID,
			OrderID:       params.OrderID,
			NameOnCard:    params.NameOnCard,
			CardNumber:    params.CardNumber,
			ExpiryDate:    params.ExpiryDate,
			CVC:           params.CVC,
			Amount:        params.Amount,
			Status:        models.PaymentStatusPending,
			TransactionID: s.genID(),
		}
		err := s.db.WithContext(ctx).Create(&payment).Error
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Payment{}, apperrors.Wrap(apperrors.Serverf("error creating payment"), err)
		}
		log.WithFields(log.Fields{"attempt": attempt, "orderId": params.OrderID}).
			Warn("Transaction id collision, regenerating")
	}
	return models.Payment{}, apperrors.Serverf("could not generate a unique transaction id after %d attempts", maxTransactionIDAttempts)
}

func (s *PaymentStore) Get(ctx context.Context, id uint) (models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Payment{}, apperrors.NotFoundf("payment not found")
		}
		return models.Payment{}, apperrors.Wrap(apperrors.Serverf("error fetching payment"), err)
	}
	return payment, nil
}

func (s *PaymentStore) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.Serverf("error checking payment"), err)
	}
	return count > 0, nil
}

func (s *PaymentStore) GetByOrder(ctx context.Context, orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at desc, id desc").
		Find(&payments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching payments for order"), err)
	}
	return payments, nil
}

func (s *PaymentStore) GetAll(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).Order("created_at desc, id desc").Find(&payments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching payments"), err)
	}
	return payments, nil
}

func (s *PaymentStore) UpdateStatus(ctx context.Context, id uint, status models.PaymentStatus) error {
	if _, err := models.ToPaymentStatus(string(status)); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.Serverf("error updating payment status"), result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("payment not found")
	}
	return nil
}

// Delete removes the payment row and nothing else. Clearing order
// references first is the orchestrator's job; the payment store stays
// ignorant of orders.
func (s *PaymentStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Payment{}, id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.Serverf("error deleting payment"), result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("payment not found")
	}
	return nil
}
