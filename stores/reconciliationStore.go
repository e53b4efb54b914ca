package stores

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/electromart/electromart-api/apperrors"
	"github.com/electromart/electromart-api/models"
)

type ReconciliationStore struct {
	db *gorm.DB
}

func NewReconciliationStore(db *gorm.DB) *ReconciliationStore {
	return &ReconciliationStore{db: db}
}

func (s *ReconciliationStore) Create(ctx context.Context, op string, paymentID, orderID uint, details map[string]any) (models.Reconciliation, error) {
	payload, err := json.Marshal(details)
	if err != nil {
		return models.Reconciliation{}, apperrors.Wrap(apperrors.Serverf("error encoding reconciliation details"), err)
	}
	rec := models.Reconciliation{
		Op:        op,
		PaymentID: paymentID,
		OrderID:   orderID,
		Details:   datatypes.JSON(payload),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.Reconciliation{}, apperrors.Wrap(apperrors.Serverf("error recording reconciliation task"), err)
	}
	return rec, nil
}

func (s *ReconciliationStore) ListUnresolved(ctx context.Context) ([]models.Reconciliation, error) {
	var recs []models.Reconciliation
	err := s.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("created_at desc, id desc").
		Find(&recs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching reconciliation tasks"), err)
	}
	return recs, nil
}

func (s *ReconciliationStore) Resolve(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).
		Model(&models.Reconciliation{}).
		Where("id = ?", id).
		Update("resolved", true)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.Serverf("error resolving reconciliation task"), result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("reconciliation task not found")
	}
	return nil
}
